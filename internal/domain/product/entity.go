// internal/domain/product/entity.go
package product

import (
	"time"

	"gorm.io/gorm"
)

// Product represents the product entity
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SKU         string         `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Price       int64          `gorm:"not null" json:"price"` // Price in cents
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	Stock       int            `gorm:"default:0" json:"stock"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (Product) TableName() string { return "products" }

// Business methods for Product
func (p *Product) IsInStock() bool {
	return p.Stock > 0
}

func (p *Product) HasStock(quantity int) bool {
	return p.Stock >= quantity
}

func (p *Product) GetFormattedPrice() float64 {
	return float64(p.Price) / 100
}
