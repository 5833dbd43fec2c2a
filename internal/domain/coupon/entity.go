// internal/domain/coupon/entity.go
package coupon

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/pricing"
)

// Coupon represents an operator-defined discount code
type Coupon struct {
	ID            uint                 `gorm:"primaryKey" json:"id"`
	Code          string               `gorm:"uniqueIndex;not null;size:50" json:"code"`
	DiscountType  pricing.DiscountType `gorm:"not null;size:20" json:"discount_type"` // percentage, fixed
	Value         int64                `gorm:"not null" json:"value"`
	MinOrderValue int64                `gorm:"default:0" json:"min_order_value"`
	IsActive      bool                 `gorm:"default:true" json:"is_active"`
	UsageLimit    int                  `gorm:"not null" json:"usage_limit"`
	UsedCount     int                  `gorm:"default:0" json:"used_count"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	DeletedAt     gorm.DeletedAt       `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Coupon) TableName() string {
	return "coupons"
}

// NormalizeCode canonicalizes a coupon code for lookup and storage
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// HasUsageLeft reports whether the coupon can still be redeemed
func (c *Coupon) HasUsageLeft() bool {
	return c.UsedCount < c.UsageLimit
}

// PricingInput converts the coupon into the pricing engine's input form.
// A coupon with no redemptions left is presented as inactive.
func (c *Coupon) PricingInput() *pricing.CouponInput {
	return &pricing.CouponInput{
		Code:          c.Code,
		DiscountType:  c.DiscountType,
		Value:         c.Value,
		MinOrderValue: c.MinOrderValue,
		IsActive:      c.IsActive && c.HasUsageLeft(),
	}
}
