// internal/domain/cart/service.go
package cart

import (
	"errors"
	"fmt"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// ErrItemNotFound is returned when the cart does not contain the product
var ErrItemNotFound = errors.New("cart item not found")

// Service handles cart business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CartItemResponse represents a cart item with product details
type CartItemResponse struct {
	ProductID uint             `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     int64            `json:"price"`
	Product   *product.Product `json:"product,omitempty"`
	AddedAt   time.Time        `json:"added_at"`
}

// CartResponse represents a shopping cart with items and summary
type CartResponse struct {
	UserID uint               `json:"user_id"`
	Items  []CartItemResponse `json:"items"`
	Totals CartTotals         `json:"totals"`
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// GetCart retrieves the user's cart with product details and totals
func (s *Service) GetCart(userID uint) (*CartResponse, error) {
	var dbItems []CartItem
	if err := s.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&dbItems).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	items := make([]CartItemResponse, len(dbItems))
	for i, item := range dbItems {
		items[i] = CartItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			AddedAt:   item.CreatedAt,
		}
	}

	if err := s.loadProductDetails(items); err != nil {
		return nil, err
	}

	return &CartResponse{
		UserID: userID,
		Items:  items,
		Totals: s.calculateTotals(items),
	}, nil
}

// AddToCart adds an item to the cart, snapshotting the current product
// price. Adding the same product again accumulates quantity.
func (s *Service) AddToCart(userID uint, req *AddToCartRequest) (*CartResponse, error) {
	var prod product.Product
	if err := s.db.Where("id = ? AND is_active = ?", req.ProductID, true).First(&prod).Error; err != nil {
		return nil, fmt.Errorf("product not found or inactive")
	}

	var existing CartItem
	err := s.db.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&existing).Error
	switch {
	case err == nil:
		newQuantity := existing.Quantity + req.Quantity
		if !prod.HasStock(newQuantity) {
			return nil, fmt.Errorf("%w: available %d", product.ErrInsufficientStock, prod.Stock)
		}
		if err := s.db.Model(&existing).Update("quantity", newQuantity).Error; err != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if !prod.HasStock(req.Quantity) {
			return nil, fmt.Errorf("%w: available %d", product.ErrInsufficientStock, prod.Stock)
		}
		item := &CartItem{
			UserID:    userID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			Price:     prod.Price,
		}
		if err := s.db.Create(item).Error; err != nil {
			return nil, fmt.Errorf("failed to add cart item: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to check cart: %w", err)
	}

	return s.GetCart(userID)
}

// UpdateCartItem sets the quantity of a cart item. Zero removes it.
func (s *Service) UpdateCartItem(userID uint, productID uint, req *UpdateCartItemRequest) (*CartResponse, error) {
	var item CartItem
	if err := s.db.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to fetch cart item: %w", err)
	}

	if req.Quantity == 0 {
		if err := s.db.Delete(&item).Error; err != nil {
			return nil, fmt.Errorf("failed to remove cart item: %w", err)
		}
		return s.GetCart(userID)
	}

	var prod product.Product
	if err := s.db.First(&prod, productID).Error; err != nil {
		return nil, fmt.Errorf("product not found")
	}
	if !prod.HasStock(req.Quantity) {
		return nil, fmt.Errorf("%w: available %d", product.ErrInsufficientStock, prod.Stock)
	}

	if err := s.db.Model(&item).Update("quantity", req.Quantity).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	return s.GetCart(userID)
}

// RemoveFromCart removes a product from the cart
func (s *Service) RemoveFromCart(userID uint, productID uint) (*CartResponse, error) {
	result := s.db.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&CartItem{})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrItemNotFound
	}
	return s.GetCart(userID)
}

// ClearCart removes all items from the user's cart
func (s *Service) ClearCart(userID uint) error {
	if err := s.db.Where("user_id = ?", userID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *Service) loadProductDetails(items []CartItemResponse) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]uint, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	var products []product.Product
	if err := s.db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	byID := make(map[uint]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	for i := range items {
		items[i].Product = byID[items[i].ProductID]
	}
	return nil
}

func (s *Service) calculateTotals(items []CartItemResponse) CartTotals {
	totals := CartTotals{ItemCount: len(items)}
	for _, item := range items {
		totals.TotalQuantity += item.Quantity
		totals.SubTotal += item.Price * int64(item.Quantity)
	}
	return totals
}
