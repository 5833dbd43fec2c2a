// internal/domain/coupon/service.go
package coupon

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
)

// ErrNotFound is returned when no coupon matches the given code.
var ErrNotFound = errors.New("coupon not found")

// ErrUsageExhausted is returned when an increment would exceed the usage limit.
var ErrUsageExhausted = errors.New("coupon usage limit reached")

// Service handles coupon registry business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new coupon service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateCouponRequest represents coupon creation data
type CreateCouponRequest struct {
	Code          string               `json:"code" binding:"required"`
	DiscountType  pricing.DiscountType `json:"discount_type" binding:"required,oneof=percentage fixed"`
	Value         int64                `json:"value" binding:"required,gt=0"`
	MinOrderValue int64                `json:"min_order_value"`
	UsageLimit    int                  `json:"usage_limit" binding:"required,gt=0"`
}

// CreateCoupon registers a new coupon code
func (s *Service) CreateCoupon(req *CreateCouponRequest) (*Coupon, error) {
	code := NormalizeCode(req.Code)
	if code == "" {
		return nil, fmt.Errorf("coupon code is required")
	}
	if req.DiscountType == pricing.DiscountTypePercentage && req.Value > 100 {
		return nil, fmt.Errorf("percentage discount cannot exceed 100")
	}

	var existing Coupon
	if err := s.db.Where("code = ?", code).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("coupon with code '%s' already exists", code)
	}

	c := &Coupon{
		Code:          code,
		DiscountType:  req.DiscountType,
		Value:         req.Value,
		MinOrderValue: req.MinOrderValue,
		UsageLimit:    req.UsageLimit,
		IsActive:      true,
	}

	if err := s.db.Create(c).Error; err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	return c, nil
}

// GetByCode looks up a coupon by its case-normalized code
func (s *Service) GetByCode(code string) (*Coupon, error) {
	var c Coupon
	err := s.db.Where("code = ?", NormalizeCode(code)).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}
	return &c, nil
}

// ListCoupons returns all coupons for operator review
func (s *Service) ListCoupons() ([]Coupon, error) {
	var coupons []Coupon
	if err := s.db.Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}

// SetActive activates or deactivates a coupon
func (s *Service) SetActive(couponID uint, active bool) (*Coupon, error) {
	var c Coupon
	if err := s.db.First(&c, couponID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}

	if err := s.db.Model(&c).Update("is_active", active).Error; err != nil {
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}
	c.IsActive = active
	return &c, nil
}

// DeleteCoupon soft-deletes a coupon
func (s *Service) DeleteCoupon(couponID uint) error {
	result := s.db.Delete(&Coupon{}, couponID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete coupon: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementUsage bumps used_count by one as a single conditional update
// so concurrent redemptions can never push it past the usage limit.
func (s *Service) IncrementUsage(code string) error {
	result := s.db.Model(&Coupon{}).
		Where("code = ? AND used_count < usage_limit", NormalizeCode(code)).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))

	if result.Error != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUsageExhausted
	}
	return nil
}
