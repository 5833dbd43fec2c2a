// internal/domain/order/service.go
package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
)

var (
	// ErrNotFound is returned when no order matches the lookup.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidTransition is returned when a status change would
	// regress the lifecycle or leave a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Service handles order persistence and the lifecycle state machine
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateParams carries everything frozen into a new order at payment
// capture time.
type CreateParams struct {
	PaymentReference string
	UserID           uint
	Email            string
	Lines            []LineParams
	Quote            pricing.Quote
	ShippingAddress  Address
}

// LineParams is one cart line to freeze into the order
type LineParams struct {
	ProductID uint
	Name      string
	Quantity  int
	UnitPrice int64
}

// ListRequest represents order list query parameters
type ListRequest struct {
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
	Status Status `form:"status"`
	UserID uint   `form:"user_id"`
}

// ListResponse represents orders with pagination
type ListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// CreateFromPayment writes the order exactly once, keyed by the payment
// reference. A retry with the same reference returns the existing order
// and created=false instead of a duplicate write.
func (s *Service) CreateFromPayment(params *CreateParams) (*Order, bool, error) {
	if params.PaymentReference == "" {
		return nil, false, fmt.Errorf("payment reference is required")
	}
	if len(params.Lines) == 0 {
		return nil, false, fmt.Errorf("order must contain at least one line item")
	}

	// Fast path: the reference was already persisted.
	if existing, err := s.GetByPaymentReference(params.PaymentReference); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	o := &Order{
		PaymentReference:     params.PaymentReference,
		UserID:               params.UserID,
		Email:                params.Email,
		Status:               StatusPaid,
		SubtotalAmount:       params.Quote.Subtotal,
		BulkDiscountAmount:   params.Quote.BulkDiscount,
		CouponDiscountAmount: params.Quote.CouponDiscount,
		PointsDiscountAmount: params.Quote.PointsDiscount,
		TotalAmount:          params.Quote.Total,
		PointsRedeemed:       params.Quote.PointsRedeemed,
		ShippingAddress:      params.ShippingAddress,
	}
	if params.Quote.CouponApplied {
		o.CouponCode = params.Quote.CouponCode
	}

	for _, line := range params.Lines {
		o.Items = append(o.Items, Item{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.UnitPrice * int64(line.Quantity),
		})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}

		o.OrderNumber = GenerateOrderNumber(o.ID)
		if err := tx.Model(o).Update("order_number", o.OrderNumber).Error; err != nil {
			return fmt.Errorf("failed to set order number: %w", err)
		}

		history := StatusHistory{
			OrderID:   o.ID,
			Status:    StatusPaid,
			Comment:   "Payment captured",
			Actor:     params.UserID,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to write status history: %w", err)
		}
		o.StatusHistory = append(o.StatusHistory, history)
		return nil
	})
	if err != nil {
		// A concurrent checkout may have won the unique-index race on
		// the payment reference; resolve it as an idempotent no-op.
		if isDuplicateKey(err) {
			if existing, lookupErr := s.GetByPaymentReference(params.PaymentReference); lookupErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("failed to create order: %w", err)
	}

	return o, true, nil
}

// GetOrder retrieves a single order by ID
func (s *Service) GetOrder(id uint) (*Order, error) {
	var o Order
	err := s.db.
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

// GetOrderForUser retrieves an order only if it belongs to the user
func (s *Service) GetOrderForUser(userID, orderID uint) (*Order, error) {
	o, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrNotFound
	}
	return o, nil
}

// GetByPaymentReference retrieves an order by its idempotency key
func (s *Service) GetByPaymentReference(ref string) (*Order, error) {
	var o Order
	err := s.db.
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("payment_reference = ?", ref).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

// GetOrders retrieves orders with filtering and pagination
func (s *Service) GetOrders(req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.Model(&Order{}).Preload("Items")

	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.UserID > 0 {
		query = query.Where("user_id = ?", req.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// GetUserOrders retrieves orders for a specific user
func (s *Service) GetUserOrders(userID uint, page, limit int) (*ListResponse, error) {
	return s.GetOrders(&ListRequest{Page: page, Limit: limit, UserID: userID})
}

// UpdateStatus applies an operator-initiated lifecycle transition.
// Re-sending the current status is a no-op success; a regression or a
// transition out of a terminal state is rejected with
// ErrInvalidTransition. Every accepted change appends to the audit
// trail.
func (s *Service) UpdateStatus(orderID uint, target Status, comment string, actor uint) (*Order, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, target)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var o Order
		if err := tx.First(&o, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		if target == o.Status {
			// Idempotent replay of the same target status.
			return nil
		}
		if !o.CanTransitionTo(target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{"status": target}
		switch target {
		case StatusShipped:
			updates["shipped_at"] = now
		case StatusDelivered:
			updates["delivered_at"] = now
		case StatusCancelled:
			updates["cancelled_at"] = now
		}

		if err := tx.Model(&o).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		history := StatusHistory{
			OrderID:   orderID,
			Status:    target,
			Comment:   comment,
			Actor:     actor,
			CreatedAt: now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to write status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(orderID)
}

// Cancel moves the order into the absorbing cancelled state
func (s *Service) Cancel(orderID uint, reason string, actor uint) (*Order, error) {
	comment := "Order cancelled"
	if reason != "" {
		comment = fmt.Sprintf("Order cancelled: %s", reason)
	}
	return s.UpdateStatus(orderID, StatusCancelled, comment, actor)
}

// CancelByCustomer cancels the customer's own order. Unlike operator
// cancellation, which reaches any non-terminal state, customers may
// only cancel before fulfillment leaves the warehouse.
func (s *Service) CancelByCustomer(userID, orderID uint, reason string) (*Order, error) {
	o, err := s.GetOrderForUser(userID, orderID)
	if err != nil {
		return nil, err
	}

	switch o.Status {
	case StatusPaid, StatusConfirmed, StatusProcessing:
	default:
		return nil, fmt.Errorf("%w: customer cancellation not allowed from %s", ErrInvalidTransition, o.Status)
	}

	comment := "Cancelled by customer"
	if reason != "" {
		comment = fmt.Sprintf("Cancelled by customer: %s", reason)
	}
	return s.UpdateStatus(orderID, StatusCancelled, comment, userID)
}

// isDuplicateKey detects unique-constraint violations across the
// drivers we run against (postgres in production, sqlite in tests).
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
