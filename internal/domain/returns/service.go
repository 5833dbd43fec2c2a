// internal/domain/returns/service.go
package returns

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

var (
	// ErrNotFound is returned when no return request matches the lookup.
	ErrNotFound = errors.New("return request not found")
	// ErrInvalidTransition is returned for a disallowed status change.
	ErrInvalidTransition = errors.New("invalid return status transition")
	// ErrOrderNotReturnable is returned when the referenced order is
	// not delivered (or does not belong to the customer).
	ErrOrderNotReturnable = errors.New("order is not eligible for return")
)

// Service handles return request business logic
type Service struct {
	db           *gorm.DB
	config       *config.Config
	orderService *order.Service
}

// NewService creates a new returns service
func NewService(db *gorm.DB, cfg *config.Config, orderService *order.Service) *Service {
	return &Service{
		db:           db,
		config:       cfg,
		orderService: orderService,
	}
}

// CreateReturnRequest represents return creation data
type CreateReturnRequest struct {
	OrderID     uint   `json:"order_id" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description"`
}

// Create opens a return request against a delivered order. The new
// request starts in pending with no stock or payment side effects.
func (s *Service) Create(userID uint, req *CreateReturnRequest) (*ReturnRequest, error) {
	o, err := s.orderService.GetOrderForUser(userID, req.OrderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, ErrOrderNotReturnable
		}
		return nil, err
	}
	if o.Status != order.StatusDelivered {
		return nil, fmt.Errorf("%w: order status is %s", ErrOrderNotReturnable, o.Status)
	}

	r := &ReturnRequest{
		ReturnNumber: generateReturnNumber(),
		OrderID:      o.ID,
		UserID:       userID,
		Reason:       req.Reason,
		Description:  req.Description,
		Status:       StatusPending,
	}

	if err := s.db.Create(r).Error; err != nil {
		return nil, fmt.Errorf("failed to create return request: %w", err)
	}

	return r, nil
}

// Get retrieves a return request by ID
func (s *Service) Get(id uint) (*ReturnRequest, error) {
	var r ReturnRequest
	if err := s.db.First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve return request: %w", err)
	}
	return &r, nil
}

// ListForUser returns the customer's return requests, newest first
func (s *Service) ListForUser(userID uint) ([]ReturnRequest, error) {
	var requests []ReturnRequest
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list return requests: %w", err)
	}
	return requests, nil
}

// ListAll returns every return request for operator review, optionally
// filtered by status
func (s *Service) ListAll(status Status) ([]ReturnRequest, error) {
	query := s.db.Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []ReturnRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list return requests: %w", err)
	}
	return requests, nil
}

// UpdateStatus applies an operator transition. Terminal states are
// absorbing; everything else follows the allowed-transition table.
func (s *Service) UpdateStatus(id uint, target Status) (*ReturnRequest, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, target)
	}

	r, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if target == r.Status {
		// Replaying the current status is a no-op success.
		return r, nil
	}
	if !r.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, target)
	}

	updates := map[string]interface{}{"status": target}
	if target.IsTerminal() {
		now := time.Now().UTC()
		updates["resolved_at"] = now
		r.ResolvedAt = &now
	}

	if err := s.db.Model(r).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update return status: %w", err)
	}
	r.Status = target
	return r, nil
}

// generateReturnNumber generates a display return number
// Format: RET-XXXXXXXX
func generateReturnNumber() string {
	return "RET-" + uuid.NewString()[:8]
}
