// internal/domain/returns/entity.go
package returns

import (
	"time"

	"gorm.io/gorm"
)

// Status represents a return request status
type Status string

const (
	StatusPending         Status = "pending"
	StatusUnderReview     Status = "under_review"
	StatusApproved        Status = "approved"
	StatusRefundProcessed Status = "refund_processed"
	StatusRejected        Status = "rejected"
)

// allowedTransitions lists the operator moves out of each state. The
// ordering is deliberately loose: an operator may jump straight from
// pending to any resolution, review steps included or skipped at their
// discretion. Rejection is only reachable before approval. Terminal
// states (refund_processed, rejected) have no exits.
var allowedTransitions = map[Status][]Status{
	StatusPending:     {StatusUnderReview, StatusApproved, StatusRefundProcessed, StatusRejected},
	StatusUnderReview: {StatusApproved, StatusRefundProcessed, StatusRejected},
	StatusApproved:    {StatusRefundProcessed},
}

// IsValid reports whether s is a known return status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRefundProcessed, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition may leave s
func (s Status) IsTerminal() bool {
	return s == StatusRefundProcessed || s == StatusRejected
}

// CanTransitionTo reports whether the lifecycle permits from -> to
func (s Status) CanTransitionTo(to Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ReturnRequest is a customer's post-delivery return. It is purely a
// tracking record: creating or resolving one moves no stock and no
// money. Financial reversal is an external, manually triggered
// process.
type ReturnRequest struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	ReturnNumber string         `gorm:"uniqueIndex;not null;size:50" json:"return_number"`
	OrderID      uint           `gorm:"not null;index" json:"order_id"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	Reason       string         `gorm:"not null;size:100" json:"reason"`
	Description  string         `gorm:"type:text" json:"description"`
	Status       Status         `gorm:"not null;default:'pending'" json:"status"`
	ResolvedAt   *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (ReturnRequest) TableName() string {
	return "return_requests"
}
