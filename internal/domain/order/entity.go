// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Status represents the order fulfillment status
type Status string

const (
	StatusPaid           Status = "paid"
	StatusConfirmed      Status = "confirmed"
	StatusProcessing     Status = "processing"
	StatusShipped        Status = "shipped"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// statusRank orders the forward sequence. Transitions may skip ahead
// but never regress; cancelled sits outside the sequence as the one
// absorbing state reachable from any non-terminal status.
var statusRank = map[Status]int{
	StatusPaid:           0,
	StatusConfirmed:      1,
	StatusProcessing:     2,
	StatusShipped:        3,
	StatusOutForDelivery: 4,
	StatusDelivered:      5,
}

// IsValid reports whether s is a known order status
func (s Status) IsValid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// IsTerminal reports whether no further transition may leave s
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Order represents a paid order. The line items and pricing breakdown
// are frozen at payment capture; only Status may change afterwards,
// and only through the lifecycle transitions.
type Order struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// PaymentReference is the gateway's transaction reference and the
	// idempotency key: at most one order exists per reference.
	PaymentReference string `gorm:"uniqueIndex;not null;size:100" json:"payment_reference"`
	OrderNumber      string `gorm:"index;size:50" json:"order_number"`
	UserID           uint   `gorm:"not null;index" json:"user_id"`
	Email            string `gorm:"not null;size:255" json:"email"`
	Status           Status `gorm:"not null;default:'paid'" json:"status"`

	// Pricing breakdown, in minor currency units, in stacking order.
	SubtotalAmount       int64 `gorm:"not null" json:"subtotal_amount"`
	BulkDiscountAmount   int64 `gorm:"default:0" json:"bulk_discount_amount"`
	CouponDiscountAmount int64 `gorm:"default:0" json:"coupon_discount_amount"`
	PointsDiscountAmount int64 `gorm:"default:0" json:"points_discount_amount"`
	TotalAmount          int64 `gorm:"not null" json:"total_amount"`

	CouponCode     string `gorm:"size:50" json:"coupon_code,omitempty"`
	PointsRedeemed int64  `gorm:"default:0" json:"points_redeemed"`

	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`

	// Timestamps
	ShippedAt   *time.Time     `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
	CancelledAt *time.Time     `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items         []Item          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []StatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// Item is a frozen copy of one cart line
type Item struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice int64     `gorm:"not null" json:"unit_price"`
	LineTotal int64     `gorm:"not null" json:"line_total"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusHistory is the append-only audit trail of status changes
type StatusHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	Status    Status    `gorm:"not null" json:"status"`
	Comment   string    `gorm:"type:text" json:"comment"`
	Actor     uint      `gorm:"index" json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

// Address represents the shipping address frozen into the order
type Address struct {
	Name         string `gorm:"size:100" json:"name"`
	AddressLine1 string `gorm:"size:255" json:"address_line1"`
	AddressLine2 string `gorm:"size:255" json:"address_line2"`
	City         string `gorm:"size:100" json:"city"`
	State        string `gorm:"size:100" json:"state"`
	PostalCode   string `gorm:"size:20" json:"postal_code"`
	Country      string `gorm:"size:2" json:"country"`
	Phone        string `gorm:"size:20" json:"phone"`
}

// TableName overrides
func (Order) TableName() string         { return "orders" }
func (Item) TableName() string          { return "order_items" }
func (StatusHistory) TableName() string { return "order_status_history" }

// GenerateOrderNumber generates a display order number
// Format: ORD-YYYYMMDD-XXXXX
func GenerateOrderNumber(orderID uint) string {
	return fmt.Sprintf("ORD-%s-%05d", time.Now().UTC().Format("20060102"), orderID)
}

// CanTransitionTo reports whether the lifecycle permits moving to
// target from the order's current status. Re-sending the current
// status is permitted (the caller treats it as a no-op).
func (o *Order) CanTransitionTo(target Status) bool {
	if !target.IsValid() {
		return false
	}
	if target == o.Status {
		return true
	}
	if o.Status.IsTerminal() {
		return false
	}
	if target == StatusCancelled {
		return true
	}
	return statusRank[target] > statusRank[o.Status]
}
