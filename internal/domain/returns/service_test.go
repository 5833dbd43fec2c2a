// internal/domain/returns/service_test.go
package returns

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
)

func newTestServices(t *testing.T) (*Service, *order.Service) {
	t.Helper()
	dsn := "file:returns_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&order.Order{}, &order.Item{}, &order.StatusHistory{}, &ReturnRequest{},
	))
	orderSvc := order.NewService(db, nil)
	return NewService(db, nil, orderSvc), orderSvc
}

func deliveredOrder(t *testing.T, orderSvc *order.Service, userID uint) *order.Order {
	t.Helper()
	o, _, err := orderSvc.CreateFromPayment(&order.CreateParams{
		PaymentReference: "pay_" + uuid.NewString(),
		UserID:           userID,
		Email:            "buyer@example.com",
		Lines:            []order.LineParams{{ProductID: 1, Name: "Widget", Quantity: 1, UnitPrice: 500}},
		Quote:            pricing.Quote{Subtotal: 500, Total: 500},
	})
	require.NoError(t, err)
	o, err = orderSvc.UpdateStatus(o.ID, order.StatusDelivered, "", 1)
	require.NoError(t, err)
	return o
}

func TestCreateRequiresDeliveredOrder(t *testing.T) {
	svc, orderSvc := newTestServices(t)

	o, _, err := orderSvc.CreateFromPayment(&order.CreateParams{
		PaymentReference: "pay_undelivered",
		UserID:           1,
		Email:            "buyer@example.com",
		Lines:            []order.LineParams{{ProductID: 1, Name: "Widget", Quantity: 1, UnitPrice: 500}},
		Quote:            pricing.Quote{Subtotal: 500, Total: 500},
	})
	require.NoError(t, err)

	_, err = svc.Create(1, &CreateReturnRequest{OrderID: o.ID, Reason: "damaged"})
	assert.ErrorIs(t, err, ErrOrderNotReturnable)

	_, err = svc.Create(1, &CreateReturnRequest{OrderID: 9999, Reason: "damaged"})
	assert.ErrorIs(t, err, ErrOrderNotReturnable)
}

func TestCreateStartsPendingWithNoSideEffects(t *testing.T) {
	svc, orderSvc := newTestServices(t)
	o := deliveredOrder(t, orderSvc, 1)

	r, err := svc.Create(1, &CreateReturnRequest{
		OrderID:     o.ID,
		Reason:      "damaged",
		Description: "arrived cracked",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, r.Status)
	assert.NotEmpty(t, r.ReturnNumber)
	assert.Equal(t, o.ID, r.OrderID)

	// the order itself is untouched
	got, err := orderSvc.GetOrder(o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, got.Status)
}

func TestCreateScopedToOwner(t *testing.T) {
	svc, orderSvc := newTestServices(t)
	o := deliveredOrder(t, orderSvc, 1)

	_, err := svc.Create(2, &CreateReturnRequest{OrderID: o.ID, Reason: "not mine"})
	assert.ErrorIs(t, err, ErrOrderNotReturnable)
}

func TestDirectRejectionFromPending(t *testing.T) {
	svc, orderSvc := newTestServices(t)
	o := deliveredOrder(t, orderSvc, 1)

	r, err := svc.Create(1, &CreateReturnRequest{OrderID: o.ID, Reason: "changed mind"})
	require.NoError(t, err)

	// pending -> rejected must succeed without under_review
	r, err = svc.UpdateStatus(r.ID, StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, r.Status)
	assert.NotNil(t, r.ResolvedAt)
}

func TestFullApprovalFlow(t *testing.T) {
	svc, orderSvc := newTestServices(t)
	o := deliveredOrder(t, orderSvc, 1)

	r, err := svc.Create(1, &CreateReturnRequest{OrderID: o.ID, Reason: "damaged"})
	require.NoError(t, err)

	for _, target := range []Status{StatusUnderReview, StatusApproved, StatusRefundProcessed} {
		r, err = svc.UpdateStatus(r.ID, target)
		require.NoError(t, err)
		assert.Equal(t, target, r.Status)
	}
}

func TestTerminalStatesAreAbsorbing(t *testing.T) {
	svc, orderSvc := newTestServices(t)
	o := deliveredOrder(t, orderSvc, 1)

	r, err := svc.Create(1, &CreateReturnRequest{OrderID: o.ID, Reason: "damaged"})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(r.ID, StatusRejected)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(r.ID, StatusApproved)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// replaying the terminal status is still a no-op success
	got, err := svc.UpdateStatus(r.ID, StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, got.Status)
}

func TestRefundProcessedDirectFromPending(t *testing.T) {
	svc, orderSvc := newTestServices(t)
	o := deliveredOrder(t, orderSvc, 1)

	r, err := svc.Create(1, &CreateReturnRequest{OrderID: o.ID, Reason: "damaged"})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(r.ID, StatusRefundProcessed)
	require.NoError(t, err)
	assert.Equal(t, StatusRefundProcessed, updated.Status)
	assert.NotNil(t, updated.ResolvedAt)
}

func TestRejectedNotReachableAfterApproval(t *testing.T) {
	svc, orderSvc := newTestServices(t)
	o := deliveredOrder(t, orderSvc, 1)

	r, err := svc.Create(1, &CreateReturnRequest{OrderID: o.ID, Reason: "damaged"})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(r.ID, StatusApproved)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(r.ID, StatusRejected)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestListFiltering(t *testing.T) {
	svc, orderSvc := newTestServices(t)
	o1 := deliveredOrder(t, orderSvc, 1)
	o2 := deliveredOrder(t, orderSvc, 1)

	r1, err := svc.Create(1, &CreateReturnRequest{OrderID: o1.ID, Reason: "damaged"})
	require.NoError(t, err)
	_, err = svc.Create(1, &CreateReturnRequest{OrderID: o2.ID, Reason: "wrong size"})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(r1.ID, StatusRejected)
	require.NoError(t, err)

	mine, err := svc.ListForUser(1)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	rejected, err := svc.ListAll(StatusRejected)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, r1.ID, rejected[0].ID)
}
