// internal/domain/order/service_test.go
package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/pricing"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:order_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Order{}, &Item{}, &StatusHistory{}))
	return db
}

func sampleParams(ref string) *CreateParams {
	return &CreateParams{
		PaymentReference: ref,
		UserID:           1,
		Email:            "buyer@example.com",
		Lines: []LineParams{
			{ProductID: 10, Name: "Widget", Quantity: 5, UnitPrice: 200},
		},
		Quote: pricing.Quote{
			Subtotal:       1000,
			BulkDiscount:   80,
			CouponCode:     "SAVE10",
			CouponApplied:  true,
			CouponDiscount: 92,
			PointsRedeemed: 200,
			PointsDiscount: 20,
			Total:          808,
		},
		ShippingAddress: Address{Name: "Buyer", City: "Chennai", Country: "IN"},
	}
}

func TestCreateFromPaymentIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)

	first, created, err := svc.CreateFromPayment(sampleParams("pay_abc123"))
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, StatusPaid, first.Status)
	assert.Equal(t, int64(808), first.TotalAmount)
	assert.NotEmpty(t, first.OrderNumber)
	require.Len(t, first.StatusHistory, 1)
	assert.Equal(t, StatusPaid, first.StatusHistory[0].Status)

	second, created, err := svc.CreateFromPayment(sampleParams("pay_abc123"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&Order{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCreateFromPaymentFreezesLineItems(t *testing.T) {
	svc := NewService(newTestDB(t), nil)

	o, _, err := svc.CreateFromPayment(sampleParams("pay_items"))
	require.NoError(t, err)

	got, err := svc.GetOrder(o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(1000), got.Items[0].LineTotal)
	assert.Equal(t, "SAVE10", got.CouponCode)
	assert.Equal(t, int64(200), got.PointsRedeemed)
}

func TestCreateFromPaymentValidation(t *testing.T) {
	svc := NewService(newTestDB(t), nil)

	_, _, err := svc.CreateFromPayment(&CreateParams{PaymentReference: ""})
	assert.Error(t, err)

	_, _, err = svc.CreateFromPayment(&CreateParams{PaymentReference: "pay_x"})
	assert.Error(t, err, "empty line items must be rejected")
}

func TestUpdateStatusForwardAndSkip(t *testing.T) {
	svc := NewService(newTestDB(t), nil)
	o, _, err := svc.CreateFromPayment(sampleParams("pay_fwd"))
	require.NoError(t, err)

	o, err = svc.UpdateStatus(o.ID, StatusConfirmed, "", 42)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, o.Status)

	// skipping ahead is allowed
	o, err = svc.UpdateStatus(o.ID, StatusShipped, "expedited", 42)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, o.Status)
	assert.NotNil(t, o.ShippedAt)

	o, err = svc.UpdateStatus(o.ID, StatusDelivered, "", 42)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, o.Status)
	assert.NotNil(t, o.DeliveredAt)

	// four entries: paid, confirmed, shipped, delivered
	require.Len(t, o.StatusHistory, 4)
	assert.Equal(t, uint(42), o.StatusHistory[1].Actor)
}

func TestUpdateStatusRejectsRegression(t *testing.T) {
	svc := NewService(newTestDB(t), nil)
	o, _, err := svc.CreateFromPayment(sampleParams("pay_reg"))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(o.ID, StatusShipped, "", 1)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(o.ID, StatusConfirmed, "", 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatusSameTargetIsNoOp(t *testing.T) {
	svc := NewService(newTestDB(t), nil)
	o, _, err := svc.CreateFromPayment(sampleParams("pay_noop"))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(o.ID, StatusProcessing, "", 1)
	require.NoError(t, err)

	got, err := svc.UpdateStatus(o.ID, StatusProcessing, "", 1)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, got.Status)

	// the replay must not append a second history entry
	require.Len(t, got.StatusHistory, 2)
}

func TestCancelFromAnyNonTerminalState(t *testing.T) {
	svc := NewService(newTestDB(t), nil)

	for _, from := range []Status{StatusPaid, StatusConfirmed, StatusProcessing, StatusShipped, StatusOutForDelivery} {
		o, _, err := svc.CreateFromPayment(sampleParams("pay_cancel_" + string(from)))
		require.NoError(t, err)
		if from != StatusPaid {
			_, err = svc.UpdateStatus(o.ID, from, "", 1)
			require.NoError(t, err)
		}

		got, err := svc.Cancel(o.ID, "customer request", 1)
		require.NoError(t, err, "cancel from %s", from)
		assert.Equal(t, StatusCancelled, got.Status)
		assert.NotNil(t, got.CancelledAt)
	}
}

func TestCancelByCustomerOnlyBeforeShipment(t *testing.T) {
	svc := NewService(newTestDB(t), nil)

	for _, from := range []Status{StatusPaid, StatusConfirmed, StatusProcessing} {
		o, _, err := svc.CreateFromPayment(sampleParams("pay_cust_cancel_" + string(from)))
		require.NoError(t, err)
		if from != StatusPaid {
			_, err = svc.UpdateStatus(o.ID, from, "", 1)
			require.NoError(t, err)
		}

		got, err := svc.CancelByCustomer(1, o.ID, "changed my mind")
		require.NoError(t, err, "customer cancel from %s", from)
		assert.Equal(t, StatusCancelled, got.Status)
	}

	for _, from := range []Status{StatusShipped, StatusOutForDelivery, StatusDelivered} {
		o, _, err := svc.CreateFromPayment(sampleParams("pay_cust_late_" + string(from)))
		require.NoError(t, err)
		_, err = svc.UpdateStatus(o.ID, from, "", 1)
		require.NoError(t, err)

		_, err = svc.CancelByCustomer(1, o.ID, "")
		assert.ErrorIs(t, err, ErrInvalidTransition, "customer cancel from %s", from)
	}
}

func TestCancelByCustomerScoping(t *testing.T) {
	svc := NewService(newTestDB(t), nil)
	o, _, err := svc.CreateFromPayment(sampleParams("pay_cust_scope"))
	require.NoError(t, err)

	_, err = svc.CancelByCustomer(2, o.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTerminalStatesAreAbsorbing(t *testing.T) {
	svc := NewService(newTestDB(t), nil)

	o, _, err := svc.CreateFromPayment(sampleParams("pay_done"))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(o.ID, StatusDelivered, "", 1)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(o.ID, StatusCancelled, "", 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	c, _, err := svc.CreateFromPayment(sampleParams("pay_gone"))
	require.NoError(t, err)
	_, err = svc.Cancel(c.ID, "", 1)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(c.ID, StatusConfirmed, "", 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatusUnknownOrderAndStatus(t *testing.T) {
	svc := NewService(newTestDB(t), nil)

	_, err := svc.UpdateStatus(9999, StatusConfirmed, "", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	o, _, err := svc.CreateFromPayment(sampleParams("pay_bad"))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(o.ID, Status("lost_in_transit"), "", 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGetOrderForUserScoping(t *testing.T) {
	svc := NewService(newTestDB(t), nil)
	o, _, err := svc.CreateFromPayment(sampleParams("pay_scope"))
	require.NoError(t, err)

	_, err = svc.GetOrderForUser(1, o.ID)
	require.NoError(t, err)

	_, err = svc.GetOrderForUser(2, o.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetOrdersPagination(t *testing.T) {
	svc := NewService(newTestDB(t), nil)
	for i := 0; i < 5; i++ {
		_, _, err := svc.CreateFromPayment(sampleParams("pay_page_" + uuid.NewString()))
		require.NoError(t, err)
	}

	resp, err := svc.GetOrders(&ListRequest{Page: 1, Limit: 2, UserID: 1})
	require.NoError(t, err)
	assert.Len(t, resp.Orders, 2)
	assert.Equal(t, int64(5), resp.Pagination.Total)
	assert.Equal(t, 3, resp.Pagination.TotalPages)

	resp, err = svc.GetOrders(&ListRequest{Page: 1, Limit: 10, Status: StatusDelivered})
	require.NoError(t, err)
	assert.Empty(t, resp.Orders)
}
