// internal/domain/checkout/service_test.go
package checkout

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/loyalty"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
	"github.com/your-org/storefront-backend/internal/domain/product"
)

type stubGateway struct {
	captures   int
	fixedRef   string
	err        error
	lastAmount int64
}

func (g *stubGateway) Capture(_ context.Context, req *payment.CaptureRequest) (*payment.Capture, error) {
	g.captures++
	g.lastAmount = req.Amount
	if g.err != nil {
		return nil, g.err
	}
	ref := g.fixedRef
	if ref == "" {
		ref = "pay_" + uuid.NewString()
	}
	return &payment.Capture{Reference: ref, Amount: req.Amount, Currency: req.Currency, Status: "captured"}, nil
}

type fixture struct {
	svc      *Service
	db       *gorm.DB
	gateway  *stubGateway
	carts    *cart.Service
	products *product.Service
	coupons  *coupon.Service
	loyalty  *loyalty.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&product.Product{}, &cart.CartItem{}, &coupon.Coupon{},
		&loyalty.Account{}, &loyalty.LedgerEntry{},
		&order.Order{}, &order.Item{}, &order.StatusHistory{},
	))

	log := logrus.New()
	log.SetOutput(io.Discard)
	gw := &stubGateway{}

	return &fixture{
		svc:      NewService(db, nil, nil, log, gw, nil),
		db:       db,
		gateway:  gw,
		carts:    cart.NewService(db, nil),
		products: product.NewService(db, nil),
		coupons:  coupon.NewService(db, nil),
		loyalty:  loyalty.NewService(db, nil),
	}
}

func (f *fixture) seedProduct(t *testing.T, price int64, stock int) *product.Product {
	t.Helper()
	p, err := f.products.CreateProduct(&product.ProductCreateRequest{
		SKU:      "SKU-" + uuid.NewString()[:8],
		Name:     "Widget",
		Price:    price,
		Stock:    stock,
		IsActive: true,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) addToCart(t *testing.T, userID uint, productID uint, qty int) {
	t.Helper()
	_, err := f.carts.AddToCart(userID, &cart.AddToCartRequest{ProductID: productID, Quantity: qty})
	require.NoError(t, err)
}

func shippingAddress() order.Address {
	return order.Address{
		Name:         "Test Buyer",
		AddressLine1: "1 Main St",
		City:         "Bengaluru",
		State:        "Karnataka",
		PostalCode:   "560001",
		Country:      "IN",
	}
}

func TestPlaceOrderHappyPath(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, 1000, 20)
	f.addToCart(t, 1, p.ID, 5)

	_, err := f.coupons.CreateCoupon(&coupon.CreateCouponRequest{
		Code: "SAVE10", DiscountType: pricing.DiscountTypePercentage,
		Value: 10, UsageLimit: 100,
	})
	require.NoError(t, err)
	_, err = f.loyalty.Earn(1, 250, "seed")
	require.NoError(t, err)

	resp, err := f.svc.PlaceOrder(context.Background(), 1, "buyer@example.com", &PlaceOrderRequest{
		CouponCode:      "SAVE10",
		RedeemPoints:    250,
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)

	// 5000 - 400 bulk = 4600, -460 coupon = 4140, 200 redeemable -> -20
	assert.Equal(t, int64(5000), resp.Quote.Subtotal)
	assert.Equal(t, int64(400), resp.Quote.BulkDiscount)
	assert.Equal(t, int64(460), resp.Quote.CouponDiscount)
	assert.Equal(t, int64(200), resp.Quote.PointsRedeemed)
	assert.Equal(t, int64(20), resp.Quote.PointsDiscount)
	assert.Equal(t, int64(4120), resp.Quote.Total)
	assert.Equal(t, int64(4120), f.gateway.lastAmount)

	assert.Equal(t, order.StatusPaid, resp.Order.Status)
	assert.Equal(t, int64(4120), resp.Order.TotalAmount)
	assert.NotEmpty(t, resp.Order.PaymentReference)

	// earn: floor(4120/10) = 412; balance: 250 - 200 + 412
	assert.Equal(t, int64(412), resp.PointsEarned)
	balance, err := f.loyalty.Balance(1)
	require.NoError(t, err)
	assert.Equal(t, int64(462), balance)

	// stock decremented, coupon consumed, cart cleared
	got, err := f.products.GetProduct(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, got.Stock)

	c, err := f.coupons.GetByCode("SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 1, c.UsedCount)

	cartResp, err := f.carts.GetCart(1)
	require.NoError(t, err)
	assert.Empty(t, cartResp.Items)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), 1, "buyer@example.com", &PlaceOrderRequest{
		ShippingAddress: shippingAddress(),
	})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, f.gateway.captures)
}

func TestPlaceOrderStockShortfallAbortsBeforePayment(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, 1000, 10)
	f.addToCart(t, 1, p.ID, 10)

	// stock drains after the items were carted
	require.NoError(t, f.products.DecrementStock(p.ID, 8))

	_, err := f.svc.PlaceOrder(context.Background(), 1, "buyer@example.com", &PlaceOrderRequest{
		ShippingAddress: shippingAddress(),
	})

	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Issues, 1)
	assert.Equal(t, p.ID, stockErr.Issues[0].ProductID)
	assert.Equal(t, 10, stockErr.Issues[0].Requested)
	assert.Equal(t, 2, stockErr.Issues[0].Available)

	// the gateway was never touched and no order exists
	assert.Zero(t, f.gateway.captures)
	var count int64
	require.NoError(t, f.db.Model(&order.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPlaceOrderReportsEveryShortLine(t *testing.T) {
	f := newFixture(t)
	p1 := f.seedProduct(t, 1000, 1)
	p2 := f.seedProduct(t, 2000, 1)
	f.addToCart(t, 1, p1.ID, 1)
	f.addToCart(t, 1, p2.ID, 1)
	require.NoError(t, f.products.DecrementStock(p1.ID, 1))
	require.NoError(t, f.products.DecrementStock(p2.ID, 1))

	_, err := f.svc.PlaceOrder(context.Background(), 1, "buyer@example.com", &PlaceOrderRequest{
		ShippingAddress: shippingAddress(),
	})

	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Len(t, stockErr.Issues, 2)
}

func TestPlaceOrderGatewayFailureLeavesNoOrder(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, 1000, 10)
	f.addToCart(t, 1, p.ID, 1)
	f.gateway.err = errors.New("provider unreachable")

	_, err := f.svc.PlaceOrder(context.Background(), 1, "buyer@example.com", &PlaceOrderRequest{
		ShippingAddress: shippingAddress(),
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, f.db.Model(&order.Order{}).Count(&count).Error)
	assert.Zero(t, count)

	// nothing was consumed
	got, err := f.products.GetProduct(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)
}

func TestPlaceOrderIdempotentOnPaymentReference(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, 1000, 10)
	f.gateway.fixedRef = "pay_fixed"

	f.addToCart(t, 1, p.ID, 2)
	first, err := f.svc.PlaceOrder(context.Background(), 1, "buyer@example.com", &PlaceOrderRequest{
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)

	// a retry lands on the same provider reference
	f.addToCart(t, 1, p.ID, 2)
	second, err := f.svc.PlaceOrder(context.Background(), 1, "buyer@example.com", &PlaceOrderRequest{
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)

	assert.Equal(t, first.Order.ID, second.Order.ID)

	var count int64
	require.NoError(t, f.db.Model(&order.Order{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// side effects ran once: only the first decrement happened
	got, err := f.products.GetProduct(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Stock)
	assert.Zero(t, second.PointsEarned)
}

func TestPlaceOrderUnknownCouponIsNonFatal(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, 1000, 10)
	f.addToCart(t, 1, p.ID, 1)

	resp, err := f.svc.PlaceOrder(context.Background(), 1, "buyer@example.com", &PlaceOrderRequest{
		CouponCode:      "NOPE",
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)
	assert.False(t, resp.Quote.CouponApplied)
	assert.Equal(t, "coupon not found", resp.Quote.CouponRejectReason)
	assert.Equal(t, int64(1000), resp.Quote.Total)
}

func TestPlaceOrderExhaustedCouponIsNonFatal(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, 1000, 10)
	_, err := f.coupons.CreateCoupon(&coupon.CreateCouponRequest{
		Code: "ONCE", DiscountType: pricing.DiscountTypePercentage,
		Value: 10, UsageLimit: 1,
	})
	require.NoError(t, err)

	f.addToCart(t, 1, p.ID, 1)
	first, err := f.svc.PlaceOrder(context.Background(), 1, "a@example.com", &PlaceOrderRequest{
		CouponCode:      "ONCE",
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)
	assert.True(t, first.Quote.CouponApplied)

	f.addToCart(t, 2, p.ID, 1)
	second, err := f.svc.PlaceOrder(context.Background(), 2, "b@example.com", &PlaceOrderRequest{
		CouponCode:      "ONCE",
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)
	assert.False(t, second.Quote.CouponApplied)
	assert.Equal(t, int64(1000), second.Quote.Total)
}

func TestPlaceOrderZeroTotalSkipsGateway(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, 500, 10)
	_, err := f.coupons.CreateCoupon(&coupon.CreateCouponRequest{
		Code: "COVER", DiscountType: pricing.DiscountTypeFixed,
		Value: 1000, UsageLimit: 10,
	})
	require.NoError(t, err)

	f.addToCart(t, 1, p.ID, 1)
	resp, err := f.svc.PlaceOrder(context.Background(), 1, "buyer@example.com", &PlaceOrderRequest{
		CouponCode:      "COVER",
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), resp.Quote.Total)
	assert.Zero(t, f.gateway.captures)
	assert.Contains(t, resp.Order.PaymentReference, "free_")
	assert.Zero(t, resp.PointsEarned)
}

func TestQuoteDoesNotConsumeAnything(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, 1000, 10)
	f.addToCart(t, 1, p.ID, 3)
	_, err := f.loyalty.Earn(1, 500, "seed")
	require.NoError(t, err)

	resp, err := f.svc.Quote(1, &QuoteRequest{RedeemPoints: 500})
	require.NoError(t, err)

	// 3000 - 150 bulk = 2850; 500 points -> 50 discount
	assert.Equal(t, int64(150), resp.Quote.BulkDiscount)
	assert.Equal(t, int64(500), resp.Quote.PointsRedeemed)
	assert.Equal(t, int64(2800), resp.Quote.Total)
	assert.Equal(t, int64(280), resp.PointsToEarn)

	balance, err := f.loyalty.Balance(1)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance)

	got, err := f.products.GetProduct(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)
	assert.Zero(t, f.gateway.captures)
}
