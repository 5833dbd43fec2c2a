// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/loyalty"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// ErrEmptyCart is returned when checkout is attempted on an empty cart
var ErrEmptyCart = errors.New("cart is empty")

// StockIssue describes one line that cannot be fulfilled
type StockIssue struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// StockError aborts checkout before any payment is attempted. It lists
// every failing line, not just the first one.
type StockError struct {
	Issues []StockIssue
}

func (e *StockError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = fmt.Sprintf("%s: requested %d, available %d", issue.Name, issue.Requested, issue.Available)
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// Notifier delivers order confirmations out of band
type Notifier interface {
	OrderPlaced(o *order.Order)
}

// Service orchestrates checkout: quoting, payment capture, order
// creation and the post-payment side effects.
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
	log         *logrus.Logger

	carts    *cart.Service
	products *product.Service
	coupons  *coupon.Service
	loyalty  *loyalty.Service
	orders   *order.Service
	gateway  payment.Gateway
	notifier Notifier
}

// NewService creates a new checkout service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log *logrus.Logger, gateway payment.Gateway, notifier Notifier) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
		log:         log,
		carts:       cart.NewService(db, cfg),
		products:    product.NewService(db, cfg),
		coupons:     coupon.NewService(db, cfg),
		loyalty:     loyalty.NewService(db, cfg),
		orders:      order.NewService(db, cfg),
		gateway:     gateway,
		notifier:    notifier,
	}
}

// QuoteRequest represents a pricing preview request
type QuoteRequest struct {
	CouponCode   string `json:"coupon_code"`
	RedeemPoints int64  `json:"redeem_points"`
}

// QuoteResponse represents a pricing preview. Nothing is reserved or
// consumed; the quote may change before the order is placed.
type QuoteResponse struct {
	Cart          *cart.CartResponse `json:"cart"`
	Quote         pricing.Quote      `json:"quote"`
	PointsBalance int64              `json:"points_balance"`
	PointsToEarn  int64              `json:"points_to_earn"`
}

// PlaceOrderRequest represents the checkout submission
type PlaceOrderRequest struct {
	CouponCode      string        `json:"coupon_code"`
	RedeemPoints    int64         `json:"redeem_points"`
	ShippingAddress order.Address `json:"shipping_address" binding:"required"`
}

// PlaceOrderResponse represents a completed checkout
type PlaceOrderResponse struct {
	Order        *order.Order  `json:"order"`
	Quote        pricing.Quote `json:"quote"`
	PointsEarned int64         `json:"points_earned"`
}

// CouponApplication represents the outcome of applying a coupon code
type CouponApplication struct {
	CouponCode     string `json:"coupon_code"`
	Applied        bool   `json:"applied"`
	DiscountAmount int64  `json:"discount_amount"`
	Message        string `json:"message,omitempty"`
}

// Quote prices the user's current cart without placing an order
func (s *Service) Quote(userID uint, req *QuoteRequest) (*QuoteResponse, error) {
	cartResp, err := s.carts.GetCart(userID)
	if err != nil {
		return nil, err
	}
	if len(cartResp.Items) == 0 {
		return nil, ErrEmptyCart
	}

	quote, balance, err := s.priceCart(cartResp, userID, req.CouponCode, req.RedeemPoints)
	if err != nil {
		return nil, err
	}

	return &QuoteResponse{
		Cart:          cartResp,
		Quote:         quote,
		PointsBalance: balance,
		PointsToEarn:  pricing.EarnedPoints(quote.Total),
	}, nil
}

// PlaceOrder runs the full checkout. Failures before or during payment
// capture leave no order behind; failures after capture never unwind
// the order, they are logged and surfaced to operations instead.
func (s *Service) PlaceOrder(ctx context.Context, userID uint, email string, req *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	cartResp, err := s.carts.GetCart(userID)
	if err != nil {
		return nil, err
	}
	if len(cartResp.Items) == 0 {
		return nil, ErrEmptyCart
	}

	// Every unfulfillable line aborts checkout before any money moves.
	if err := s.validateStock(cartResp); err != nil {
		return nil, err
	}

	couponCode := req.CouponCode
	if couponCode == "" {
		couponCode = s.getStoredCouponCode(userID)
	}

	quote, _, err := s.priceCart(cartResp, userID, couponCode, req.RedeemPoints)
	if err != nil {
		return nil, err
	}

	paymentRef, err := s.capturePayment(ctx, userID, quote.Total)
	if err != nil {
		return nil, err
	}

	lines := make([]order.LineParams, len(cartResp.Items))
	for i, item := range cartResp.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		lines[i] = order.LineParams{
			ProductID: item.ProductID,
			Name:      name,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		}
	}

	ord, created, err := s.orders.CreateFromPayment(&order.CreateParams{
		PaymentReference: paymentRef,
		UserID:           userID,
		Email:            email,
		Lines:            lines,
		Quote:            quote,
		ShippingAddress:  req.ShippingAddress,
	})
	if err != nil {
		// Money moved but no order exists. This must never be silent.
		s.log.WithError(err).WithFields(logrus.Fields{
			"user_id":           userID,
			"payment_reference": paymentRef,
			"amount":            quote.Total,
		}).Error("payment captured but order creation failed")
		return nil, fmt.Errorf("order creation failed after payment capture (reference %s): %w", paymentRef, err)
	}

	earned := int64(0)
	if created {
		earned = s.runPostPaymentEffects(userID, ord, quote)
	}

	return &PlaceOrderResponse{
		Order:        ord,
		Quote:        quote,
		PointsEarned: earned,
	}, nil
}

// ApplyCoupon validates a coupon against the current cart and remembers
// it for the user's next checkout
func (s *Service) ApplyCoupon(userID uint, couponCode string) (*CouponApplication, error) {
	cartResp, err := s.carts.GetCart(userID)
	if err != nil {
		return nil, err
	}
	if len(cartResp.Items) == 0 {
		return nil, ErrEmptyCart
	}

	quote, _, err := s.priceCart(cartResp, userID, couponCode, 0)
	if err != nil {
		return nil, err
	}

	app := &CouponApplication{
		CouponCode:     quote.CouponCode,
		Applied:        quote.CouponApplied,
		DiscountAmount: quote.CouponDiscount,
		Message:        quote.CouponRejectReason,
	}
	if !app.Applied {
		return app, nil
	}

	s.storeCouponCode(userID, quote.CouponCode)
	return app, nil
}

// RemoveCoupon forgets the user's stored coupon
func (s *Service) RemoveCoupon(userID uint) error {
	if s.redisClient == nil {
		return nil
	}
	couponKey := fmt.Sprintf("applied_coupon:%d", userID)
	return s.redisClient.Del(context.Background(), couponKey).Err()
}

// priceCart resolves the coupon and loyalty balance and runs the
// pricing engine over the cart lines
func (s *Service) priceCart(cartResp *cart.CartResponse, userID uint, couponCode string, redeemPoints int64) (pricing.Quote, int64, error) {
	lines := make([]pricing.Line, len(cartResp.Items))
	for i, item := range cartResp.Items {
		lines[i] = pricing.Line{
			ProductID: item.ProductID,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
		}
	}

	var couponIn *pricing.CouponInput
	couponMissing := false
	if couponCode != "" {
		c, err := s.coupons.GetByCode(couponCode)
		switch {
		case err == nil:
			couponIn = c.PricingInput()
		case errors.Is(err, coupon.ErrNotFound):
			couponMissing = true
		default:
			return pricing.Quote{}, 0, err
		}
	}

	balance, err := s.loyalty.Balance(userID)
	if err != nil {
		return pricing.Quote{}, 0, err
	}

	quote := pricing.Compute(lines, couponIn, redeemPoints, balance)
	if couponMissing {
		quote.CouponCode = coupon.NormalizeCode(couponCode)
		quote.CouponRejectReason = "coupon not found"
	}
	return quote, balance, nil
}

func (s *Service) validateStock(cartResp *cart.CartResponse) error {
	var issues []StockIssue
	for _, item := range cartResp.Items {
		if item.Product == nil || !item.Product.IsActive {
			issues = append(issues, StockIssue{
				ProductID: item.ProductID,
				Name:      fmt.Sprintf("product %d", item.ProductID),
				Requested: item.Quantity,
			})
			continue
		}
		if !item.Product.HasStock(item.Quantity) {
			issues = append(issues, StockIssue{
				ProductID: item.ProductID,
				Name:      item.Product.Name,
				Requested: item.Quantity,
				Available: item.Product.Stock,
			})
		}
	}
	if len(issues) > 0 {
		return &StockError{Issues: issues}
	}
	return nil
}

// capturePayment charges the quoted total. Zero-total orders skip the
// gateway entirely and get a synthetic reference.
func (s *Service) capturePayment(ctx context.Context, userID uint, total int64) (string, error) {
	if total == 0 {
		return "free_" + uuid.NewString(), nil
	}

	capture, err := s.gateway.Capture(ctx, &payment.CaptureRequest{
		Amount:   total,
		Currency: "INR",
		Receipt:  fmt.Sprintf("chk_%d_%s", userID, uuid.NewString()[:8]),
		Notes:    map[string]string{"user_id": fmt.Sprintf("%d", userID)},
	})
	if err != nil {
		return "", fmt.Errorf("payment capture failed: %w", err)
	}
	return capture.Reference, nil
}

// runPostPaymentEffects applies the side effects of a freshly created
// order. Each one is best effort: a failure is logged and the rest
// still run, because the order already exists and the payment already
// settled.
func (s *Service) runPostPaymentEffects(userID uint, ord *order.Order, quote pricing.Quote) int64 {
	logger := s.log.WithFields(logrus.Fields{
		"user_id":      userID,
		"order_id":     ord.ID,
		"order_number": ord.OrderNumber,
	})

	if quote.CouponApplied {
		if err := s.coupons.IncrementUsage(quote.CouponCode); err != nil {
			logger.WithError(err).WithField("coupon_code", quote.CouponCode).
				Warn("failed to record coupon usage")
		}
	}

	if quote.PointsRedeemed > 0 {
		if _, err := s.loyalty.Redeem(userID, quote.PointsRedeemed, "Redeemed on order "+ord.OrderNumber); err != nil {
			logger.WithError(err).WithField("points", quote.PointsRedeemed).
				Warn("failed to redeem loyalty points")
		}
	}

	for _, item := range ord.Items {
		if err := s.products.DecrementStock(item.ProductID, item.Quantity); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"product_id": item.ProductID,
				"quantity":   item.Quantity,
			}).Warn("failed to decrement stock")
		}
	}

	earned := pricing.EarnedPoints(quote.Total)
	if earned > 0 {
		if _, err := s.loyalty.Earn(userID, earned, "Earned on order "+ord.OrderNumber); err != nil {
			logger.WithError(err).WithField("points", earned).
				Warn("failed to award loyalty points")
			earned = 0
		}
	}

	if err := s.carts.ClearCart(userID); err != nil {
		logger.WithError(err).Warn("failed to clear cart")
	}
	if err := s.RemoveCoupon(userID); err != nil {
		logger.WithError(err).Warn("failed to clear stored coupon")
	}

	if s.notifier != nil {
		go s.notifier.OrderPlaced(ord)
	}

	return earned
}

func (s *Service) storeCouponCode(userID uint, code string) {
	if s.redisClient == nil {
		return
	}
	couponKey := fmt.Sprintf("applied_coupon:%d", userID)
	if err := s.redisClient.Set(context.Background(), couponKey, code, 24*time.Hour).Err(); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("failed to store applied coupon")
	}
}

func (s *Service) getStoredCouponCode(userID uint) string {
	if s.redisClient == nil {
		return ""
	}
	couponKey := fmt.Sprintf("applied_coupon:%d", userID)
	code, err := s.redisClient.Get(context.Background(), couponKey).Result()
	if err != nil {
		return ""
	}
	return code
}
