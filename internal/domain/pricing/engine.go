// internal/domain/pricing/engine.go
package pricing

// The pricing engine is a pure computation: cart lines in, itemized
// breakdown out. Discounts stack in a fixed order (bulk, then coupon,
// then points) because each one is computed on the base left by the
// previous one. All amounts are integer minor currency units.

const (
	// RedeemBlockSize is the smallest redeemable block of points.
	RedeemBlockSize = 100
	// PointsPerUnit is how many points convert to one currency unit.
	PointsPerUnit = 10
	// EarnDivisor converts a paid total into earned points (1 point per
	// 10 units spent, rounded down).
	EarnDivisor = 10
)

// Bulk discount tiers keyed to total cart item quantity, in basis points.
const (
	bulkTierSmallQty  = 3
	bulkTierMediumQty = 5
	bulkTierLargeQty  = 8

	bulkTierSmallBP  = 500  // 5%
	bulkTierMediumBP = 800  // 8%
	bulkTierLargeBP  = 1200 // 12%
)

// DiscountType identifies how a coupon's value is interpreted
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Line is one frozen cart line entering the engine
type Line struct {
	ProductID uint  `json:"product_id"`
	UnitPrice int64 `json:"unit_price"`
	Quantity  int   `json:"quantity"`
}

// CouponInput is the coupon definition the engine evaluates. A nil
// coupon means no code was supplied.
type CouponInput struct {
	Code          string       `json:"code"`
	DiscountType  DiscountType `json:"discount_type"`
	Value         int64        `json:"value"`
	MinOrderValue int64        `json:"min_order_value"`
	IsActive      bool         `json:"is_active"`
}

// Quote is the itemized pricing breakdown
type Quote struct {
	Subtotal           int64  `json:"subtotal"`
	BulkDiscount       int64  `json:"bulk_discount"`
	CouponCode         string `json:"coupon_code,omitempty"`
	CouponDiscount     int64  `json:"coupon_discount"`
	CouponApplied      bool   `json:"coupon_applied"`
	CouponRejectReason string `json:"coupon_reject_reason,omitempty"`
	PointsRedeemed     int64  `json:"points_redeemed"`
	PointsDiscount     int64  `json:"points_discount"`
	Total              int64  `json:"total"`
}

// Compute prices a cart. requestedPoints is the redemption the caller
// asked for; pointsBalance is the account's current balance. A coupon
// that cannot apply is not an error: pricing proceeds without it and
// the reason is surfaced on the quote.
func Compute(lines []Line, coupon *CouponInput, requestedPoints, pointsBalance int64) Quote {
	q := Quote{}

	totalQty := 0
	for _, line := range lines {
		q.Subtotal += line.UnitPrice * int64(line.Quantity)
		totalQty += line.Quantity
	}

	q.BulkDiscount = roundBasisPoints(q.Subtotal, bulkRateBP(totalQty))
	afterBulk := q.Subtotal - q.BulkDiscount

	afterCoupon := afterBulk
	if coupon != nil {
		q.CouponCode = coupon.Code
		switch {
		case !coupon.IsActive:
			q.CouponRejectReason = "coupon is not active"
		case afterBulk < coupon.MinOrderValue:
			q.CouponRejectReason = "order does not meet coupon minimum"
		default:
			q.CouponDiscount = couponAmount(coupon, afterBulk)
			q.CouponApplied = true
			afterCoupon = afterBulk - q.CouponDiscount
		}
	}

	q.PointsRedeemed = ClampRedemption(requestedPoints, pointsBalance, afterCoupon)
	q.PointsDiscount = q.PointsRedeemed / PointsPerUnit

	q.Total = afterCoupon - q.PointsDiscount
	if q.Total < 0 {
		q.Total = 0
	}

	return q
}

// ClampRedemption reduces a requested point redemption to the largest
// permitted amount: a multiple of RedeemBlockSize, never more than the
// balance, and never worth more than the remaining payable amount.
// Requests below one block yield zero.
func ClampRedemption(requested, balance, remaining int64) int64 {
	points := requested
	if points > balance {
		points = balance
	}
	if maxByValue := remaining * PointsPerUnit; points > maxByValue {
		points = maxByValue
	}
	points -= points % RedeemBlockSize
	if points < RedeemBlockSize {
		return 0
	}
	return points
}

// EarnedPoints returns the points credited for a paid order total.
func EarnedPoints(paidTotal int64) int64 {
	if paidTotal <= 0 {
		return 0
	}
	return paidTotal / EarnDivisor
}

func couponAmount(coupon *CouponInput, base int64) int64 {
	switch coupon.DiscountType {
	case DiscountTypeFixed:
		if coupon.Value > base {
			return base
		}
		return coupon.Value
	default: // percentage
		return roundBasisPoints(base, coupon.Value*100)
	}
}

func bulkRateBP(totalQty int) int64 {
	switch {
	case totalQty >= bulkTierLargeQty:
		return bulkTierLargeBP
	case totalQty >= bulkTierMediumQty:
		return bulkTierMediumBP
	case totalQty >= bulkTierSmallQty:
		return bulkTierSmallBP
	default:
		return 0
	}
}

// roundBasisPoints computes amount*bp/10000 rounded half up.
func roundBasisPoints(amount, bp int64) int64 {
	if amount <= 0 || bp <= 0 {
		return 0
	}
	return (amount*bp + 5000) / 10000
}
