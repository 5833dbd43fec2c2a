// internal/domain/pricing/engine_test.go
package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBulkTiers(t *testing.T) {
	tests := []struct {
		name     string
		qty      int
		wantRate int64 // expected discount on a 10000 subtotal
	}{
		{"below first tier", 2, 0},
		{"first tier boundary", 3, 500},
		{"second tier boundary", 5, 800},
		{"top tier boundary", 8, 1200},
		{"above top tier", 12, 1200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// keep the subtotal fixed at 10000 while varying quantity
			lines := []Line{
				{ProductID: 1, UnitPrice: 10000, Quantity: 1},
				{ProductID: 2, UnitPrice: 0, Quantity: tt.qty - 1},
			}
			q := Compute(lines, nil, 0, 0)

			assert.Equal(t, int64(10000), q.Subtotal)
			assert.Equal(t, tt.wantRate, q.BulkDiscount)
		})
	}
}

func TestComputeCanonicalScenario(t *testing.T) {
	// subtotal 1000, qty 5 -> 8% bulk -> 920; SAVE10 10% -> 828;
	// redeem 200 points -> 20 off -> 808.
	lines := []Line{{ProductID: 1, UnitPrice: 200, Quantity: 5}}
	coupon := &CouponInput{
		Code:          "SAVE10",
		DiscountType:  DiscountTypePercentage,
		Value:         10,
		MinOrderValue: 0,
		IsActive:      true,
	}

	q := Compute(lines, coupon, 200, 500)

	require.Equal(t, int64(1000), q.Subtotal)
	require.Equal(t, int64(80), q.BulkDiscount)
	require.True(t, q.CouponApplied)
	require.Equal(t, int64(92), q.CouponDiscount)
	require.Equal(t, int64(200), q.PointsRedeemed)
	require.Equal(t, int64(20), q.PointsDiscount)
	require.Equal(t, int64(808), q.Total)

	assert.Equal(t, int64(80), EarnedPoints(q.Total))
}

func TestComputeStackingOrderMatters(t *testing.T) {
	// A fixed coupon applied before the bulk discount would leave a
	// smaller bulk base and a larger total; the fixed order must hold.
	lines := []Line{{ProductID: 1, UnitPrice: 100, Quantity: 10}}
	coupon := &CouponInput{Code: "FLAT200", DiscountType: DiscountTypeFixed, Value: 200, IsActive: true}

	q := Compute(lines, coupon, 0, 0)

	// 1000 - 12% = 880; 880 - 200 = 680.
	require.Equal(t, int64(120), q.BulkDiscount)
	require.Equal(t, int64(200), q.CouponDiscount)
	require.Equal(t, int64(680), q.Total)

	// Coupon-first: 1000 - 200 = 800, minus 12% = 704.
	reversed := int64(800) - roundBasisPoints(800, 1200)
	assert.NotEqual(t, reversed, q.Total)
	assert.Greater(t, reversed, q.Total)
}

func TestComputeCouponRejections(t *testing.T) {
	lines := []Line{{ProductID: 1, UnitPrice: 100, Quantity: 1}}

	inactive := &CouponInput{Code: "OLD", DiscountType: DiscountTypeFixed, Value: 10}
	q := Compute(lines, inactive, 0, 0)
	require.False(t, q.CouponApplied)
	assert.Equal(t, "coupon is not active", q.CouponRejectReason)
	assert.Equal(t, int64(100), q.Total)

	underMin := &CouponInput{Code: "BIG", DiscountType: DiscountTypeFixed, Value: 10, MinOrderValue: 500, IsActive: true}
	q = Compute(lines, underMin, 0, 0)
	require.False(t, q.CouponApplied)
	assert.Equal(t, "order does not meet coupon minimum", q.CouponRejectReason)
}

func TestComputeFixedCouponCappedAtBase(t *testing.T) {
	lines := []Line{{ProductID: 1, UnitPrice: 50, Quantity: 1}}
	coupon := &CouponInput{Code: "FLAT100", DiscountType: DiscountTypeFixed, Value: 100, IsActive: true}

	q := Compute(lines, coupon, 0, 0)

	require.Equal(t, int64(50), q.CouponDiscount)
	assert.Equal(t, int64(0), q.Total)
}

func TestClampRedemption(t *testing.T) {
	tests := []struct {
		name      string
		requested int64
		balance   int64
		remaining int64
		want      int64
	}{
		{"below minimum block", 50, 1000, 1000, 0},
		{"exact block", 100, 1000, 1000, 100},
		{"rounds down to block", 250, 1000, 1000, 200},
		{"clamped by balance", 500, 320, 1000, 300},
		{"clamped by remaining payable", 5000, 5000, 25, 200},
		{"zero request", 0, 1000, 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampRedemption(tt.requested, tt.balance, tt.remaining)
			assert.Equal(t, tt.want, got)
			if got > 0 {
				assert.Zero(t, got%RedeemBlockSize)
				assert.LessOrEqual(t, got, tt.balance)
				assert.LessOrEqual(t, got/PointsPerUnit, tt.remaining)
			}
		})
	}
}

func TestComputeTotalNeverNegative(t *testing.T) {
	lines := []Line{{ProductID: 1, UnitPrice: 10, Quantity: 1}}
	coupon := &CouponInput{Code: "FLAT", DiscountType: DiscountTypeFixed, Value: 10, IsActive: true}

	q := Compute(lines, coupon, 10000, 10000)

	assert.GreaterOrEqual(t, q.Total, int64(0))
	// nothing left to redeem against once the coupon zeroes the base
	assert.Equal(t, int64(0), q.PointsRedeemed)
}

func TestComputeDoesNotMutateInputs(t *testing.T) {
	lines := []Line{{ProductID: 1, UnitPrice: 200, Quantity: 5}}
	coupon := &CouponInput{Code: "SAVE10", DiscountType: DiscountTypePercentage, Value: 10, IsActive: true}

	_ = Compute(lines, coupon, 200, 500)

	assert.Equal(t, Line{ProductID: 1, UnitPrice: 200, Quantity: 5}, lines[0])
	assert.Equal(t, int64(10), coupon.Value)
}
