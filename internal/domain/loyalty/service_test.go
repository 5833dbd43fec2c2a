// internal/domain/loyalty/service_test.go
package loyalty

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:loyalty_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Account{}, &LedgerEntry{}))
	return db
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		balance int64
		want    Tier
	}{
		{0, TierBronze},
		{499, TierBronze},
		{500, TierSilver},
		{999, TierSilver},
		{1000, TierGold},
		{1999, TierGold},
		{2000, TierPlatinum},
		{100000, TierPlatinum},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.balance), "balance %d", tt.balance)
	}
}

func TestTierMonotonicInBalance(t *testing.T) {
	rank := map[Tier]int{TierBronze: 0, TierSilver: 1, TierGold: 2, TierPlatinum: 3}

	prev := TierFor(0)
	for balance := int64(0); balance <= 2500; balance += 25 {
		tier := TierFor(balance)
		assert.GreaterOrEqual(t, rank[tier], rank[prev], "tier regressed at balance %d", balance)
		prev = tier
	}
}

func TestEarnCreatesAccountLazily(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)

	summary, err := svc.GetAccount(7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.PointsBalance)
	assert.Equal(t, TierBronze, summary.Tier)

	var count int64
	db.Model(&Account{}).Count(&count)
	assert.Equal(t, int64(0), count, "reading must not create an account")

	entry, err := svc.Earn(7, 80, "order ORD-1")
	require.NoError(t, err)
	assert.Equal(t, int64(80), entry.Delta)
	assert.Equal(t, int64(80), entry.BalanceAfter)
	assert.Equal(t, EntryKindEarn, entry.Kind)

	db.Model(&Account{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestBalanceEqualsSumOfDeltas(t *testing.T) {
	svc := NewService(newTestDB(t), nil)

	_, err := svc.Earn(1, 600, "order A")
	require.NoError(t, err)
	_, err = svc.Earn(1, 700, "order B")
	require.NoError(t, err)
	_, err = svc.Redeem(1, 300, "checkout redemption")
	require.NoError(t, err)

	entries, err := svc.GetLedger(1, 50)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	var sum int64
	for _, e := range entries {
		sum += e.Delta
	}

	summary, err := svc.GetAccount(1)
	require.NoError(t, err)
	assert.Equal(t, sum, summary.PointsBalance)
	assert.Equal(t, int64(1000), summary.PointsBalance)

	// newest first; each balance_after reflects the running sum
	assert.Equal(t, int64(1000), entries[0].BalanceAfter)
	assert.Equal(t, int64(1300), entries[1].BalanceAfter)
	assert.Equal(t, int64(600), entries[2].BalanceAfter)
}

func TestRedeemRejectedWhenBalanceWouldGoNegative(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)

	_, err := svc.Earn(2, 100, "order A")
	require.NoError(t, err)

	_, err = svc.Redeem(2, 200, "too much")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// no entry written, balance untouched
	entries, err := svc.GetLedger(2, 50)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	balance, err := svc.Balance(2)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}

func TestRedeemWithoutAccountRejected(t *testing.T) {
	svc := NewService(newTestDB(t), nil)

	_, err := svc.Redeem(99, 100, "no account")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestRedemptionCanDemoteTier(t *testing.T) {
	svc := NewService(newTestDB(t), nil)

	_, err := svc.Earn(3, 1200, "big order")
	require.NoError(t, err)

	summary, err := svc.GetAccount(3)
	require.NoError(t, err)
	require.Equal(t, TierGold, summary.Tier)
	assert.Equal(t, 10, summary.DisplayDiscountPercent)

	_, err = svc.Redeem(3, 800, "checkout redemption")
	require.NoError(t, err)

	summary, err = svc.GetAccount(3)
	require.NoError(t, err)
	assert.Equal(t, TierBronze, summary.Tier)
	assert.Equal(t, 0, summary.DisplayDiscountPercent)
}

func TestInvalidAmounts(t *testing.T) {
	svc := NewService(newTestDB(t), nil)

	_, err := svc.Earn(4, 0, "zero")
	assert.Error(t, err)
	_, err = svc.Earn(4, -10, "negative")
	assert.Error(t, err)
	_, err = svc.Redeem(4, 0, "zero")
	assert.Error(t, err)
}
