// internal/domain/loyalty/entity.go
package loyalty

import (
	"time"
)

// Tier represents a loyalty membership level
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// Balance thresholds for each tier, in points.
const (
	silverThreshold   = 500
	goldThreshold     = 1000
	platinumThreshold = 2000
)

// EntryKind distinguishes the two ledger entry kinds
type EntryKind string

const (
	EntryKindEarn   EntryKind = "earn"
	EntryKindRedeem EntryKind = "redeem"
)

// Account holds a member's cached point balance. The ledger is the
// source of truth; PointsBalance is the projection of its running sum.
// Accounts are created lazily on first credit.
type Account struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	PointsBalance int64     `gorm:"not null;default:0" json:"points_balance"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LedgerEntry is one immutable point movement. Entries are append-only
// and are never edited or deleted.
type LedgerEntry struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AccountID    uint      `gorm:"not null;index" json:"account_id"`
	Kind         EntryKind `gorm:"not null;size:10" json:"kind"`
	Delta        int64     `gorm:"not null" json:"delta"`
	Description  string    `gorm:"size:255" json:"description"`
	BalanceAfter int64     `gorm:"not null" json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName overrides
func (Account) TableName() string     { return "loyalty_accounts" }
func (LedgerEntry) TableName() string { return "loyalty_ledger_entries" }

// TierFor derives the membership tier from the current point balance.
// Tier is never stored; a large redemption can demote a member.
func TierFor(balance int64) Tier {
	switch {
	case balance >= platinumThreshold:
		return TierPlatinum
	case balance >= goldThreshold:
		return TierGold
	case balance >= silverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

// DisplayDiscountPercent is the tier perk shown to members. It is
// presentation only: the pricing engine does not consume it.
func (t Tier) DisplayDiscountPercent() int {
	switch t {
	case TierPlatinum:
		return 15
	case TierGold:
		return 10
	case TierSilver:
		return 5
	default:
		return 0
	}
}

// Tier returns the account's derived tier
func (a *Account) Tier() Tier {
	return TierFor(a.PointsBalance)
}
