// internal/domain/loyalty/service.go
package loyalty

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/config"
)

// ErrInsufficientBalance is returned when a redemption would drive the
// account balance negative. No ledger entry is written in that case.
var ErrInsufficientBalance = errors.New("insufficient point balance")

// Service maintains the loyalty ledger and its balance projection
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new loyalty service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// AccountSummary is the member-facing view of an account
type AccountSummary struct {
	UserID                 uint  `json:"user_id"`
	PointsBalance          int64 `json:"points_balance"`
	Tier                   Tier  `json:"tier"`
	DisplayDiscountPercent int   `json:"tier_discount_percent"`
}

// Earn appends a positive ledger entry and updates the balance
// projection in the same transaction. The account is created on first
// credit.
func (s *Service) Earn(userID uint, points int64, description string) (*LedgerEntry, error) {
	if points <= 0 {
		return nil, fmt.Errorf("earn amount must be positive, got %d", points)
	}

	var entry *LedgerEntry
	err := s.db.Transaction(func(tx *gorm.DB) error {
		account, err := s.lockAccount(tx, userID, true)
		if err != nil {
			return err
		}

		// Single-statement increment so concurrent earns for the same
		// account serialize on the row instead of losing an update.
		if err := tx.Model(&Account{}).
			Where("id = ?", account.ID).
			UpdateColumn("points_balance", gorm.Expr("points_balance + ?", points)).Error; err != nil {
			return fmt.Errorf("failed to credit balance: %w", err)
		}

		entry, err = s.appendEntry(tx, account.ID, EntryKindEarn, points, description)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Redeem appends a negative ledger entry. The balance check and the
// decrement are one conditional update, so a redemption racing an earn
// or another redemption can never take the balance below zero.
func (s *Service) Redeem(userID uint, points int64, description string) (*LedgerEntry, error) {
	if points <= 0 {
		return nil, fmt.Errorf("redeem amount must be positive, got %d", points)
	}

	var entry *LedgerEntry
	err := s.db.Transaction(func(tx *gorm.DB) error {
		account, err := s.lockAccount(tx, userID, false)
		if err != nil {
			return err
		}

		result := tx.Model(&Account{}).
			Where("id = ? AND points_balance >= ?", account.ID, points).
			UpdateColumn("points_balance", gorm.Expr("points_balance - ?", points))
		if result.Error != nil {
			return fmt.Errorf("failed to debit balance: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		entry, err = s.appendEntry(tx, account.ID, EntryKindRedeem, -points, description)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetAccount returns the member's account summary. Members without an
// account row (nothing earned yet) see a zero-balance bronze summary.
func (s *Service) GetAccount(userID uint) (*AccountSummary, error) {
	var account Account
	err := s.db.Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tier := TierFor(0)
			return &AccountSummary{
				UserID:                 userID,
				Tier:                   tier,
				DisplayDiscountPercent: tier.DisplayDiscountPercent(),
			}, nil
		}
		return nil, fmt.Errorf("failed to load loyalty account: %w", err)
	}

	tier := account.Tier()
	return &AccountSummary{
		UserID:                 userID,
		PointsBalance:          account.PointsBalance,
		Tier:                   tier,
		DisplayDiscountPercent: tier.DisplayDiscountPercent(),
	}, nil
}

// Balance returns the current point balance for pricing; zero when no
// account exists yet.
func (s *Service) Balance(userID uint) (int64, error) {
	summary, err := s.GetAccount(userID)
	if err != nil {
		return 0, err
	}
	return summary.PointsBalance, nil
}

// GetLedger returns the account's ledger entries, newest first
func (s *Service) GetLedger(userID uint, limit int) ([]LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var account Account
	err := s.db.Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []LedgerEntry{}, nil
		}
		return nil, fmt.Errorf("failed to load loyalty account: %w", err)
	}

	var entries []LedgerEntry
	if err := s.db.Where("account_id = ?", account.ID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	return entries, nil
}

// lockAccount loads the account row inside the transaction, creating it
// when createIfMissing is set (lazy creation on first credit).
func (s *Service) lockAccount(tx *gorm.DB, userID uint, createIfMissing bool) (*Account, error) {
	var account Account
	err := tx.Where("user_id = ?", userID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if !createIfMissing {
			return nil, ErrInsufficientBalance
		}
		account = Account{UserID: userID}
		if err := tx.Create(&account).Error; err != nil {
			return nil, fmt.Errorf("failed to create loyalty account: %w", err)
		}
		return &account, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load loyalty account: %w", err)
	}
	return &account, nil
}

// appendEntry reads the post-update balance and writes the immutable
// ledger entry with the denormalized balance_after for audit display.
func (s *Service) appendEntry(tx *gorm.DB, accountID uint, kind EntryKind, delta int64, description string) (*LedgerEntry, error) {
	var account Account
	if err := tx.First(&account, accountID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload account: %w", err)
	}

	entry := &LedgerEntry{
		AccountID:    accountID,
		Kind:         kind,
		Delta:        delta,
		Description:  description,
		BalanceAfter: account.PointsBalance,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return entry, nil
}
