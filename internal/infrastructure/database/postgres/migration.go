// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/loyalty"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/returns"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	logrus.Info("Running database auto-migrations")

	// Dependency order: base tables first
	models := []interface{}{
		&user.User{},
		&product.Product{},
		&coupon.Coupon{},
		&loyalty.Account{},
		&loyalty.LedgerEntry{},
		&cart.CartItem{},
		&order.Order{},
		&order.Item{},
		&order.StatusHistory{},
		&returns.ReturnRequest{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	logrus.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",

		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_active ON products(is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		// Cart indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_items_user_product ON cart_items(user_id, product_id)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_order_number ON orders(order_number)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at DESC)",

		// Coupon indexes
		"CREATE INDEX IF NOT EXISTS idx_coupons_active ON coupons(is_active)",

		// Loyalty indexes
		"CREATE INDEX IF NOT EXISTS idx_loyalty_ledger_account_created ON loyalty_ledger_entries(account_id, created_at DESC)",

		// Return indexes
		"CREATE INDEX IF NOT EXISTS idx_return_requests_user ON return_requests(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_return_requests_order ON return_requests(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_return_requests_status ON return_requests(status)",
	}

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			logrus.WithError(err).Warn("Failed to create index")
		}
	}

	logrus.Info("Database indexes ensured")
	return nil
}

// SeedInitialData inserts initial data into the database
func (m *Migration) SeedInitialData() error {
	logrus.Info("Seeding initial data")

	if err := m.seedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	if err := m.seedCoupons(); err != nil {
		return fmt.Errorf("failed to seed coupons: %w", err)
	}

	logrus.Info("Initial data seeded")
	return nil
}

func (m *Migration) seedAdminUser() error {
	var existing user.User
	result := m.db.Where("email = ?", "admin@example.com").First(&existing)
	if result.Error == nil {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("Admin#2024!"), 10)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	adminUser := user.User{
		Email:     "admin@example.com",
		Password:  string(hashedPassword),
		FirstName: "Admin",
		LastName:  "User",
		IsActive:  true,
		IsAdmin:   true,
	}

	if err := m.db.Create(&adminUser).Error; err != nil {
		return err
	}
	logrus.Info("Created admin user")
	return nil
}

func (m *Migration) seedProducts() error {
	products := []product.Product{
		{SKU: "WIDGET-STD", Name: "Standard Widget", Description: "Everyday widget", Price: 49900, Stock: 120, IsActive: true},
		{SKU: "WIDGET-PRO", Name: "Pro Widget", Description: "Heavy duty widget", Price: 129900, Stock: 60, IsActive: true},
		{SKU: "GADGET-MINI", Name: "Mini Gadget", Description: "Pocket sized gadget", Price: 19900, Stock: 200, IsActive: true},
		{SKU: "GADGET-MAX", Name: "Max Gadget", Description: "Full size gadget", Price: 249900, Stock: 25, IsActive: true},
	}

	for _, p := range products {
		var existing product.Product
		if err := m.db.Where("sku = ?", p.SKU).First(&existing).Error; err == nil {
			continue
		}
		if err := m.db.Create(&p).Error; err != nil {
			return err
		}
	}
	return nil
}

func (m *Migration) seedCoupons() error {
	coupons := []coupon.Coupon{
		{Code: "SAVE10", DiscountType: pricing.DiscountTypePercentage, Value: 10, MinOrderValue: 0, UsageLimit: 1000, IsActive: true},
		{Code: "FLAT500", DiscountType: pricing.DiscountTypeFixed, Value: 50000, MinOrderValue: 299900, UsageLimit: 500, IsActive: true},
		{Code: "WELCOME20", DiscountType: pricing.DiscountTypePercentage, Value: 20, MinOrderValue: 99900, UsageLimit: 200, IsActive: true},
	}

	for _, c := range coupons {
		var existing coupon.Coupon
		if err := m.db.Where("code = ?", c.Code).First(&existing).Error; err == nil {
			continue
		}
		if err := m.db.Create(&c).Error; err != nil {
			return err
		}
	}
	return nil
}
