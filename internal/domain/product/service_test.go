// internal/domain/product/service_test.go
package product

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := "file:product_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Product{}))
	return NewService(db, nil)
}

func seedProduct(t *testing.T, svc *Service, sku string, price int64, stock int) *Product {
	t.Helper()
	p, err := svc.CreateProduct(&ProductCreateRequest{
		SKU:      sku,
		Name:     "Product " + sku,
		Price:    price,
		Stock:    stock,
		IsActive: true,
	})
	require.NoError(t, err)
	return p
}

func TestCreateProductRejectsDuplicateSKU(t *testing.T) {
	svc := newTestService(t)
	seedProduct(t, svc, "SKU-1", 1000, 5)

	_, err := svc.CreateProduct(&ProductCreateRequest{SKU: "SKU-1", Name: "dup", Price: 500})
	assert.ErrorContains(t, err, "already exists")
}

func TestDecrementStock(t *testing.T) {
	svc := newTestService(t)
	p := seedProduct(t, svc, "SKU-1", 1000, 5)

	require.NoError(t, svc.DecrementStock(p.ID, 3))

	got, err := svc.GetProduct(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)

	// cannot go below zero
	err = svc.DecrementStock(p.ID, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	got, err = svc.GetProduct(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
}

func TestDecrementStockExactlyToZero(t *testing.T) {
	svc := newTestService(t)
	p := seedProduct(t, svc, "SKU-1", 1000, 4)

	require.NoError(t, svc.DecrementStock(p.ID, 4))

	got, err := svc.GetProduct(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
	assert.False(t, got.IsInStock())
}

func TestDecrementStockUnknownProduct(t *testing.T) {
	svc := newTestService(t)
	err := svc.DecrementStock(9999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRestoreStock(t *testing.T) {
	svc := newTestService(t)
	p := seedProduct(t, svc, "SKU-1", 1000, 2)

	require.NoError(t, svc.RestoreStock(p.ID, 3))

	got, err := svc.GetProduct(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
}

func TestUpdateProductPartial(t *testing.T) {
	svc := newTestService(t)
	p := seedProduct(t, svc, "SKU-1", 1000, 5)

	newPrice := int64(1500)
	got, err := svc.UpdateProduct(p.ID, &ProductUpdateRequest{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), got.Price)
	assert.Equal(t, "Product SKU-1", got.Name)
	assert.Equal(t, 5, got.Stock)
}

func TestGetProductsPagination(t *testing.T) {
	svc := newTestService(t)
	for i := 0; i < 5; i++ {
		seedProduct(t, svc, "SKU-"+uuid.NewString()[:8], 1000, 1)
	}

	resp, err := svc.GetProducts(&ProductListRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Products, 2)
	assert.Equal(t, int64(5), resp.Pagination.Total)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.True(t, resp.Pagination.HasNext)
	assert.False(t, resp.Pagination.HasPrev)
}
