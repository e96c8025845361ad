package service

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/models"
)

func TestCreateProduct_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   models.CreateProductRequest
		field string
	}{
		{name: "blank name", req: models.CreateProductRequest{Name: "  ", Stock: 1}, field: "name"},
		{name: "negative price", req: models.CreateProductRequest{Name: "x", Price: decimal.NewFromInt(-1)}, field: "price"},
		{name: "negative stock", req: models.CreateProductRequest{Name: "x", Stock: -1}, field: "stock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			_, err := f.products.CreateProduct(context.Background(), &tt.req)

			var verr *errors.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestListProducts_Pagination(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for i := 1; i <= 15; i++ {
		f.createProduct(t, fmt.Sprintf("product-%02d", i), i)
	}

	first := models.Page{Page: 1, Limit: 10}
	products, err := f.products.ListProducts(ctx, first.Limit, first.Offset())
	require.NoError(t, err)
	require.Len(t, products, 10)
	assert.Equal(t, int64(1), products[0].ID)
	assert.Equal(t, int64(10), products[9].ID)

	second := models.Page{Page: 2, Limit: 10}
	products, err = f.products.ListProducts(ctx, second.Limit, second.Offset())
	require.NoError(t, err)
	require.Len(t, products, 5)
	assert.Equal(t, int64(11), products[0].ID)

	third := models.Page{Page: 3, Limit: 10}
	products, err = f.products.ListProducts(ctx, third.Limit, third.Offset())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestGetProduct_Idempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	desc := "blue"
	created, err := f.products.CreateProduct(ctx, &models.CreateProductRequest{
		Name:        "Widget",
		Description: &desc,
		Price:       decimal.RequireFromString("9.99"),
		Stock:       4,
	})
	require.NoError(t, err)

	first, err := f.products.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	second, err := f.products.GetProduct(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, created, first)
	assert.Equal(t, 1, f.cache.hits)

	_, err = f.products.GetProduct(ctx, 77)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestUpdateProduct_Partial(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.createProduct(t, "Widget", 5)
	_, err := f.products.GetProduct(ctx, p.ID)
	require.NoError(t, err)

	stock := 20
	updated, err := f.products.UpdateProduct(ctx, p.ID, &models.UpdateProductRequest{Stock: &stock})
	require.NoError(t, err)

	assert.Equal(t, "Widget", updated.Name)
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 20, updated.Stock)
	assert.NotContains(t, f.cache.products, p.ID)

	got, err := f.products.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.Stock)
}

func TestUpdateProduct_EmptyKeepsProductAndCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.createProduct(t, "Widget", 5)
	_, err := f.products.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Contains(t, f.cache.products, p.ID)

	got, err := f.products.UpdateProduct(ctx, p.ID, &models.UpdateProductRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)
	assert.Equal(t, 5, got.Stock)
	assert.Contains(t, f.cache.products, p.ID)

	_, err = f.products.UpdateProduct(ctx, 99, &models.UpdateProductRequest{})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestUpdateProduct_Errors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	name := "x"
	_, err := f.products.UpdateProduct(ctx, 5, &models.UpdateProductRequest{Name: &name})
	assert.ErrorIs(t, err, errors.ErrNotFound)

	f.createProduct(t, "Widget", 5)
	negative := -3
	_, err = f.products.UpdateProduct(ctx, 1, &models.UpdateProductRequest{Stock: &negative})
	var verr *errors.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, 5, f.stock(t, 1))
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	free := f.createProduct(t, "free", 1)
	ordered := f.createProduct(t, "ordered", 1)
	_, err := f.orders.PlaceOrder(ctx, order(item(ordered.ID, 1)))
	require.NoError(t, err)

	require.NoError(t, f.products.DeleteProduct(ctx, free.ID))
	_, err = f.products.GetProduct(ctx, free.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	assert.ErrorIs(t, f.products.DeleteProduct(ctx, free.ID), errors.ErrNotFound)
	assert.ErrorIs(t, f.products.DeleteProduct(ctx, ordered.ID), errors.ErrConflict)
}

func TestValidatePage(t *testing.T) {
	tests := []struct {
		name      string
		page      models.Page
		wantErr   bool
		wantLimit int
	}{
		{name: "defaults", page: models.Page{Page: models.DefaultPage, Limit: models.DefaultLimit}, wantLimit: 10},
		{name: "zero page", page: models.Page{Page: 0, Limit: 10}, wantErr: true},
		{name: "zero limit", page: models.Page{Page: 1, Limit: 0}, wantErr: true},
		{name: "clamped", page: models.Page{Page: 1, Limit: 1000}, wantLimit: models.MaxLimit},
		{name: "offset overflow", page: models.Page{Page: math.MaxInt/2 + 2, Limit: 2}, wantErr: true},
		{name: "largest page for limit", page: models.Page{Page: math.MaxInt / models.MaxLimit, Limit: models.MaxLimit}, wantLimit: models.MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.page
			err := ValidatePage(&p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, p.Limit)
		})
	}
}
