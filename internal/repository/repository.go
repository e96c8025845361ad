package repository

import (
	"context"
	"database/sql"

	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/models"
)

// Ensure the Postgres implementations satisfy the interfaces.
var (
	_ Store             = (*PostgresStore)(nil)
	_ ProductRepository = (*PostgresProductRepository)(nil)
	_ OrderRepository   = (*PostgresOrderRepository)(nil)
	_ Cache             = (*RedisCache)(nil)
)

// ProductRepository is the catalog store.
type ProductRepository interface {
	Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	List(ctx context.Context, limit, offset int) ([]*models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	Update(ctx context.Context, id int64, req *models.UpdateProductRequest) (*models.Product, error)
	Delete(ctx context.Context, id int64) error

	// GetByIDsForUpdate fetches every listed product in one query and locks
	// the rows until the surrounding transaction ends. Missing ids are simply
	// absent from the result.
	GetByIDsForUpdate(ctx context.Context, ids []int64) ([]*models.Product, error)

	// SetStock overwrites the stock of one product.
	SetStock(ctx context.Context, id int64, stock int) error
}

// OrderRepository is the order store.
type OrderRepository interface {
	// Create inserts an order with all of its items. Call it inside
	// Store.WithinTx so the order and its items land together.
	Create(ctx context.Context, items []models.OrderItem) (*models.Order, error)
	List(ctx context.Context, limit, offset int) ([]*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*models.Order, error)
}

// Store groups the repositories that share one connection or transaction.
type Store interface {
	Products() ProductRepository
	Orders() OrderRepository

	// WithinTx runs fn against a store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	// Calling WithinTx on a transaction-bound store reuses the transaction.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// Cache holds read-through copies of single products and orders.
type Cache interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	SetProduct(ctx context.Context, product *models.Product) error
	DeleteProducts(ctx context.Context, ids ...int64) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	SetOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, id int64) error
}

// querier is the subset of *sql.DB and *sql.Tx the repositories use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
