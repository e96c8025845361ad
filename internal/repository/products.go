package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/models"
)

const (
	insertProductQuery = `
		INSERT INTO products (name, description, price, stock)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, description, price, stock`

	listProductsQuery = `
		SELECT id, name, description, price, stock
		FROM products
		ORDER BY id
		LIMIT $1 OFFSET $2`

	getProductQuery = `
		SELECT id, name, description, price, stock
		FROM products
		WHERE id = $1`

	updateProductQuery = `
		UPDATE products
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    price = COALESCE($4, price),
		    stock = COALESCE($5, stock)
		WHERE id = $1
		RETURNING id, name, description, price, stock`

	deleteProductQuery = `DELETE FROM products WHERE id = $1`

	// Rows are locked in id order so concurrent placements touching the
	// same products cannot deadlock each other.
	lockProductsQuery = `
		SELECT id, name, description, price, stock
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`

	setStockQuery = `UPDATE products SET stock = $2 WHERE id = $1`
)

// PostgresProductRepository implements ProductRepository using PostgreSQL.
type PostgresProductRepository struct {
	q      querier
	logger *logging.Logger
}

// Create inserts a new product.
func (r *PostgresProductRepository) Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	r.logger.Debug("Creating product", logging.Fields{"name": req.Name})

	product, err := scanProduct(r.q.QueryRowContext(ctx, insertProductQuery,
		req.Name,
		req.Description,
		req.Price,
		req.Stock,
	))
	if err != nil {
		r.logger.Error("Failed to create product", logging.Fields{
			"name":  req.Name,
			"error": err.Error(),
		})
		return nil, err
	}

	r.logger.Info("Product created", logging.Fields{
		"product_id": product.ID,
		"stock":      product.Stock,
	})
	return product, nil
}

// List returns one page of products ordered by id.
func (r *PostgresProductRepository) List(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	r.logger.Debug("Listing products", logging.Fields{
		"limit":  limit,
		"offset": offset,
	})

	rows, err := r.q.QueryContext(ctx, listProductsQuery, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]*models.Product, 0, limit)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// GetByID retrieves a product by its identifier.
func (r *PostgresProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	r.logger.Debug("Fetching product by ID", logging.Fields{"product_id": id})

	product, err := scanProduct(r.q.QueryRowContext(ctx, getProductQuery, id))
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to fetch product", logging.Fields{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}
	return product, nil
}

// Update applies the non-nil fields of req.
func (r *PostgresProductRepository) Update(ctx context.Context, id int64, req *models.UpdateProductRequest) (*models.Product, error) {
	r.logger.Debug("Updating product", logging.Fields{"product_id": id})

	product, err := scanProduct(r.q.QueryRowContext(ctx, updateProductQuery,
		id,
		req.Name,
		req.Description,
		req.Price,
		req.Stock,
	))
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to update product", logging.Fields{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}

	r.logger.Info("Product updated", logging.Fields{"product_id": id})
	return product, nil
}

// Delete removes a product. Products referenced by order items cannot be
// deleted and yield ErrConflict.
func (r *PostgresProductRepository) Delete(ctx context.Context, id int64) error {
	r.logger.Debug("Deleting product", logging.Fields{"product_id": id})

	result, err := r.q.ExecContext(ctx, deleteProductQuery, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("product %d is referenced by orders: %w", id, errors.ErrConflict)
		}
		r.logger.Error("Failed to delete product", logging.Fields{
			"product_id": id,
			"error":      err.Error(),
		})
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return errors.ErrNotFound
	}

	r.logger.Info("Product deleted", logging.Fields{"product_id": id})
	return nil
}

// GetByIDsForUpdate fetches and locks the listed products.
func (r *PostgresProductRepository) GetByIDsForUpdate(ctx context.Context, ids []int64) ([]*models.Product, error) {
	r.logger.Debug("Locking products", logging.Fields{"product_ids": ids})

	rows, err := r.q.QueryContext(ctx, lockProductsQuery, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]*models.Product, 0, len(ids))
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// SetStock overwrites the stock of a product.
func (r *PostgresProductRepository) SetStock(ctx context.Context, id int64, stock int) error {
	result, err := r.q.ExecContext(ctx, setStockQuery, id, stock)
	if err != nil {
		r.logger.Error("Failed to set stock", logging.Fields{
			"product_id": id,
			"stock":      stock,
			"error":      err.Error(),
		})
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var product models.Product
	var description sql.NullString

	err := row.Scan(
		&product.ID,
		&product.Name,
		&description,
		&product.Price,
		&product.Stock,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		product.Description = &description.String
	}
	return &product, nil
}
