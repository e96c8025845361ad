package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/models"
)

const (
	insertOrderQuery = `
		INSERT INTO orders (status)
		VALUES ($1)
		RETURNING id, created_at, status`

	insertOrderItemQuery = `
		INSERT INTO order_items (order_id, product_id, amount)
		VALUES ($1, $2, $3)
		RETURNING id`

	listOrdersQuery = `
		SELECT id, created_at, status
		FROM orders
		ORDER BY id
		LIMIT $1 OFFSET $2`

	getOrderQuery = `
		SELECT id, created_at, status
		FROM orders
		WHERE id = $1`

	updateOrderStatusQuery = `
		UPDATE orders
		SET status = $2
		WHERE id = $1
		RETURNING id, created_at, status`

	orderItemsQuery = `
		SELECT id, order_id, product_id, amount
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id`
)

// PostgresOrderRepository implements OrderRepository using PostgreSQL.
type PostgresOrderRepository struct {
	q      querier
	logger *logging.Logger
}

// Create inserts the order row and then each item in order.
func (r *PostgresOrderRepository) Create(ctx context.Context, items []models.OrderItem) (*models.Order, error) {
	r.logger.Debug("Creating order", logging.Fields{"item_count": len(items)})

	order, err := scanOrder(r.q.QueryRowContext(ctx, insertOrderQuery, models.OrderStatusInProcess))
	if err != nil {
		r.logger.Error("Failed to create order", logging.Fields{"error": err.Error()})
		return nil, err
	}

	order.OrderItems = make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		item.OrderID = order.ID
		if err := r.q.QueryRowContext(ctx, insertOrderItemQuery,
			item.OrderID,
			item.ProductID,
			item.Amount,
		).Scan(&item.ID); err != nil {
			r.logger.Error("Failed to create order item", logging.Fields{
				"order_id":   order.ID,
				"product_id": item.ProductID,
				"error":      err.Error(),
			})
			return nil, err
		}
		order.OrderItems = append(order.OrderItems, item)
	}

	r.logger.Info("Order created", logging.Fields{
		"order_id":   order.ID,
		"item_count": len(order.OrderItems),
	})
	return order, nil
}

// List returns one page of orders with their items.
func (r *PostgresOrderRepository) List(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	r.logger.Debug("Listing orders", logging.Fields{
		"limit":  limit,
		"offset": offset,
	})

	rows, err := r.q.QueryContext(ctx, listOrdersQuery, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*models.Order, 0, limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetByID retrieves an order with its items.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	r.logger.Debug("Fetching order by ID", logging.Fields{"order_id": id})

	order, err := scanOrder(r.q.QueryRowContext(ctx, getOrderQuery, id))
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to fetch order", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}

	if err := r.loadItems(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateStatus overwrites the status of an order.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	r.logger.Debug("Updating order status", logging.Fields{
		"order_id":   id,
		"new_status": status,
	})

	order, err := scanOrder(r.q.QueryRowContext(ctx, updateOrderStatusQuery, id, status))
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to update order status", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}

	if err := r.loadItems(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}

	r.logger.Info("Order status updated", logging.Fields{
		"order_id":   id,
		"new_status": status,
	})
	return order, nil
}

// loadItems fills OrderItems for all orders with a single query.
func (r *PostgresOrderRepository) loadItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	byID := make(map[int64]*models.Order, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
		order.OrderItems = make([]models.OrderItem, 0)
		byID[order.ID] = order
	}

	rows, err := r.q.QueryContext(ctx, orderItemsQuery, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Amount); err != nil {
			return err
		}
		if order, ok := byID[item.OrderID]; ok {
			order.OrderItems = append(order.OrderItems, item)
		}
	}
	return rows.Err()
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	if err := row.Scan(&order.ID, &order.CreatedAt, &order.Status); err != nil {
		return nil, err
	}
	return &order, nil
}
