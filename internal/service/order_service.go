package service

import (
	"context"
	"slices"
	"strings"

	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/repository"
)

// EventPublisher receives order lifecycle notifications after commit.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus string) error
}

// OrderService handles order business logic. Cache and publisher are
// optional; nil disables them.
type OrderService struct {
	store     repository.Store
	cache     repository.Cache
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	store repository.Store,
	cache repository.Cache,
	publisher EventPublisher,
	m *metrics.Metrics,
) *OrderService {
	return &OrderService{
		store:     store,
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		logger:    logging.New("order-service"),
	}
}

// PlaceOrder validates every requested line against one locked snapshot of
// the products, then decrements stock and stores the order in the same
// transaction. Lines are checked in request order and the first failing line
// decides the error. Nothing is written unless every line passes.
func (s *OrderService) PlaceOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	s.logger.Info("Placing order", logging.Fields{"item_count": len(req.Items)})

	if err := ValidateCreateOrderRequest(req); err != nil {
		s.metrics.OrderFailed(metrics.ReasonValidation)
		return nil, err
	}

	var (
		order   *models.Order
		touched []int64
	)

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		products, err := tx.Products().GetByIDsForUpdate(ctx, req.ProductIDs())
		if err != nil {
			return &errors.StoreError{Op: "lock products", Err: err}
		}

		remaining := make(map[int64]int, len(products))
		for _, p := range products {
			remaining[p.ID] = p.Stock
		}

		items := make([]models.OrderItem, 0, len(req.Items))
		for _, item := range req.Items {
			available, ok := remaining[item.ProductID]
			if !ok {
				return &errors.ProductNotFoundError{ProductID: item.ProductID}
			}
			if available < item.Amount {
				return &errors.InsufficientStockError{
					ProductID: item.ProductID,
					Available: available,
					Requested: item.Amount,
				}
			}
			remaining[item.ProductID] = available - item.Amount
			items = append(items, models.OrderItem{
				ProductID: item.ProductID,
				Amount:    item.Amount,
			})
		}

		// Same order as the row locks.
		touched = make([]int64, 0, len(remaining))
		for id := range remaining {
			touched = append(touched, id)
		}
		slices.Sort(touched)

		catalog := tx.Products()
		for _, id := range touched {
			if err := catalog.SetStock(ctx, id, remaining[id]); err != nil {
				return &errors.StoreError{Op: "set stock", Err: err}
			}
		}

		order, err = tx.Orders().Create(ctx, items)
		if err != nil {
			return &errors.StoreError{Op: "create order", Err: err}
		}
		return nil
	})
	if err != nil {
		s.metrics.OrderFailed(failureReason(err))
		s.logger.Warn("Order rejected", logging.Fields{"error": err.Error()})
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.DeleteProducts(ctx, touched...); err != nil {
			s.logger.Error("Failed to invalidate cached products", logging.Fields{
				"product_ids": touched,
				"error":       err.Error(),
			})
		}
		if err := s.cache.SetOrder(ctx, order); err != nil {
			s.logger.Error("Failed to cache order", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	if s.publisher != nil {
		err := s.publisher.PublishOrderCreated(ctx, order)
		s.metrics.EventPublished("order.created", err)
		if err != nil {
			// Log but don't fail
			s.logger.Error("Failed to publish order created event", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	s.metrics.OrderPlaced(order.TotalAmount())
	s.logger.Info("Order placed", logging.Fields{
		"order_id":   order.ID,
		"item_count": len(order.OrderItems),
	})

	return order, nil
}

// ListOrders returns one page of orders.
func (s *OrderService) ListOrders(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	s.logger.Debug("Listing orders", logging.Fields{
		"limit":  limit,
		"offset": offset,
	})
	return s.store.Orders().List(ctx, limit, offset)
}

// GetOrder retrieves an order by ID.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	s.logger.Debug("Getting order", logging.Fields{"order_id": id})

	if s.cache != nil {
		order, err := s.cache.GetOrder(ctx, id)
		if err == nil && order != nil {
			return order, nil
		}
	}

	order, err := s.store.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetOrder(ctx, order); err != nil {
			s.logger.Warn("Failed to cache order", logging.Fields{
				"order_id": id,
				"error":    err.Error(),
			})
		}
	}

	return order, nil
}

// UpdateOrderStatus overwrites the status of an order. There is no transition
// check; any non-empty status is stored.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	s.logger.Info("Updating order status", logging.Fields{
		"order_id":   id,
		"new_status": status,
	})

	if err := ValidateUpdateOrderStatusRequest(&models.UpdateOrderStatusRequest{Status: status}); err != nil {
		return nil, err
	}
	status = strings.TrimSpace(status)

	var (
		order          *models.Order
		previousStatus string
	)

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		previousStatus = current.Status

		order, err = tx.Orders().UpdateStatus(ctx, id, status)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.DeleteOrder(ctx, id); err != nil {
			s.logger.Error("Failed to invalidate cached order", logging.Fields{
				"order_id": id,
				"error":    err.Error(),
			})
		}
	}

	if s.publisher != nil {
		err := s.publisher.PublishOrderStatusChanged(ctx, order, previousStatus)
		s.metrics.EventPublished("order.status_changed", err)
		if err != nil {
			s.logger.Error("Failed to publish order status changed event", logging.Fields{
				"order_id": id,
				"error":    err.Error(),
			})
		}
	}

	s.metrics.StatusChanged(order.Status)
	s.logger.Info("Order status updated", logging.Fields{
		"order_id":        id,
		"previous_status": previousStatus,
		"new_status":      order.Status,
	})

	return order, nil
}

func failureReason(err error) string {
	var (
		notFound     *errors.ProductNotFoundError
		insufficient *errors.InsufficientStockError
		validation   *errors.ValidationError
	)

	switch {
	case errors.As(err, &notFound):
		return metrics.ReasonProductNotFound
	case errors.As(err, &insufficient):
		return metrics.ReasonInsufficientStock
	case errors.As(err, &validation):
		return metrics.ReasonValidation
	default:
		return metrics.ReasonStore
	}
}
