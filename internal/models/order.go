package models

import "time"

// OrderStatusInProcess is assigned to every newly placed order. Status is
// otherwise a free-form string; the others are the values seen in use.
const (
	OrderStatusInProcess = "in process"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Order is a placed order with its line items in insertion order.
type Order struct {
	ID         int64       `json:"id"`
	CreatedAt  time.Time   `json:"created_at"`
	Status     string      `json:"status"`
	OrderItems []OrderItem `json:"order_items"`
}

// OrderItem is one (product, amount) line of an order.
type OrderItem struct {
	ID        int64 `json:"id"`
	OrderID   int64 `json:"-"`
	ProductID int64 `json:"product_id"`
	Amount    int   `json:"amount"`
}

// TotalAmount sums the amounts of all line items.
func (o *Order) TotalAmount() int {
	total := 0
	for _, item := range o.OrderItems {
		total += item.Amount
	}
	return total
}

// OrderItemRequest is one requested line of POST /orders.
type OrderItemRequest struct {
	ProductID int64 `json:"product_id"`
	Amount    int   `json:"amount"`
}

// CreateOrderRequest is the body of POST /orders.
type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items"`
}

// ProductIDs returns the distinct product ids in request order.
func (r *CreateOrderRequest) ProductIDs() []int64 {
	seen := make(map[int64]struct{}, len(r.Items))
	ids := make([]int64, 0, len(r.Items))
	for _, item := range r.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// UpdateOrderStatusRequest is the body of PATCH /orders/:id/status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}
