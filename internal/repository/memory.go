package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/models"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store used by tests and local runs without
// Postgres. WithinTx holds a single lock for the whole transaction and
// restores a snapshot on error, which gives it serializable semantics.
type MemoryStore struct {
	mu    *sync.Mutex
	state *memState
	inTx  bool

	// FailCreateOrder, when set, is returned by Orders().Create after the
	// stock writes of a placement have been applied.
	FailCreateOrder error
}

type memState struct {
	products   map[int64]models.Product
	orders     map[int64]models.Order
	productSeq int64
	orderSeq   int64
	itemSeq    int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu: &sync.Mutex{},
		state: &memState{
			products: make(map[int64]models.Product),
			orders:   make(map[int64]models.Order),
		},
	}
}

func (s *MemoryStore) Products() ProductRepository { return &memProducts{s: s} }

func (s *MemoryStore) Orders() OrderRepository { return &memOrders{s: s} }

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	tx := &MemoryStore{mu: s.mu, state: s.state, inTx: true, FailCreateOrder: s.FailCreateOrder}

	if err := fn(tx); err != nil {
		*s.state = *snapshot
		return err
	}
	return nil
}

// lock takes the store mutex unless the caller is already inside WithinTx.
func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (st *memState) clone() *memState {
	c := &memState{
		products:   make(map[int64]models.Product, len(st.products)),
		orders:     make(map[int64]models.Order, len(st.orders)),
		productSeq: st.productSeq,
		orderSeq:   st.orderSeq,
		itemSeq:    st.itemSeq,
	}
	for id, p := range st.products {
		c.products[id] = p
	}
	for id, o := range st.orders {
		o.OrderItems = slices.Clone(o.OrderItems)
		c.orders[id] = o
	}
	return c
}

func (st *memState) referenced(productID int64) bool {
	for _, o := range st.orders {
		for _, item := range o.OrderItems {
			if item.ProductID == productID {
				return true
			}
		}
	}
	return false
}

func copyProduct(p models.Product) *models.Product {
	if p.Description != nil {
		desc := *p.Description
		p.Description = &desc
	}
	return &p
}

func copyOrder(o models.Order) *models.Order {
	o.OrderItems = slices.Clone(o.OrderItems)
	if o.OrderItems == nil {
		o.OrderItems = []models.OrderItem{}
	}
	return &o
}

func sortedKeys[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func page(ids []int64, limit, offset int) []int64 {
	if offset >= len(ids) {
		return nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	return ids[offset:end]
}

type memProducts struct{ s *MemoryStore }

func (r *memProducts) Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	defer r.s.lock()()

	r.s.state.productSeq++
	p := models.Product{
		ID:          r.s.state.productSeq,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}
	r.s.state.products[p.ID] = *copyProduct(p)
	return copyProduct(p), nil
}

func (r *memProducts) List(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	defer r.s.lock()()

	ids := page(sortedKeys(r.s.state.products), limit, offset)
	products := make([]*models.Product, 0, len(ids))
	for _, id := range ids {
		products = append(products, copyProduct(r.s.state.products[id]))
	}
	return products, nil
}

func (r *memProducts) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	defer r.s.lock()()

	p, ok := r.s.state.products[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return copyProduct(p), nil
}

func (r *memProducts) Update(ctx context.Context, id int64, req *models.UpdateProductRequest) (*models.Product, error) {
	defer r.s.lock()()

	p, ok := r.s.state.products[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	req.Apply(&p)
	r.s.state.products[id] = *copyProduct(p)
	return copyProduct(p), nil
}

func (r *memProducts) Delete(ctx context.Context, id int64) error {
	defer r.s.lock()()

	if _, ok := r.s.state.products[id]; !ok {
		return errors.ErrNotFound
	}
	if r.s.state.referenced(id) {
		return fmt.Errorf("product %d is referenced by orders: %w", id, errors.ErrConflict)
	}
	delete(r.s.state.products, id)
	return nil
}

func (r *memProducts) GetByIDsForUpdate(ctx context.Context, ids []int64) ([]*models.Product, error) {
	defer r.s.lock()()

	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	products := make([]*models.Product, 0, len(sorted))
	for _, id := range sorted {
		if p, ok := r.s.state.products[id]; ok {
			products = append(products, copyProduct(p))
		}
	}
	return products, nil
}

func (r *memProducts) SetStock(ctx context.Context, id int64, stock int) error {
	defer r.s.lock()()

	p, ok := r.s.state.products[id]
	if !ok {
		return errors.ErrNotFound
	}
	if stock < 0 {
		return fmt.Errorf("product %d: stock cannot be negative", id)
	}
	p.Stock = stock
	r.s.state.products[id] = p
	return nil
}

type memOrders struct{ s *MemoryStore }

func (r *memOrders) Create(ctx context.Context, items []models.OrderItem) (*models.Order, error) {
	defer r.s.lock()()

	if r.s.FailCreateOrder != nil {
		return nil, r.s.FailCreateOrder
	}

	r.s.state.orderSeq++
	o := models.Order{
		ID:         r.s.state.orderSeq,
		CreatedAt:  time.Now().UTC(),
		Status:     models.OrderStatusInProcess,
		OrderItems: make([]models.OrderItem, 0, len(items)),
	}
	for _, item := range items {
		if _, ok := r.s.state.products[item.ProductID]; !ok {
			return nil, fmt.Errorf("order item references missing product %d", item.ProductID)
		}
		r.s.state.itemSeq++
		item.ID = r.s.state.itemSeq
		item.OrderID = o.ID
		o.OrderItems = append(o.OrderItems, item)
	}

	r.s.state.orders[o.ID] = *copyOrder(o)
	return copyOrder(o), nil
}

func (r *memOrders) List(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	defer r.s.lock()()

	ids := page(sortedKeys(r.s.state.orders), limit, offset)
	orders := make([]*models.Order, 0, len(ids))
	for _, id := range ids {
		orders = append(orders, copyOrder(r.s.state.orders[id]))
	}
	return orders, nil
}

func (r *memOrders) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	defer r.s.lock()()

	o, ok := r.s.state.orders[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return copyOrder(o), nil
}

func (r *memOrders) UpdateStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	defer r.s.lock()()

	o, ok := r.s.state.orders[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	o.Status = status
	r.s.state.orders[id] = o
	return copyOrder(o), nil
}
