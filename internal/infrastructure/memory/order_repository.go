package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "github.com/keisui/shopcore/internal/domain/order"
	"github.com/keisui/shopcore/internal/domain/txn"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

func (r *OrderRepository) Create(ctx context.Context, tx txn.Txn, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return domain.ErrConflict
	}

	r.orders[order.ID] = order.Clone()

	if tx != nil {
		id := order.ID
		tx.OnAbort(func() error {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.orders, id)
			return nil
		})
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *OrderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o.Clone())
	}
	sortOrders(out)
	return out, nil
}

func (r *OrderRepository) FindByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o.Clone())
		}
	}
	sortOrders(out)
	return out, nil
}

// UpdateStatus is a compare-and-set: the check against the expected prior
// status and the write happen under one critical section, so two racing
// transitions on the same order resolve to one winner.
func (r *OrderRepository) UpdateStatus(ctx context.Context, tx txn.Txn, id string, from, to domain.Status) (*domain.Order, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if order.Status != from {
		return nil, fmt.Errorf("%w: order %s is %s, expected %s", domain.ErrStaleStatus, id, order.Status, from)
	}

	prevStatus, prevUpdated := order.Status, order.UpdatedAt
	order.Status = to
	order.UpdatedAt = time.Now().UTC()

	if tx != nil {
		tx.OnAbort(func() error {
			r.mu.Lock()
			defer r.mu.Unlock()
			if o, ok := r.orders[id]; ok {
				o.Status = prevStatus
				o.UpdatedAt = prevUpdated
			}
			return nil
		})
	}
	return order.Clone(), nil
}

func sortOrders(orders []*domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}
