package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "github.com/keisui/shopcore/internal/domain/catalog"
	"github.com/keisui/shopcore/internal/domain/txn"
)

// ProductRepository is an in-memory product ledger. The mutex makes each
// conditional decrement atomic: the stock check and the subtraction happen
// under one critical section, so concurrent reservations can never drive
// stock negative.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		products: make(map[string]*domain.Product),
	}
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return product.Clone(), nil
}

func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ProductRepository) Save(ctx context.Context, product *domain.Product) error {
	_ = ctx
	if product == nil || product.ID == "" {
		return domain.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[product.ID] = product.Clone()
	return nil
}

// ConditionalDecrement applies "stock -= quantity" only when
// stock >= quantity holds at write time. Rejection means a concurrent
// reservation won the stock between the caller's pre-check and this write.
func (r *ProductRepository) ConditionalDecrement(ctx context.Context, tx txn.Txn, id string, quantity int) (*domain.Product, error) {
	_ = ctx
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if product.Stock < quantity {
		return nil, &domain.InsufficientStockError{ProductID: id, RaceDetected: true}
	}

	product.Stock -= quantity
	product.UpdatedAt = time.Now().UTC()

	if tx != nil {
		tx.OnAbort(func() error {
			return r.adjust(id, quantity)
		})
	}
	return product.Clone(), nil
}

// Increment restores stock unconditionally; there is no stock ceiling.
func (r *ProductRepository) Increment(ctx context.Context, tx txn.Txn, id string, quantity int) (*domain.Product, error) {
	_ = ctx
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	product.Stock += quantity
	product.UpdatedAt = time.Now().UTC()

	if tx != nil {
		tx.OnAbort(func() error {
			return r.adjust(id, -quantity)
		})
	}
	return product.Clone(), nil
}

// adjust is the undo path, reversing a write this repository already
// applied. A negative delta can still lose to a reservation that consumed
// the stock in the meantime; the undo then clamps at zero and reports the
// shortfall rather than letting stock go negative.
func (r *ProductRepository) adjust(id string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return domain.ErrNotFound
	}

	next := product.Stock + delta
	var err error
	if next < 0 {
		err = fmt.Errorf("undo stock adjustment for %s: %d units already consumed", id, -next)
		next = 0
	}
	product.Stock = next
	product.UpdatedAt = time.Now().UTC()
	return err
}
