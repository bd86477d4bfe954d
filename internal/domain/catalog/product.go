package catalog

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound          = errors.New("catalog: product not found")
	ErrInvalidName       = errors.New("catalog: name is required")
	ErrInvalidPrice      = errors.New("catalog: price must be zero or greater")
	ErrInvalidQuantity   = errors.New("catalog: quantity must be greater than zero")
	ErrInvalidStock      = errors.New("catalog: stock must be zero or greater")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
)

// InsufficientStockError identifies the product that could not be reserved.
// RaceDetected marks the case where the pre-check passed but the conditional
// decrement was rejected because a concurrent reservation consumed the stock.
type InsufficientStockError struct {
	ProductID    string
	RaceDetected bool
}

func (e *InsufficientStockError) Error() string {
	if e.RaceDetected {
		return fmt.Sprintf("catalog: insufficient stock for product %s (lost race)", e.ProductID)
	}
	return fmt.Sprintf("catalog: insufficient stock for product %s", e.ProductID)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Product is a catalog entry with a unit price in minor currency units and
// the currently available stock. Stock is mutated only through conditional
// decrements (reservation) and increments (cancellation restore).
type Product struct {
	ID        string
	Name      string
	Price     int64
	Stock     int
	UpdatedAt time.Time
}

func NewProduct(id, name string, price int64, stock int) (*Product, error) {
	if price < 0 {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}
	return &Product{
		ID:        id,
		Name:      name,
		Price:     price,
		Stock:     stock,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
