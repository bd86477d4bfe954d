package order

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound          = errors.New("order: not found")
	ErrConflict          = errors.New("order: already exists")
	ErrInvalidInput      = errors.New("order: invalid input")
	ErrForbidden         = errors.New("order: forbidden")
	ErrInvalidTransition = errors.New("order: invalid state transition")
	// ErrStaleStatus signals a lost status compare-and-set: the order moved
	// to another status between the caller's read and its write. Callers
	// re-load and re-drive the state machine instead of surfacing it.
	ErrStaleStatus = errors.New("order: status changed concurrently")
)

var (
	// ErrEmptyItems rejects an order with nothing to reserve.
	ErrEmptyItems = fmt.Errorf("%w: at least one item is required", ErrInvalidInput)
	// ErrInvalidQuantity rejects non-positive line quantities.
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be greater than zero", ErrInvalidInput)
	// ErrNotOwner rejects mutations by an actor that neither owns the order
	// nor holds the admin role.
	ErrNotOwner = fmt.Errorf("%w: not your order", ErrForbidden)
	// ErrPaidOrder rejects cancellation of a paid order by a non-admin.
	ErrPaidOrder = fmt.Errorf("%w: cannot cancel paid order", ErrForbidden)
	// ErrCancelled rejects payment of a cancelled order.
	ErrCancelled = fmt.Errorf("%w: order is cancelled", ErrInvalidTransition)
)

type Status string

const (
	StatusCreated   Status = "created"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Item is one order line. UnitPrice is the product price snapshotted at
// reservation time; later catalog price changes never touch it.
type Item struct {
	ProductID string
	Quantity  int
	UnitPrice int64
}

func (i Item) Subtotal() int64 { return int64(i.Quantity) * i.UnitPrice }

type Order struct {
	ID        string
	UserID    string
	Items     []Item
	Total     int64
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New builds an order in the created state. Total is derived from the
// items, never passed in, so Total == Σ quantity*unitPrice holds by
// construction.
func New(id, userID string, items []Item) (*Order, error) {
	if id == "" || userID == "" {
		return nil, fmt.Errorf("%w: id and user id are required", ErrInvalidInput)
	}
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}

	var total int64
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if item.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: unit price must be zero or greater", ErrInvalidInput)
		}
		total += item.Subtotal()
	}

	now := time.Now().UTC()
	return &Order{
		ID:        id,
		UserID:    userID,
		Items:     append([]Item(nil), items...),
		Total:     total,
		Status:    StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// OwnedBy reports whether the actor with the given id owns the order.
func (o *Order) OwnedBy(userID string) bool { return o.UserID == userID }

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]Item(nil), o.Items...)
	return &clone
}
