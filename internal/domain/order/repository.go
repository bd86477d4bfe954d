package order

import (
	"context"

	"github.com/keisui/shopcore/internal/domain/txn"
)

// Repository is the order ledger. Writes run inside a transaction and must
// register their inverse on the handle.
type Repository interface {
	Create(ctx context.Context, tx txn.Txn, order *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	FindAll(ctx context.Context) ([]*Order, error)
	FindByUserID(ctx context.Context, userID string) ([]*Order, error)
	// UpdateStatus writes the order's status only if the current status
	// still equals from, mirroring the conditional stock decrement; a lost
	// race returns ErrStaleStatus and writes nothing.
	UpdateStatus(ctx context.Context, tx txn.Txn, id string, from, to Status) (*Order, error)
}
