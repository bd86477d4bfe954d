package catalog

import (
	"context"

	"github.com/keisui/shopcore/internal/domain/txn"
)

// Repository is the product ledger. Stock-mutating calls run inside a
// transaction and must register their inverse on the handle so an abort
// undoes every write already applied.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	FindAll(ctx context.Context) ([]*Product, error)
	// Save upserts a product. Catalog management only; never called on the
	// order path.
	Save(ctx context.Context, product *Product) error

	// ConditionalDecrement subtracts quantity from stock only if
	// stock >= quantity still holds at write time. A rejected precondition
	// surfaces as *InsufficientStockError with RaceDetected set.
	ConditionalDecrement(ctx context.Context, tx txn.Txn, id string, quantity int) (*Product, error)
	// Increment adds quantity back to stock unconditionally (no ceiling).
	Increment(ctx context.Context, tx txn.Txn, id string, quantity int) (*Product, error)
}
