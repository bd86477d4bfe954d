package order

import (
	"context"

	"github.com/keisui/shopcore/internal/application/reservation"
	domain "github.com/keisui/shopcore/internal/domain/order"
	"github.com/keisui/shopcore/internal/domain/txn"
)

type IDGenerator interface {
	NewID() string
}

// ReservationEngine is the stock reservation collaborator. Reserve prices
// and decrements the demanded lines; Restore puts cancelled stock back.
type ReservationEngine interface {
	Reserve(ctx context.Context, tx txn.Txn, demands []reservation.Demand) ([]domain.Item, error)
	Restore(ctx context.Context, tx txn.Txn, items []domain.Item) error
}
