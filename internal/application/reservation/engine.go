package reservation

import (
	"context"
	"fmt"

	domain "github.com/keisui/shopcore/internal/domain/catalog"
	"github.com/keisui/shopcore/internal/domain/order"
	"github.com/keisui/shopcore/internal/domain/txn"
	"github.com/keisui/shopcore/internal/pkg/logging"
	"go.uber.org/zap"
)

// Demand is one requested order line before pricing.
type Demand struct {
	ProductID string
	Quantity  int
}

// Engine reserves stock against the product ledger. It holds no state of
// its own: every decrement goes through the repository inside the caller's
// transaction, and rollback of partially applied decrements is the
// transaction coordinator's job, not the engine's.
type Engine struct {
	products domain.Repository
}

func NewEngine(products domain.Repository) *Engine {
	return &Engine{products: products}
}

// Reserve processes demands in input order. For each line it reads the
// product (snapshotting the unit price), fails fast when stock is already
// short, then applies the conditional decrement. A rejected conditional
// write means a concurrent reservation consumed the stock after the
// pre-check; that surfaces as InsufficientStockError with RaceDetected set.
// The first failing line aborts the whole call.
func (e *Engine) Reserve(ctx context.Context, tx txn.Txn, demands []Demand) ([]order.Item, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "reservation_engine"))

	items := make([]order.Item, 0, len(demands))
	for _, d := range demands {
		if d.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}

		product, err := e.products.FindByID(ctx, d.ProductID)
		if err != nil {
			return nil, fmt.Errorf("reserve product %s: %w", d.ProductID, err)
		}
		if product.Stock < d.Quantity {
			return nil, &domain.InsufficientStockError{ProductID: d.ProductID}
		}

		if _, err := e.products.ConditionalDecrement(ctx, tx, d.ProductID, d.Quantity); err != nil {
			logger.Warn("reservation_conflict",
				zap.String("product_id", d.ProductID),
				zap.Int("quantity", d.Quantity),
				zap.Error(err),
			)
			return nil, err
		}

		items = append(items, order.Item{
			ProductID: d.ProductID,
			Quantity:  d.Quantity,
			UnitPrice: product.Price,
		})
	}
	return items, nil
}

// Restore puts reserved stock back, one unconditional increment per line.
// Used by cancellation; there is no stock ceiling to enforce.
func (e *Engine) Restore(ctx context.Context, tx txn.Txn, items []order.Item) error {
	for _, item := range items {
		if _, err := e.products.Increment(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("restore product %s: %w", item.ProductID, err)
		}
	}
	return nil
}
