package txn

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("txn: transaction already closed")

// Txn is the handle threaded through every ledger write made inside a
// transaction. Writes apply immediately; each registers the inverse
// operation so an abort can unwind them in reverse order.
type Txn interface {
	// OnAbort records an undo step. Steps run LIFO when the transaction
	// aborts and are discarded on commit.
	OnAbort(undo func() error)
}

// Manager opens, commits, and aborts transactions. Exactly one transaction
// is open per lifecycle operation; there is no nesting.
type Manager interface {
	Begin(ctx context.Context) (Txn, error)
	Commit(ctx context.Context, tx Txn) error
	Abort(ctx context.Context, tx Txn) error
}

// Within runs fn inside a single transaction. On a nil error the
// transaction commits; on any error it aborts and the error is returned to
// the caller unchanged. There is no retry.
func Within(ctx context.Context, m Manager, fn func(ctx context.Context, tx Txn) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(ctx, tx); err != nil {
		_ = m.Abort(ctx, tx)
		return err
	}
	return m.Commit(ctx, tx)
}
