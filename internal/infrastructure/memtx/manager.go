package memtx

import (
	"context"
	"errors"
	"sync"

	"github.com/keisui/shopcore/internal/domain/txn"
)

var errForeignHandle = errors.New("memtx: transaction handle belongs to another manager")

// Manager is an in-memory transaction coordinator. Repositories write
// through immediately and register compensating operations on the handle;
// an abort replays them in reverse, so the net effect of the transaction is
// all-or-nothing.
type Manager struct{}

func NewManager() *Manager { return &Manager{} }

type transaction struct {
	mu   sync.Mutex
	undo []func() error
	done bool
}

func (t *transaction) OnAbort(undo func() error) {
	if undo == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.undo = append(t.undo, undo)
}

func (m *Manager) Begin(ctx context.Context) (txn.Txn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &transaction{}, nil
}

func (m *Manager) Commit(_ context.Context, tx txn.Txn) error {
	t, ok := tx.(*transaction)
	if !ok {
		return errForeignHandle
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return txn.ErrClosed
	}
	t.done = true
	t.undo = nil
	return nil
}

// Abort unwinds every write registered on the handle, last write first.
func (m *Manager) Abort(_ context.Context, tx txn.Txn) error {
	t, ok := tx.(*transaction)
	if !ok {
		return errForeignHandle
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return txn.ErrClosed
	}
	t.done = true

	var errs []error
	for i := len(t.undo) - 1; i >= 0; i-- {
		if err := t.undo[i](); err != nil {
			errs = append(errs, err)
		}
	}
	t.undo = nil
	return errors.Join(errs...)
}
