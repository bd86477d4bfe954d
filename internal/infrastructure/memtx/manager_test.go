package memtx

import (
	"context"
	"errors"
	"testing"

	"github.com/keisui/shopcore/internal/domain/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommit_DiscardsUndoLog(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)

	ran := false
	tx.OnAbort(func() error { ran = true; return nil })

	require.NoError(t, m.Commit(ctx, tx))
	assert.False(t, ran)
}

func TestAbort_RunsUndoInReverseOrder(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)

	var order []int
	tx.OnAbort(func() error { order = append(order, 1); return nil })
	tx.OnAbort(func() error { order = append(order, 2); return nil })
	tx.OnAbort(func() error { order = append(order, 3); return nil })

	require.NoError(t, m.Abort(ctx, tx))
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestAbort_CollectsUndoErrors(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)

	undoErr := errors.New("undo failed")
	ran := false
	tx.OnAbort(func() error { ran = true; return nil })
	tx.OnAbort(func() error { return undoErr })

	err = m.Abort(ctx, tx)
	assert.ErrorIs(t, err, undoErr)
	// a failing undo step must not stop the remaining ones
	assert.True(t, ran)
}

func TestClosedTransactionRejectsFurtherUse(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Commit(ctx, tx))

	assert.ErrorIs(t, m.Commit(ctx, tx), txn.ErrClosed)
	assert.ErrorIs(t, m.Abort(ctx, tx), txn.ErrClosed)

	// undo registered after close is ignored
	ran := false
	tx.OnAbort(func() error { ran = true; return nil })
	assert.False(t, ran)
}

func TestBegin_CancelledContext(t *testing.T) {
	m := NewManager()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Begin(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithin_CommitsOnSuccessAndAbortsOnError(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	undone := false
	err := txn.Within(ctx, m, func(ctx context.Context, tx txn.Txn) error {
		tx.OnAbort(func() error { undone = true; return nil })
		return nil
	})
	require.NoError(t, err)
	assert.False(t, undone)

	boom := errors.New("boom")
	err = txn.Within(ctx, m, func(ctx context.Context, tx txn.Txn) error {
		tx.OnAbort(func() error { undone = true; return nil })
		return boom
	})
	// the business error comes back unchanged
	assert.Equal(t, boom, err)
	assert.True(t, undone)
}
