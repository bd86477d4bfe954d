package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TotalMatchesItems(t *testing.T) {
	o, err := New("order-1", "user-1", []Item{
		{ProductID: "p1", Quantity: 2, UnitPrice: 1000},
		{ProductID: "p2", Quantity: 3, UnitPrice: 250},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCreated, o.Status)
	assert.Equal(t, int64(2*1000+3*250), o.Total)
	assert.Len(t, o.Items, 2)
	assert.False(t, o.CreatedAt.IsZero())
}

func TestNew_Validation(t *testing.T) {
	_, err := New("order-1", "user-1", nil)
	assert.ErrorIs(t, err, ErrEmptyItems)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = New("order-1", "user-1", []Item{{ProductID: "p1", Quantity: 0, UnitPrice: 100}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = New("order-1", "user-1", []Item{{ProductID: "p1", Quantity: 1, UnitPrice: -1}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = New("", "user-1", []Item{{ProductID: "p1", Quantity: 1, UnitPrice: 100}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNew_CopiesItems(t *testing.T) {
	items := []Item{{ProductID: "p1", Quantity: 1, UnitPrice: 100}}
	o, err := New("order-1", "user-1", items)
	require.NoError(t, err)

	items[0].Quantity = 99
	assert.Equal(t, 1, o.Items[0].Quantity)
}

func TestPay_FromCreated(t *testing.T) {
	o := mustOrder(t)

	changed, err := o.Pay()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusPaid, o.Status)
}

func TestPay_AlreadyPaidIsIdempotent(t *testing.T) {
	o := mustOrder(t)
	_, err := o.Pay()
	require.NoError(t, err)
	updated := o.UpdatedAt

	changed, err := o.Pay()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, StatusPaid, o.Status)
	assert.Equal(t, updated, o.UpdatedAt)
}

func TestPay_CancelledOrderRejected(t *testing.T) {
	o := mustOrder(t)
	_, err := o.Cancel(false)
	require.NoError(t, err)

	_, err = o.Pay()
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestCancel_FromCreated(t *testing.T) {
	o := mustOrder(t)

	changed, err := o.Cancel(false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestCancel_AlreadyCancelledIsIdempotent(t *testing.T) {
	o := mustOrder(t)
	_, err := o.Cancel(false)
	require.NoError(t, err)

	changed, err := o.Cancel(false)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestCancel_PaidOrderRequiresPrivilege(t *testing.T) {
	o := mustOrder(t)
	_, err := o.Pay()
	require.NoError(t, err)

	_, err = o.Cancel(false)
	assert.ErrorIs(t, err, ErrPaidOrder)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, StatusPaid, o.Status)

	changed, err := o.Cancel(true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestOwnedBy(t *testing.T) {
	o := mustOrder(t)
	assert.True(t, o.OwnedBy("user-1"))
	assert.False(t, o.OwnedBy("user-2"))
}

func mustOrder(t *testing.T) *Order {
	t.Helper()
	o, err := New("order-1", "user-1", []Item{{ProductID: "p1", Quantity: 2, UnitPrice: 1000}})
	require.NoError(t, err)
	return o
}
