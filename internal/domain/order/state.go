package order

import "time"

// orderState implements the state pattern for the order lifecycle. Each
// transition reports whether the order actually changed: a false result is
// the idempotent re-entry case (paying a paid order, cancelling a cancelled
// one) and must cause no ledger write.
type orderState interface {
	Status() Status
	Pay() (next Status, changed bool, err error)
	Cancel(privileged bool) (next Status, changed bool, err error)
}

type createdState struct{}

func (createdState) Status() Status { return StatusCreated }

func (createdState) Pay() (Status, bool, error) {
	return StatusPaid, true, nil
}

func (createdState) Cancel(bool) (Status, bool, error) {
	return StatusCancelled, true, nil
}

type paidState struct{}

func (paidState) Status() Status { return StatusPaid }

func (paidState) Pay() (Status, bool, error) {
	return StatusPaid, false, nil
}

// Cancel of a paid order is an admin-only override.
func (paidState) Cancel(privileged bool) (Status, bool, error) {
	if !privileged {
		return StatusPaid, false, ErrPaidOrder
	}
	return StatusCancelled, true, nil
}

type cancelledState struct{}

func (cancelledState) Status() Status { return StatusCancelled }

func (cancelledState) Pay() (Status, bool, error) {
	return StatusCancelled, false, ErrCancelled
}

func (cancelledState) Cancel(bool) (Status, bool, error) {
	return StatusCancelled, false, nil
}

func stateFor(s Status) orderState {
	switch s {
	case StatusPaid:
		return paidState{}
	case StatusCancelled:
		return cancelledState{}
	default:
		return createdState{}
	}
}

// Pay drives the order toward the paid state. changed=false means the
// order was already paid and nothing was mutated.
func (o *Order) Pay() (changed bool, err error) {
	next, changed, err := stateFor(o.Status).Pay()
	if err != nil {
		return false, err
	}
	if changed {
		o.Status = next
		o.touch()
	}
	return changed, nil
}

// Cancel drives the order toward the cancelled state. A privileged actor
// may cancel a paid order; anyone else gets ErrPaidOrder.
func (o *Order) Cancel(privileged bool) (changed bool, err error) {
	next, changed, err := stateFor(o.Status).Cancel(privileged)
	if err != nil {
		return false, err
	}
	if changed {
		o.Status = next
		o.touch()
	}
	return changed, nil
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
