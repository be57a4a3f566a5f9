package engine

import (
	"errors"
	"fmt"

	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/model"
)

// ErrIllegalTransition is returned when a requested state change is not
// permitted by the booking state machine.
var ErrIllegalTransition = errors.New("illegal booking transition")

// transitions is the single source of truth for the booking state
// machine:
//
//	PENDING   -> CONFIRMED | CANCELLED
//	CONFIRMED -> COMPLETED | NO_SHOW | CANCELLED
//
// CANCELLED, COMPLETED and NO_SHOW are terminal.
var transitions = map[model.BookingStatus][]model.BookingStatus{
	model.StatusPending:   {model.StatusConfirmed, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusCompleted, model.StatusNoShow, model.StatusCancelled},
}

// Transition validates a status change. A transition from a state to
// itself is reported as allowed-but-redundant via redundant=true, which
// operations treat as an idempotent no-op rather than an error.
func Transition(from, to model.BookingStatus) (redundant bool, err error) {
	if from == to {
		return true, nil
	}
	for _, next := range transitions[from] {
		if next == to {
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}
