package engine

import (
	"errors"
	"testing"

	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/model"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from, to  model.BookingStatus
		redundant bool
		legal     bool
	}{
		{model.StatusPending, model.StatusConfirmed, false, true},
		{model.StatusPending, model.StatusCancelled, false, true},
		{model.StatusPending, model.StatusCompleted, false, false},
		{model.StatusPending, model.StatusNoShow, false, false},
		{model.StatusConfirmed, model.StatusCompleted, false, true},
		{model.StatusConfirmed, model.StatusNoShow, false, true},
		{model.StatusConfirmed, model.StatusCancelled, false, true},
		{model.StatusConfirmed, model.StatusPending, false, false},
		{model.StatusCancelled, model.StatusConfirmed, false, false},
		{model.StatusCompleted, model.StatusCancelled, false, false},
		{model.StatusNoShow, model.StatusConfirmed, false, false},
		{model.StatusConfirmed, model.StatusConfirmed, true, true},
		{model.StatusCancelled, model.StatusCancelled, true, true},
	}
	for _, tc := range cases {
		redundant, err := Transition(tc.from, tc.to)
		if tc.legal && err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.legal {
			if !errors.Is(err, ErrIllegalTransition) {
				t.Errorf("%s -> %s: want ErrIllegalTransition, got %v", tc.from, tc.to, err)
			}
			continue
		}
		if redundant != tc.redundant {
			t.Errorf("%s -> %s: redundant = %v, want %v", tc.from, tc.to, redundant, tc.redundant)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range []model.BookingStatus{model.StatusCancelled, model.StatusCompleted, model.StatusNoShow} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []model.BookingStatus{model.StatusPending, model.StatusConfirmed} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
