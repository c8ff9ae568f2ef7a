// Package confirm implements a two-step "stage then confirm" gate for
// destructive or state-changing actions.
package confirm

import "errors"

// ErrAlreadyPending is returned by Stage while another payload awaits a decision.
var ErrAlreadyPending = errors.New("an action is already awaiting confirmation")

// ErrNothingPending is returned by Confirm when no payload is staged.
var ErrNothingPending = errors.New("nothing to confirm")

// Outcome is how the most recent staged action was resolved.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeConfirmed
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// Staged holds at most one payload between Stage and Confirm/Cancel.
// The zero value is idle and ready to use.
type Staged[T any] struct {
	payload T
	pending bool
	last    Outcome
}

// Stage parks payload until it is confirmed or cancelled.
func (s *Staged[T]) Stage(payload T) error {
	if s.pending {
		return ErrAlreadyPending
	}
	s.payload = payload
	s.pending = true
	return nil
}

// Pending returns the staged payload, if any.
func (s *Staged[T]) Pending() (T, bool) {
	return s.payload, s.pending
}

// Confirm hands the staged payload to apply and returns to idle. The
// payload is released even when apply fails.
func (s *Staged[T]) Confirm(apply func(T) error) error {
	if !s.pending {
		return ErrNothingPending
	}
	p := s.payload
	s.reset()
	s.last = OutcomeConfirmed
	return apply(p)
}

// Cancel discards the staged payload. It is a no-op when idle.
func (s *Staged[T]) Cancel() {
	if !s.pending {
		return
	}
	s.reset()
	s.last = OutcomeCancelled
}

// Last reports how the previous staged payload was resolved.
func (s *Staged[T]) Last() Outcome {
	return s.last
}

func (s *Staged[T]) reset() {
	var zero T
	s.payload = zero
	s.pending = false
}
