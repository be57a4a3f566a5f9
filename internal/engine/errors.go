// Package engine implements the reservation state machine, the capacity
// accounting and the address disclosure gate. It owns no persistence of
// its own: all state lives behind the Store interface, and every
// capacity mutation runs inside a per-listing critical section provided
// by the store.
package engine

import "errors"

// Sentinel errors returned by engine operations. The first four are
// expected business outcomes that handlers surface directly to the end
// user; they are never retried. ErrStoreUnavailable is a transient
// infrastructure failure that callers may retry with backoff.
var (
	// ErrSoldOut is returned by Reserve when the listing has no
	// remaining capacity at the moment of the atomic check.
	ErrSoldOut = errors.New("sold out")

	// ErrDuplicateReservation is returned when the guest already holds
	// a non-terminal booking on the listing.
	ErrDuplicateReservation = errors.New("duplicate reservation")

	// ErrListingExpired is returned when the listing is closed or its
	// pickup window has passed.
	ErrListingExpired = errors.New("listing expired")

	// ErrGraceExpired is returned when a guest-initiated cancellation
	// falls outside the cancellation grace period, or the pickup window
	// has already started.
	ErrGraceExpired = errors.New("cancellation grace period expired")

	// ErrNotFound is returned when the referenced listing or booking
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the requester may not see the
	// exact address or act on the booking. For address reads the denial
	// is silent-by-design: handlers respond with the fuzzed payload,
	// not an error page.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStoreUnavailable wraps transient failures of the backing
	// store. No partial mutation is observable after it.
	ErrStoreUnavailable = errors.New("store unavailable")
)
