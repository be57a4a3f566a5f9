package engine

import (
	"context"

	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/model"
)

// Store is the persistence contract the engine runs against. The SQL
// implementation lives in internal/repository and serializes mutations
// with a row-level lock on the listing; the in-memory implementation
// used by tests serializes with a per-listing mutex. Either satisfies
// the engine as long as two mutations of the same listing never
// interleave.
//
// Stores translate their failures to the engine sentinels: a missing
// row is ErrNotFound and transient infrastructure failures wrap
// ErrStoreUnavailable.
type Store interface {
	// GetListing returns the listing or ErrNotFound.
	GetListing(ctx context.Context, id uint64) (*model.Listing, error)

	// GetBooking returns the booking or ErrNotFound.
	GetBooking(ctx context.Context, id uint64) (*model.Booking, error)

	// HasConfirmedBooking reports whether the guest holds a CONFIRMED
	// booking on the listing. Called on every exact-address read; the
	// answer must never be cached.
	HasConfirmedBooking(ctx context.Context, listingID, guestID uint64) (bool, error)

	// MutateListing runs fn inside a critical section scoped to the
	// listing. All effects of fn are applied atomically: if fn returns
	// an error, or the process dies mid-flight, none of them are
	// observable. Mutations of different listings must not contend.
	MutateListing(ctx context.Context, listingID uint64, fn func(m Mutation) error) error

	// MutateBooking is MutateListing keyed by a booking: it locks the
	// booking's listing, then runs fn with both loaded. Capacity
	// release and the status change of a cancellation therefore commit
	// as one unit.
	MutateBooking(ctx context.Context, bookingID uint64, fn func(m Mutation) error) error
}

// Mutation is the view of the store inside a critical section. The
// structs returned by Listing and Booking are snapshots owned by the
// callback; changes take effect only through the Save methods.
type Mutation interface {
	// Listing returns the locked listing.
	Listing() *model.Listing

	// Booking returns the booking that keyed MutateBooking, or nil
	// inside MutateListing.
	Booking() *model.Booking

	// NonTerminalBooking returns the guest's PENDING or CONFIRMED
	// booking on the locked listing, or nil when there is none.
	NonTerminalBooking(guestID uint64) (*model.Booking, error)

	// CreateBooking inserts a new booking and populates its ID.
	CreateBooking(b *model.Booking) error

	// SaveListing persists the listing's mutable fields.
	SaveListing(l *model.Listing) error

	// SaveBooking persists the booking's status and transition stamps.
	SaveBooking(b *model.Booking) error

	// AppendAudit adds an audit row committed with the mutation.
	AppendAudit(e *model.AuditEntry) error
}
