package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/model"
)

// ErrEditWindowClosed is returned by EditListing once the post-publish
// edit window has elapsed.
var ErrEditWindowClosed = errors.New("listing edit window closed")

// Engine coordinates reservations, cancellations and address
// disclosure for listings. It is safe for use from many request
// handlers concurrently; all shared state lives in the Store.
type Engine struct {
	store Store
	now   func() time.Time
}

// New returns an Engine over the given store.
func New(store Store) *Engine {
	return &Engine{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Reserve books one portion of the listing for the guest. The capacity
// check, the counter increment and the PENDING booking insert are one
// atomic unit, so two simultaneous calls can never both take the last
// portion. Returns the created booking.
func (e *Engine) Reserve(ctx context.Context, listingID, guestID uint64) (*model.Booking, error) {
	now := e.now()
	var created *model.Booking
	err := e.store.MutateListing(ctx, listingID, func(m Mutation) error {
		l := m.Listing()
		if !l.Open(now) {
			return ErrListingExpired
		}
		existing, err := m.NonTerminalBooking(guestID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateReservation
		}
		if l.CapacityReserved >= l.CapacityTotal {
			return ErrSoldOut
		}
		l.CapacityReserved++
		if err := m.SaveListing(l); err != nil {
			return err
		}
		b := &model.Booking{
			ListingID: l.ID,
			GuestID:   guestID,
			Status:    model.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := m.CreateBooking(b); err != nil {
			return err
		}
		created = b
		return m.AppendAudit(&model.AuditEntry{
			ActorID:   guestID,
			Action:    model.AuditBookingCreated,
			TargetID:  b.ID,
			Metadata:  fmt.Sprintf(`{"listing_id":%d}`, l.ID),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Cancel cancels a booking and returns its portion to the pool. Guests
// may cancel their own PENDING or CONFIRMED booking only inside the
// grace period and before the pickup window opens; the host may cancel
// at any time while the booking is live. Cancelling an already
// cancelled booking is a no-op that does not release capacity again.
func (e *Engine) Cancel(ctx context.Context, bookingID, actorID uint64) error {
	now := e.now()
	return e.store.MutateBooking(ctx, bookingID, func(m Mutation) error {
		b := m.Booking()
		l := m.Listing()
		if actorID != b.GuestID && actorID != l.HostID {
			return ErrUnauthorized
		}
		redundant, err := Transition(b.Status, model.StatusCancelled)
		if err != nil {
			return err
		}
		if redundant {
			return nil
		}
		if actorID == b.GuestID && actorID != l.HostID && !WithinGrace(b, l, now) {
			return ErrGraceExpired
		}
		// Release and mark together: the unit is never returned
		// without the booking being cancelled, and vice versa.
		if l.CapacityReserved > 0 {
			l.CapacityReserved--
		}
		if err := m.SaveListing(l); err != nil {
			return err
		}
		b.Status = model.StatusCancelled
		b.CancelledAt = &now
		b.UpdatedAt = now
		if err := m.SaveBooking(b); err != nil {
			return err
		}
		return m.AppendAudit(&model.AuditEntry{
			ActorID:   actorID,
			Action:    model.AuditBookingCancel,
			TargetID:  b.ID,
			Metadata:  fmt.Sprintf(`{"listing_id":%d}`, l.ID),
			CreatedAt: now,
		})
	})
}

// Confirm transitions a PENDING booking to CONFIRMED, the trigger that
// opens exact-address disclosure for the guest. Only the listing's host
// may confirm. Confirming an already confirmed booking is a no-op.
func (e *Engine) Confirm(ctx context.Context, bookingID, actorID uint64) error {
	return e.finalize(ctx, bookingID, actorID, model.StatusConfirmed, model.AuditBookingConfirm)
}

// Complete marks a CONFIRMED booking as fulfilled. Used downstream for
// reputation scoring.
func (e *Engine) Complete(ctx context.Context, bookingID, actorID uint64) error {
	return e.finalize(ctx, bookingID, actorID, model.StatusCompleted, model.AuditBookingDone)
}

// MarkNoShow records that the guest never picked up a CONFIRMED
// booking.
func (e *Engine) MarkNoShow(ctx context.Context, bookingID, actorID uint64) error {
	return e.finalize(ctx, bookingID, actorID, model.StatusNoShow, model.AuditBookingNoShow)
}

// finalize applies a host-driven transition. Re-applying the state a
// booking is already in succeeds without effect.
func (e *Engine) finalize(ctx context.Context, bookingID, actorID uint64, to model.BookingStatus, action string) error {
	now := e.now()
	return e.store.MutateBooking(ctx, bookingID, func(m Mutation) error {
		b := m.Booking()
		l := m.Listing()
		if actorID != l.HostID {
			return ErrUnauthorized
		}
		redundant, err := Transition(b.Status, to)
		if err != nil {
			return err
		}
		if redundant {
			return nil
		}
		b.Status = to
		b.UpdatedAt = now
		if to == model.StatusConfirmed {
			b.ConfirmedAt = &now
		}
		if err := m.SaveBooking(b); err != nil {
			return err
		}
		return m.AppendAudit(&model.AuditEntry{
			ActorID:   actorID,
			Action:    action,
			TargetID:  b.ID,
			Metadata:  fmt.Sprintf(`{"listing_id":%d}`, l.ID),
			CreatedAt: now,
		})
	})
}

// CanRevealExactAddress decides, for one read, whether the requester may
// see the listing's exact address: the host always may, anyone else only
// while they hold a CONFIRMED booking. The predicate is evaluated on
// every read because a cancellation revokes disclosure immediately.
func (e *Engine) CanRevealExactAddress(ctx context.Context, listingID, requesterID uint64) (bool, error) {
	l, err := e.store.GetListing(ctx, listingID)
	if err != nil {
		return false, err
	}
	if l.HostID == requesterID {
		return true, nil
	}
	return e.store.HasConfirmedBooking(ctx, listingID, requesterID)
}

// GetExactAddress returns the street-level address and real coordinates
// when the disclosure gate allows it, and ErrUnauthorized otherwise.
func (e *Engine) GetExactAddress(ctx context.Context, listingID, requesterID uint64) (*model.Address, error) {
	ok, err := e.CanRevealExactAddress(ctx, listingID, requesterID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthorized
	}
	l, err := e.store.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return &model.Address{
		Street:     l.Street,
		City:       l.City,
		PostalCode: l.PostalCode,
		Lat:        l.RealLat,
		Lon:        l.RealLon,
	}, nil
}

// EditListing applies apply to the listing while it is locked. Only the
// host may edit, and only inside the post-publish edit window. The
// callback may change address and coordinate fields; callers are
// responsible for re-deriving the identity hash and public pin so the
// fuzzed coordinate stays coherent with the stored address.
func (e *Engine) EditListing(ctx context.Context, listingID, actorID uint64, apply func(l *model.Listing) error) (*model.Listing, error) {
	now := e.now()
	var edited *model.Listing
	err := e.store.MutateListing(ctx, listingID, func(m Mutation) error {
		l := m.Listing()
		if l.HostID != actorID {
			return ErrUnauthorized
		}
		if !CanEdit(l, now) {
			return ErrEditWindowClosed
		}
		if err := apply(l); err != nil {
			return err
		}
		l.UpdatedAt = now
		if err := m.SaveListing(l); err != nil {
			return err
		}
		edited = l
		return m.AppendAudit(&model.AuditEntry{
			ActorID:   actorID,
			Action:    model.AuditListingEdited,
			TargetID:  l.ID,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return edited, nil
}

// CloseListing soft-closes a listing so it accepts no further
// reservations. Existing bookings are untouched; the listing row is
// kept because bookings reference it.
func (e *Engine) CloseListing(ctx context.Context, listingID, actorID uint64) error {
	now := e.now()
	return e.store.MutateListing(ctx, listingID, func(m Mutation) error {
		l := m.Listing()
		if l.HostID != actorID {
			return ErrUnauthorized
		}
		if l.ClosedAt != nil {
			return nil
		}
		l.ClosedAt = &now
		l.UpdatedAt = now
		if err := m.SaveListing(l); err != nil {
			return err
		}
		return m.AppendAudit(&model.AuditEntry{
			ActorID:   actorID,
			Action:    model.AuditListingClosed,
			TargetID:  l.ID,
			CreatedAt: now,
		})
	})
}
