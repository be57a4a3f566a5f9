package model

import "time"

// BookingStatus is the tagged state of a booking. Transitions between
// states go through engine.Transition; handlers must not compare or
// assign raw strings.
type BookingStatus string

// Booking states. PENDING and CONFIRMED are live; the remaining three
// are terminal and never leave the table (bookings are retained for
// audit and reputation scoring).
const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCancelled BookingStatus = "CANCELLED"
	StatusCompleted BookingStatus = "COMPLETED"
	StatusNoShow    BookingStatus = "NO_SHOW"
)

// Terminal reports whether the status permits no further transitions.
func (s BookingStatus) Terminal() bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// Booking records a guest's claim on one portion of a listing, as stored
// in the `bookings` table. ID, ListingID and GuestID are immutable once
// created. ConfirmedAt and CancelledAt are set exactly once, on the
// corresponding transition.
//
// Fields:
//  ID          – primary key identifier.
//  ListingID   – listing being reserved.
//  GuestID     – user who reserved.
//  Status      – current state, see BookingStatus.
//  CreatedAt   – anchor for the cancellation grace period.
//  ConfirmedAt – when the host confirmed, if ever.
//  CancelledAt – when the booking was cancelled, if ever.
//  UpdatedAt   – last modification timestamp.
type Booking struct {
	ID          uint64        // bookings.id
	ListingID   uint64        // bookings.listing_id
	GuestID     uint64        // bookings.guest_id
	Status      BookingStatus // bookings.status
	CreatedAt   time.Time     // bookings.created_at
	ConfirmedAt *time.Time    // bookings.confirmed_at (nullable)
	CancelledAt *time.Time    // bookings.cancelled_at (nullable)
	UpdatedAt   time.Time     // bookings.updated_at
}
