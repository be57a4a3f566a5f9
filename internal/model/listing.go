package model

import "time"

// Listing is a published meal offer as stored in the `listings` table.
// The real street-level address and exact coordinates are persisted but
// must never be serialized on a public read path; only the fuzzed
// coordinate pair and the coarse neighborhood label may be shown to
// viewers without a confirmed booking.
//
// Fields:
//  ID                  – primary key identifier, immutable.
//  HostID              – owner reference, immutable.
//  Title, Description  – meal presentation fields.
//  PriceCents          – price per portion in cents.
//  Street, City,
//  PostalCode          – exact address; disclosure-gated.
//  Neighborhood        – coarse label from the geocoder, always public.
//  RealLat, RealLon    – exact geocoded location; disclosure-gated.
//  PublicLat, PublicLon – fuzzed coordinate computed at create/edit time.
//  AddressIdentityHash – 31-bit hash of the normalized address; input to
//                        the fuzzing offset and the admin dedup signal.
//  CapacityTotal       – number of portions offered.
//  CapacityReserved    – portions held by non-terminal bookings; the
//                        invariant CapacityReserved <= CapacityTotal must
//                        hold under all interleavings.
//  ScheduledAt         – when the meal is cooked.
//  PickupWindowStart,
//  PickupWindowEnd     – validity window for reservations and pickup.
//  ClosedAt            – soft-close timestamp; listings referenced by
//                        bookings are never hard-deleted.
//  CreatedAt           – anchor for the post-publish edit window.
//  UpdatedAt           – last modification timestamp.
type Listing struct {
	ID                  uint64     // listings.id
	HostID              uint64     // listings.host_id
	Title               string     // listings.title
	Description         string     // listings.description
	PriceCents          uint32     // listings.price_cents
	Street              string     // listings.street
	City                string     // listings.city
	PostalCode          string     // listings.postal_code
	Neighborhood        string     // listings.neighborhood
	RealLat             float64    // listings.real_lat
	RealLon             float64    // listings.real_lon
	PublicLat           float64    // listings.public_lat
	PublicLon           float64    // listings.public_lon
	AddressIdentityHash uint32     // listings.address_identity_hash
	CapacityTotal       uint32     // listings.capacity_total
	CapacityReserved    uint32     // listings.capacity_reserved
	ScheduledAt         time.Time  // listings.scheduled_at
	PickupWindowStart   time.Time  // listings.pickup_window_start
	PickupWindowEnd     time.Time  // listings.pickup_window_end
	ClosedAt            *time.Time // listings.closed_at (nullable)
	CreatedAt           time.Time  // listings.created_at
	UpdatedAt           time.Time  // listings.updated_at
}

// Open reports whether the listing can still accept reservations at the
// given instant: not soft-closed and the pickup window has not ended.
func (l *Listing) Open(now time.Time) bool {
	if l.ClosedAt != nil {
		return false
	}
	return now.Before(l.PickupWindowEnd)
}

// Remaining returns the number of portions still reservable.
func (l *Listing) Remaining() uint32 {
	if l.CapacityReserved >= l.CapacityTotal {
		return 0
	}
	return l.CapacityTotal - l.CapacityReserved
}

// Address is the street-level location of a listing. It is only ever
// returned through the disclosure gate.
type Address struct {
	Street     string  `json:"street"`
	City       string  `json:"city"`
	PostalCode string  `json:"postal_code"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}
