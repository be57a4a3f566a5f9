package engine

import (
	"time"

	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/model"
)

// CancelGracePeriod is how long after creating a booking the guest may
// cancel unilaterally. Past it the host is assumed to have started
// cooking and the booking must be resolved by the host or support.
const CancelGracePeriod = 900 * time.Second

// ListingEditWindow is how long after publishing a listing the host may
// still edit it, long enough to fix typos but not to rewrite a listing
// guests already rely on.
const ListingEditWindow = 5 * time.Minute

// WithinGrace reports whether a guest-initiated cancellation of the
// booking is still permitted at the given instant. The grace period is
// measured from the booking's creation, and cancellation is additionally
// refused once the listing's pickup window has started, even inside the
// grace period.
func WithinGrace(b *model.Booking, l *model.Listing, now time.Time) bool {
	if now.Sub(b.CreatedAt) > CancelGracePeriod {
		return false
	}
	return now.Before(l.PickupWindowStart)
}

// CanEdit reports whether the owner may still mutate a published
// listing: true iff no more than ListingEditWindow has elapsed since
// creation. Purely temporal.
func CanEdit(l *model.Listing, now time.Time) bool {
	return now.Sub(l.CreatedAt) <= ListingEditWindow
}
