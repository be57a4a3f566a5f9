package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/model"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestEngine returns an engine on a fresh memStore with a frozen
// clock the test can advance.
func newTestEngine() (*Engine, *memStore, *time.Time) {
	store := newMemStore()
	now := testNow
	e := New(store)
	e.now = func() time.Time { return now }
	return e, store, &now
}

func TestReserveCreatesPendingBooking(t *testing.T) {
	e, store, _ := newTestEngine()
	listingID := store.addListing(openListing(1, 4, testNow))

	b, err := e.Reserve(context.Background(), listingID, 7)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if b.Status != model.StatusPending {
		t.Errorf("status = %s, want PENDING", b.Status)
	}
	l, _ := store.GetListing(context.Background(), listingID)
	if l.CapacityReserved != 1 {
		t.Errorf("capacityReserved = %d, want 1", l.CapacityReserved)
	}
}

func TestReserveRejectsDuplicate(t *testing.T) {
	e, store, _ := newTestEngine()
	listingID := store.addListing(openListing(1, 4, testNow))

	if _, err := e.Reserve(context.Background(), listingID, 7); err != nil {
		t.Fatalf("first Reserve: %v", err)
	}
	if _, err := e.Reserve(context.Background(), listingID, 7); !errors.Is(err, ErrDuplicateReservation) {
		t.Fatalf("second Reserve = %v, want ErrDuplicateReservation", err)
	}
}

func TestReserveRejectsExpiredListing(t *testing.T) {
	e, store, now := newTestEngine()
	listingID := store.addListing(openListing(1, 4, testNow))

	*now = testNow.Add(5 * time.Hour) // past the pickup window end
	if _, err := e.Reserve(context.Background(), listingID, 7); !errors.Is(err, ErrListingExpired) {
		t.Fatalf("Reserve = %v, want ErrListingExpired", err)
	}
}

func TestReserveRejectsClosedListing(t *testing.T) {
	e, store, _ := newTestEngine()
	listingID := store.addListing(openListing(1, 4, testNow))

	if err := e.CloseListing(context.Background(), listingID, 1); err != nil {
		t.Fatalf("CloseListing: %v", err)
	}
	if _, err := e.Reserve(context.Background(), listingID, 7); !errors.Is(err, ErrListingExpired) {
		t.Fatalf("Reserve on closed listing = %v, want ErrListingExpired", err)
	}
}

func TestReserveUnknownListing(t *testing.T) {
	e, _, _ := newTestEngine()
	if _, err := e.Reserve(context.Background(), 999, 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Reserve = %v, want ErrNotFound", err)
	}
}

func TestNoOverbookingUnderConcurrency(t *testing.T) {
	const capacity = 5
	const callers = 40

	e, store, _ := newTestEngine()
	listingID := store.addListing(openListing(1, capacity, testNow))

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(guest int) {
			defer wg.Done()
			_, errs[guest] = e.Reserve(context.Background(), listingID, uint64(100+guest))
		}(i)
	}
	wg.Wait()

	succeeded, soldOut := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrSoldOut):
			soldOut++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != capacity {
		t.Errorf("%d reservations succeeded, want exactly %d", succeeded, capacity)
	}
	if soldOut != callers-capacity {
		t.Errorf("%d callers got SoldOut, want %d", soldOut, callers-capacity)
	}
	l, _ := store.GetListing(context.Background(), listingID)
	if l.CapacityReserved > l.CapacityTotal {
		t.Errorf("invariant broken: reserved %d > total %d", l.CapacityReserved, l.CapacityTotal)
	}
}

func TestCancelRestoresCapacityExactlyOnce(t *testing.T) {
	e, store, _ := newTestEngine()
	listingID := store.addListing(openListing(1, 3, testNow))

	b, err := e.Reserve(context.Background(), listingID, 7)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := e.Cancel(context.Background(), b.ID, 7); err != nil {
		t.Fatalf("first Cancel: %v", err)
	}
	// Re-entrant cancel: success, but no second capacity release.
	if err := e.Cancel(context.Background(), b.ID, 7); err != nil {
		t.Fatalf("second Cancel: %v", err)
	}

	l, _ := store.GetListing(context.Background(), listingID)
	if l.CapacityReserved != 0 {
		t.Errorf("capacityReserved = %d, want 0 after double cancel", l.CapacityReserved)
	}
	got, _ := store.GetBooking(context.Background(), b.ID)
	if got.Status != model.StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", got.Status)
	}
	if got.CancelledAt == nil {
		t.Error("cancelledAt not stamped")
	}
}

func TestCancelGraceBoundary(t *testing.T) {
	ctx := context.Background()

	e, store, now := newTestEngine()
	listingID := store.addListing(openListing(1, 3, testNow))
	b, err := e.Reserve(ctx, listingID, 7)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	*now = testNow.Add(901 * time.Second)
	if err := e.Cancel(ctx, b.ID, 7); !errors.Is(err, ErrGraceExpired) {
		t.Fatalf("Cancel at +901s = %v, want ErrGraceExpired", err)
	}

	*now = testNow.Add(899 * time.Second)
	if err := e.Cancel(ctx, b.ID, 7); err != nil {
		t.Fatalf("Cancel at +899s: %v", err)
	}
}

func TestHostCancelExemptFromGrace(t *testing.T) {
	ctx := context.Background()

	e, store, now := newTestEngine()
	listingID := store.addListing(openListing(1, 3, testNow))
	b, err := e.Reserve(ctx, listingID, 7)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := e.Confirm(ctx, b.ID, 1); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	*now = testNow.Add(2 * time.Hour)
	if err := e.Cancel(ctx, b.ID, 1); err != nil {
		t.Fatalf("host Cancel after grace: %v", err)
	}
	l, _ := store.GetListing(ctx, listingID)
	if l.CapacityReserved != 0 {
		t.Errorf("capacityReserved = %d, want 0", l.CapacityReserved)
	}
}

func TestCancelByStrangerUnauthorized(t *testing.T) {
	ctx := context.Background()

	e, store, _ := newTestEngine()
	listingID := store.addListing(openListing(1, 3, testNow))
	b, _ := e.Reserve(ctx, listingID, 7)

	if err := e.Cancel(ctx, b.ID, 42); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Cancel by stranger = %v, want ErrUnauthorized", err)
	}
}

func TestCancelCompletedBookingIllegal(t *testing.T) {
	ctx := context.Background()

	e, store, _ := newTestEngine()
	listingID := store.addListing(openListing(1, 3, testNow))
	b, _ := e.Reserve(ctx, listingID, 7)
	if err := e.Confirm(ctx, b.ID, 1); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := e.Complete(ctx, b.ID, 1); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := e.Cancel(ctx, b.ID, 1); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("Cancel after Complete = %v, want ErrIllegalTransition", err)
	}
}

func TestConfirmIdempotent(t *testing.T) {
	ctx := context.Background()

	e, store, _ := newTestEngine()
	listingID := store.addListing(openListing(1, 3, testNow))
	b, _ := e.Reserve(ctx, listingID, 7)

	if err := e.Confirm(ctx, b.ID, 1); err != nil {
		t.Fatalf("first Confirm: %v", err)
	}
	got, _ := store.GetBooking(ctx, b.ID)
	firstStamp := got.ConfirmedAt
	if firstStamp == nil {
		t.Fatal("confirmedAt not stamped")
	}

	if err := e.Confirm(ctx, b.ID, 1); err != nil {
		t.Fatalf("second Confirm: %v", err)
	}
	got, _ = store.GetBooking(ctx, b.ID)
	if !got.ConfirmedAt.Equal(*firstStamp) {
		t.Error("second Confirm must not restamp confirmedAt")
	}
}

func TestConfirmByNonHostUnauthorized(t *testing.T) {
	ctx := context.Background()

	e, store, _ := newTestEngine()
	listingID := store.addListing(openListing(1, 3, testNow))
	b, _ := e.Reserve(ctx, listingID, 7)

	if err := e.Confirm(ctx, b.ID, 7); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Confirm by guest = %v, want ErrUnauthorized", err)
	}
}

func TestCompleteAndNoShowRequireConfirmed(t *testing.T) {
	ctx := context.Background()

	e, store, _ := newTestEngine()
	listingID := store.addListing(openListing(1, 3, testNow))
	b, _ := e.Reserve(ctx, listingID, 7)

	if err := e.Complete(ctx, b.ID, 1); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("Complete on PENDING = %v, want ErrIllegalTransition", err)
	}
	if err := e.MarkNoShow(ctx, b.ID, 1); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("MarkNoShow on PENDING = %v, want ErrIllegalTransition", err)
	}

	if err := e.Confirm(ctx, b.ID, 1); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := e.MarkNoShow(ctx, b.ID, 1); err != nil {
		t.Fatalf("MarkNoShow on CONFIRMED: %v", err)
	}
}

func TestDisclosureGate(t *testing.T) {
	ctx := context.Background()

	e, store, _ := newTestEngine()
	l := openListing(1, 3, testNow)
	l.Street = "Main Street 5"
	l.City = "Basel"
	l.PostalCode = "4051"
	l.RealLat, l.RealLon = 47.5596, 7.5886
	listingID := store.addListing(l)

	// Host always sees their own address.
	if addr, err := e.GetExactAddress(ctx, listingID, 1); err != nil || addr.Street != "Main Street 5" {
		t.Fatalf("host read = (%v, %v), want address", addr, err)
	}

	// No booking: denied.
	if _, err := e.GetExactAddress(ctx, listingID, 7); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("no-booking read = %v, want ErrUnauthorized", err)
	}

	// PENDING booking: still denied.
	b, _ := e.Reserve(ctx, listingID, 7)
	if _, err := e.GetExactAddress(ctx, listingID, 7); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("pending read = %v, want ErrUnauthorized", err)
	}

	// CONFIRMED booking: allowed.
	if err := e.Confirm(ctx, b.ID, 1); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	addr, err := e.GetExactAddress(ctx, listingID, 7)
	if err != nil {
		t.Fatalf("confirmed read: %v", err)
	}
	if addr.Lat != 47.5596 || addr.Street != "Main Street 5" {
		t.Errorf("confirmed read returned wrong address: %+v", addr)
	}

	// Cancellation revokes disclosure immediately.
	if err := e.Cancel(ctx, b.ID, 1); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := e.GetExactAddress(ctx, listingID, 7); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("post-cancel read = %v, want ErrUnauthorized", err)
	}

	// A confirmed booking on another listing grants nothing here.
	otherID := store.addListing(openListing(2, 3, testNow))
	ob, _ := e.Reserve(ctx, otherID, 7)
	if err := e.Confirm(ctx, ob.ID, 2); err != nil {
		t.Fatalf("Confirm other: %v", err)
	}
	if _, err := e.GetExactAddress(ctx, listingID, 7); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("cross-listing read = %v, want ErrUnauthorized", err)
	}
}

func TestEditListingWindow(t *testing.T) {
	ctx := context.Background()

	e, store, now := newTestEngine()
	listingID := store.addListing(openListing(1, 3, testNow))

	*now = testNow.Add(4 * time.Minute)
	edited, err := e.EditListing(ctx, listingID, 1, func(l *model.Listing) error {
		l.Title = "lasagna night, corrected"
		return nil
	})
	if err != nil {
		t.Fatalf("EditListing inside window: %v", err)
	}
	if edited.Title != "lasagna night, corrected" {
		t.Errorf("title not applied: %q", edited.Title)
	}

	*now = testNow.Add(6 * time.Minute)
	if _, err := e.EditListing(ctx, listingID, 1, func(l *model.Listing) error { return nil }); !errors.Is(err, ErrEditWindowClosed) {
		t.Fatalf("EditListing outside window = %v, want ErrEditWindowClosed", err)
	}

	if _, err := e.EditListing(ctx, listingID, 9, func(l *model.Listing) error { return nil }); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("EditListing by stranger = %v, want ErrUnauthorized", err)
	}
}

func TestAuditTrailAppended(t *testing.T) {
	ctx := context.Background()

	e, store, _ := newTestEngine()
	listingID := store.addListing(openListing(1, 3, testNow))
	b, _ := e.Reserve(ctx, listingID, 7)
	_ = e.Confirm(ctx, b.ID, 1)
	_ = e.Complete(ctx, b.ID, 1)

	want := []string{model.AuditBookingCreated, model.AuditBookingConfirm, model.AuditBookingDone}
	if len(store.audit) != len(want) {
		t.Fatalf("audit has %d entries, want %d", len(store.audit), len(want))
	}
	for i, action := range want {
		if store.audit[i].Action != action {
			t.Errorf("audit[%d] = %s, want %s", i, store.audit[i].Action, action)
		}
		if store.audit[i].TargetID != b.ID {
			t.Errorf("audit[%d] target = %d, want %d", i, store.audit[i].TargetID, b.ID)
		}
	}

	// Failed operations leave no trace.
	before := len(store.audit)
	if _, err := e.Reserve(ctx, listingID, 7); err == nil {
		t.Fatal("expected duplicate reservation error")
	}
	if len(store.audit) != before {
		t.Error("failed Reserve appended an audit entry")
	}
}

func TestCancelledGuestCanReserveAgain(t *testing.T) {
	ctx := context.Background()

	e, store, _ := newTestEngine()
	listingID := store.addListing(openListing(1, 1, testNow))

	b, err := e.Reserve(ctx, listingID, 7)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := e.Cancel(ctx, b.ID, 7); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	// The slot went back to the pool and the old booking is terminal,
	// so the same guest may book again.
	if _, err := e.Reserve(ctx, listingID, 7); err != nil {
		t.Fatalf("re-Reserve after cancel: %v", err)
	}
}
