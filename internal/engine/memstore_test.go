package engine

import (
	"context"
	"sync"
	"time"

	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/model"
)

// memStore is an in-memory Store used by the engine tests. It
// serializes mutations with one mutex per listing, the same contract
// the SQL store provides with a row-level lock.
type memStore struct {
	mu       sync.Mutex // guards the maps themselves
	locks    map[uint64]*sync.Mutex
	listings map[uint64]model.Listing
	bookings map[uint64]model.Booking
	audit    []model.AuditEntry
	nextID   uint64
}

func newMemStore() *memStore {
	return &memStore{
		locks:    make(map[uint64]*sync.Mutex),
		listings: make(map[uint64]model.Listing),
		bookings: make(map[uint64]model.Booking),
		nextID:   1,
	}
}

func (s *memStore) addListing(l model.Listing) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.nextID
	s.nextID++
	s.listings[l.ID] = l
	s.locks[l.ID] = &sync.Mutex{}
	return l.ID
}

func (s *memStore) listingLock(id uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locks[id]
}

func (s *memStore) GetListing(_ context.Context, id uint64) (*model.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &l, nil
}

func (s *memStore) GetBooking(_ context.Context, id uint64) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (s *memStore) HasConfirmedBooking(_ context.Context, listingID, guestID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.ListingID == listingID && b.GuestID == guestID && b.Status == model.StatusConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) MutateListing(_ context.Context, listingID uint64, fn func(m Mutation) error) error {
	lock := s.listingLock(listingID)
	if lock == nil {
		return ErrNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	listing := s.listings[listingID]
	s.mu.Unlock()

	mut := &memMutation{store: s, listing: listing}
	if err := fn(mut); err != nil {
		return err // nothing staged is applied
	}
	mut.commit()
	return nil
}

func (s *memStore) MutateBooking(_ context.Context, bookingID uint64, fn func(m Mutation) error) error {
	s.mu.Lock()
	booking, ok := s.bookings[bookingID]
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	lock := s.listingLock(booking.ListingID)
	if lock == nil {
		return ErrNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	listing := s.listings[booking.ListingID]
	booking = s.bookings[bookingID] // reread under the listing lock
	s.mu.Unlock()

	mut := &memMutation{store: s, listing: listing, booking: &booking}
	if err := fn(mut); err != nil {
		return err
	}
	mut.commit()
	return nil
}

// memMutation stages writes and applies them only when the callback
// succeeds, mirroring the all-or-nothing transaction of the SQL store.
type memMutation struct {
	store   *memStore
	listing model.Listing
	booking *model.Booking

	savedListing *model.Listing
	savedBooking *model.Booking
	created      *model.Booking
	auditStaged  []model.AuditEntry
}

func (m *memMutation) Listing() *model.Listing { l := m.listing; return &l }

func (m *memMutation) Booking() *model.Booking {
	if m.booking == nil {
		return nil
	}
	b := *m.booking
	return &b
}

func (m *memMutation) NonTerminalBooking(guestID uint64) (*model.Booking, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, b := range m.store.bookings {
		if b.ListingID == m.listing.ID && b.GuestID == guestID && !b.Status.Terminal() {
			found := b
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memMutation) CreateBooking(b *model.Booking) error {
	m.store.mu.Lock()
	b.ID = m.store.nextID
	m.store.nextID++
	m.store.mu.Unlock()
	staged := *b
	m.created = &staged
	return nil
}

func (m *memMutation) SaveListing(l *model.Listing) error {
	staged := *l
	m.savedListing = &staged
	return nil
}

func (m *memMutation) SaveBooking(b *model.Booking) error {
	staged := *b
	m.savedBooking = &staged
	return nil
}

func (m *memMutation) AppendAudit(e *model.AuditEntry) error {
	m.auditStaged = append(m.auditStaged, *e)
	return nil
}

func (m *memMutation) commit() {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.savedListing != nil {
		m.store.listings[m.savedListing.ID] = *m.savedListing
	}
	if m.created != nil {
		m.store.bookings[m.created.ID] = *m.created
	}
	if m.savedBooking != nil {
		m.store.bookings[m.savedBooking.ID] = *m.savedBooking
	}
	m.store.audit = append(m.store.audit, m.auditStaged...)
}

// openListing builds a listing whose pickup window is comfortably in
// the future relative to now.
func openListing(hostID uint64, capacity uint32, now time.Time) model.Listing {
	return model.Listing{
		HostID:            hostID,
		Title:             "lasagna night",
		CapacityTotal:     capacity,
		ScheduledAt:       now.Add(3 * time.Hour),
		PickupWindowStart: now.Add(3 * time.Hour),
		PickupWindowEnd:   now.Add(4 * time.Hour),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
