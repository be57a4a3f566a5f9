package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/engine"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/model"
)

// Store is the MySQL implementation of engine.Store. Mutations run
// inside a transaction that takes a row-level lock on the listing
// (SELECT ... FOR UPDATE), so two mutations of the same listing
// serialize at the database while different listings never contend.
// Rollback on error or request cancellation makes each mutation
// all-or-nothing: capacity counters, booking rows and audit entries
// commit together or not at all.
type Store struct {
	db    *sql.DB
	audit *AuditRepo
}

// NewStore returns a Store over the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, audit: NewAuditRepo(db)}
}

// storeErr translates driver failures to engine sentinels: missing rows
// become ErrNotFound and anything else is a transient store failure the
// caller may retry.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return engine.ErrNotFound
	}
	if errors.Is(err, engine.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", engine.ErrStoreUnavailable, err)
}

// engineErr reports whether err is one of the engine's expected
// outcomes and should pass through untranslated.
func engineErr(err error) bool {
	for _, sentinel := range []error{
		engine.ErrSoldOut, engine.ErrDuplicateReservation, engine.ErrListingExpired,
		engine.ErrGraceExpired, engine.ErrNotFound, engine.ErrUnauthorized,
		engine.ErrIllegalTransition, engine.ErrEditWindowClosed,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func (s *Store) GetListing(ctx context.Context, id uint64) (*model.Listing, error) {
	var l model.Listing
	err := scanListing(s.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = ?`, id), &l)
	if err != nil {
		return nil, storeErr(err)
	}
	return &l, nil
}

func (s *Store) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	var b model.Booking
	err := scanBooking(s.db.QueryRowContext(ctx,
		`SELECT id, listing_id, guest_id, status, created_at, confirmed_at, cancelled_at, updated_at
		 FROM bookings WHERE id = ?`, id), &b)
	if err != nil {
		return nil, storeErr(err)
	}
	return &b, nil
}

func (s *Store) HasConfirmedBooking(ctx context.Context, listingID, guestID uint64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE listing_id = ? AND guest_id = ? AND status = ?`,
		listingID, guestID, model.StatusConfirmed).Scan(&n)
	if err != nil {
		return false, storeErr(err)
	}
	return n > 0, nil
}

// lockListingTx loads the listing under an exclusive row lock held for
// the remainder of the transaction.
func lockListingTx(ctx context.Context, tx *sql.Tx, listingID uint64) (*model.Listing, error) {
	var l model.Listing
	err := scanListing(tx.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = ? FOR UPDATE`, listingID), &l)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) MutateListing(ctx context.Context, listingID uint64, fn func(m engine.Mutation) error) error {
	return s.mutate(ctx, listingID, 0, fn)
}

func (s *Store) MutateBooking(ctx context.Context, bookingID uint64, fn func(m engine.Mutation) error) error {
	// The listing id must be known before the lock can be taken; the
	// booking itself is reread inside the transaction afterwards.
	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	return s.mutate(ctx, b.ListingID, bookingID, fn)
}

func (s *Store) mutate(ctx context.Context, listingID, bookingID uint64, fn func(m engine.Mutation) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	listing, err := lockListingTx(ctx, tx, listingID)
	if err != nil {
		return storeErr(err)
	}
	mut := &sqlMutation{ctx: ctx, tx: tx, store: s, listing: listing}
	if bookingID != 0 {
		var b model.Booking
		err := scanBooking(tx.QueryRowContext(ctx,
			`SELECT id, listing_id, guest_id, status, created_at, confirmed_at, cancelled_at, updated_at
			 FROM bookings WHERE id = ?`, bookingID), &b)
		if err != nil {
			return storeErr(err)
		}
		mut.booking = &b
	}

	if err := fn(mut); err != nil {
		if engineErr(err) {
			return err
		}
		return storeErr(err)
	}
	if err := tx.Commit(); err != nil {
		return storeErr(err)
	}
	committed = true
	return nil
}

// sqlMutation adapts one open transaction to the engine.Mutation
// surface.
type sqlMutation struct {
	ctx     context.Context
	tx      *sql.Tx
	store   *Store
	listing *model.Listing
	booking *model.Booking
}

func (m *sqlMutation) Listing() *model.Listing { return m.listing }
func (m *sqlMutation) Booking() *model.Booking { return m.booking }

func (m *sqlMutation) NonTerminalBooking(guestID uint64) (*model.Booking, error) {
	var b model.Booking
	err := scanBooking(m.tx.QueryRowContext(m.ctx,
		`SELECT id, listing_id, guest_id, status, created_at, confirmed_at, cancelled_at, updated_at
		 FROM bookings WHERE listing_id = ? AND guest_id = ? AND status IN (?,?) LIMIT 1`,
		m.listing.ID, guestID, model.StatusPending, model.StatusConfirmed), &b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (m *sqlMutation) CreateBooking(b *model.Booking) error {
	res, err := m.tx.ExecContext(m.ctx,
		`INSERT INTO bookings (listing_id, guest_id, status, created_at, updated_at) VALUES (?,?,?,?,?)`,
		b.ListingID, b.GuestID, b.Status, b.CreatedAt.UTC(), b.UpdatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

func (m *sqlMutation) SaveListing(l *model.Listing) error {
	var closedAt interface{}
	if l.ClosedAt != nil {
		closedAt = l.ClosedAt.UTC()
	}
	_, err := m.tx.ExecContext(m.ctx,
		`UPDATE listings SET title=?, description=?, price_cents=?,
		        street=?, city=?, postal_code=?, neighborhood=?,
		        real_lat=?, real_lon=?, public_lat=?, public_lon=?, address_identity_hash=?,
		        capacity_total=?, capacity_reserved=?,
		        scheduled_at=?, pickup_window_start=?, pickup_window_end=?,
		        closed_at=?, updated_at=?
		 WHERE id=?`,
		l.Title, l.Description, l.PriceCents,
		l.Street, l.City, l.PostalCode, l.Neighborhood,
		l.RealLat, l.RealLon, l.PublicLat, l.PublicLon, l.AddressIdentityHash,
		l.CapacityTotal, l.CapacityReserved,
		l.ScheduledAt.UTC(), l.PickupWindowStart.UTC(), l.PickupWindowEnd.UTC(),
		closedAt, l.UpdatedAt.UTC(),
		l.ID)
	return err
}

func (m *sqlMutation) SaveBooking(b *model.Booking) error {
	var confirmedAt, cancelledAt interface{}
	if b.ConfirmedAt != nil {
		confirmedAt = b.ConfirmedAt.UTC()
	}
	if b.CancelledAt != nil {
		cancelledAt = b.CancelledAt.UTC()
	}
	_, err := m.tx.ExecContext(m.ctx,
		`UPDATE bookings SET status=?, confirmed_at=?, cancelled_at=?, updated_at=? WHERE id=?`,
		b.Status, confirmedAt, cancelledAt, b.UpdatedAt.UTC(), b.ID)
	return err
}

func (m *sqlMutation) AppendAudit(e *model.AuditEntry) error {
	return m.store.audit.InsertTx(m.ctx, m.tx, e)
}
