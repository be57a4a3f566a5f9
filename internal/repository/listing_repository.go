package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/model"
)

// listingColumns is the canonical column list scanned into
// model.Listing. Keep the order in sync with scanListing.
const listingColumns = `id, host_id, title, description, price_cents,
       street, city, postal_code, neighborhood,
       real_lat, real_lon, public_lat, public_lon, address_identity_hash,
       capacity_total, capacity_reserved,
       scheduled_at, pickup_window_start, pickup_window_end,
       closed_at, created_at, updated_at`

// ListingRepo provides access to the listings table. Capacity counters
// are mutated exclusively through Store's locked mutations; this repo
// only creates rows and serves reads.
type ListingRepo struct {
	db *sql.DB
}

// NewListingRepo returns a ListingRepo bound to the given database.
func NewListingRepo(db *sql.DB) *ListingRepo { return &ListingRepo{db: db} }

// DB exposes the underlying handle for callers that open transactions.
func (r *ListingRepo) DB() *sql.DB { return r.db }

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(s rowScanner, l *model.Listing) error {
	var closedAt sql.NullTime
	err := s.Scan(
		&l.ID, &l.HostID, &l.Title, &l.Description, &l.PriceCents,
		&l.Street, &l.City, &l.PostalCode, &l.Neighborhood,
		&l.RealLat, &l.RealLon, &l.PublicLat, &l.PublicLon, &l.AddressIdentityHash,
		&l.CapacityTotal, &l.CapacityReserved,
		&l.ScheduledAt, &l.PickupWindowStart, &l.PickupWindowEnd,
		&closedAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if closedAt.Valid {
		t := closedAt.Time
		l.ClosedAt = &t
	}
	return nil
}

// Create inserts a new listing and its creation audit entry in a single
// transaction, then populates the generated ID and DB-defaulted
// timestamps on the provided struct. The metadata of the audit entry
// carries the count of other hosts already publishing from the same
// address identity, which moderation uses as a duplicate-account
// signal.
func (r *ListingRepo) Create(ctx context.Context, l *model.Listing) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO listings
	       (host_id, title, description, price_cents,
	        street, city, postal_code, neighborhood,
	        real_lat, real_lon, public_lat, public_lon, address_identity_hash,
	        capacity_total, capacity_reserved,
	        scheduled_at, pickup_window_start, pickup_window_end)
	       VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,0,?,?,?)`
	res, err := tx.ExecContext(ctx, q,
		l.HostID, l.Title, l.Description, l.PriceCents,
		l.Street, l.City, l.PostalCode, l.Neighborhood,
		l.RealLat, l.RealLon, l.PublicLat, l.PublicLon, l.AddressIdentityHash,
		l.CapacityTotal,
		l.ScheduledAt.UTC(), l.PickupWindowStart.UTC(), l.PickupWindowEnd.UTC(),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)

	// Same-address listings by other hosts, for the dedup signal.
	var otherHosts uint32
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT host_id) FROM listings
		 WHERE address_identity_hash = ? AND host_id <> ?`,
		l.AddressIdentityHash, l.HostID).Scan(&otherHosts)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO audit_log (actor_id, action, target_id, metadata) VALUES (?,?,?,?)`,
		l.HostID, model.AuditListingCreated, l.ID,
		fmt.Sprintf(`{"address_identity_hash":%d,"other_hosts_same_address":%d}`, l.AddressIdentityHash, otherHosts))
	if err != nil {
		return err
	}

	// Read back DB-defaulted timestamps.
	err = tx.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM listings WHERE id = ?`, l.ID).
		Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID returns a single listing. sql.ErrNoRows is returned when it
// does not exist.
func (r *ListingRepo) GetByID(ctx context.Context, id uint64) (*model.Listing, error) {
	var l model.Listing
	err := scanListing(r.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = ?`, id), &l)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListOpen returns listings that are not closed and whose pickup window
// has not ended, newest first. Callers must sanitize the result before
// exposing it publicly: real coordinates and street fields never leave
// the service on an ungated path.
func (r *ListingRepo) ListOpen(ctx context.Context, now time.Time) ([]model.Listing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings
		 WHERE closed_at IS NULL AND pickup_window_end > ?
		 ORDER BY scheduled_at ASC`, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := make([]model.Listing, 0)
	for rows.Next() {
		var l model.Listing
		if err := scanListing(rows, &l); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}

// ListByHost returns all listings owned by the host, newest first.
func (r *ListingRepo) ListByHost(ctx context.Context, hostID uint64) ([]model.Listing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings
		 WHERE host_id = ? ORDER BY created_at DESC`, hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := make([]model.Listing, 0)
	for rows.Next() {
		var l model.Listing
		if err := scanListing(rows, &l); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}
