package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/model"
)

func isoUTC(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// BookingRepo serves booking reads for handlers. State-changing writes
// go through Store so they commit together with the listing's capacity
// counters.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

func scanBooking(s rowScanner, b *model.Booking) error {
	var confirmedAt, cancelledAt sql.NullTime
	err := s.Scan(&b.ID, &b.ListingID, &b.GuestID, &b.Status,
		&b.CreatedAt, &confirmedAt, &cancelledAt, &b.UpdatedAt)
	if err != nil {
		return err
	}
	if confirmedAt.Valid {
		t := confirmedAt.Time
		b.ConfirmedAt = &t
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		b.CancelledAt = &t
	}
	return nil
}

// BookingDetail is a booking joined with enough listing context for
// display. Only public listing fields appear here; the exact address
// goes through the disclosure gate instead.
type BookingDetail struct {
	ID           uint64              `json:"id"`
	ListingID    uint64              `json:"listing_id"`
	Status       model.BookingStatus `json:"status"`
	CreatedAt    string              `json:"created_at"`
	ConfirmedAt  *string             `json:"confirmed_at,omitempty"`
	CancelledAt  *string             `json:"cancelled_at,omitempty"`
	ListingTitle string              `json:"listing_title"`
	Neighborhood string              `json:"neighborhood"`
	PublicLat    float64             `json:"public_lat"`
	PublicLon    float64             `json:"public_lon"`
	ScheduledAt  string              `json:"scheduled_at"`
}

const bookingDetailQuery = `SELECT b.id, b.listing_id, b.status,
       b.created_at, b.confirmed_at, b.cancelled_at,
       l.title, l.neighborhood, l.public_lat, l.public_lon, l.scheduled_at
       FROM bookings b
       JOIN listings l ON l.id = b.listing_id`

func scanBookingDetail(s rowScanner) (BookingDetail, error) {
	var (
		d                      BookingDetail
		createdAt, scheduledAt sql.NullTime
		confirmedAt            sql.NullTime
		cancelledAt            sql.NullTime
	)
	err := s.Scan(&d.ID, &d.ListingID, &d.Status,
		&createdAt, &confirmedAt, &cancelledAt,
		&d.ListingTitle, &d.Neighborhood, &d.PublicLat, &d.PublicLon, &scheduledAt)
	if err != nil {
		return d, err
	}
	if createdAt.Valid {
		d.CreatedAt = isoUTC(createdAt.Time)
	}
	if scheduledAt.Valid {
		d.ScheduledAt = isoUTC(scheduledAt.Time)
	}
	if confirmedAt.Valid {
		v := isoUTC(confirmedAt.Time)
		d.ConfirmedAt = &v
	}
	if cancelledAt.Valid {
		v := isoUTC(cancelledAt.Time)
		d.CancelledAt = &v
	}
	return d, nil
}

// GetByID returns a single booking. sql.ErrNoRows when absent.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	var b model.Booking
	err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT id, listing_id, guest_id, status, created_at, confirmed_at, cancelled_at, updated_at
		 FROM bookings WHERE id = ?`, id), &b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListByGuest returns the guest's bookings with listing context, newest
// first.
func (r *BookingRepo) ListByGuest(ctx context.Context, guestID uint64) ([]BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		bookingDetailQuery+` WHERE b.guest_id = ? ORDER BY b.created_at DESC`, guestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]BookingDetail, 0)
	for rows.Next() {
		d, err := scanBookingDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// ListByListingForHost returns all bookings on a listing after
// verifying the caller owns it. ErrForbidden when the listing belongs
// to someone else, sql.ErrNoRows when it does not exist.
func (r *BookingRepo) ListByListingForHost(ctx context.Context, listingID, hostID uint64) ([]BookingDetail, error) {
	var actualHostID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT host_id FROM listings WHERE id = ?`, listingID).Scan(&actualHostID)
	if err != nil {
		return nil, err
	}
	if actualHostID != hostID {
		return nil, ErrForbidden
	}

	rows, err := r.db.QueryContext(ctx,
		bookingDetailQuery+` WHERE b.listing_id = ? ORDER BY b.created_at DESC`, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]BookingDetail, 0)
	for rows.Next() {
		d, err := scanBookingDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}
