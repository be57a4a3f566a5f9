package model

import "time"

// Audit actions emitted by the reservation engine. The set is closed:
// moderation tooling filters on these strings.
const (
	AuditListingCreated = "listing.created"
	AuditListingEdited  = "listing.edited"
	AuditListingClosed  = "listing.closed"
	AuditBookingCreated = "booking.created"
	AuditBookingConfirm = "booking.confirmed"
	AuditBookingCancel  = "booking.cancelled"
	AuditBookingDone    = "booking.completed"
	AuditBookingNoShow  = "booking.no_show"
)

// AuditEntry is one append-only row of the `audit_log` table. The engine
// writes entries in the same transaction as the state change they record;
// read access and retention belong to the moderation tooling.
type AuditEntry struct {
	ID        uint64    // audit_log.id
	ActorID   uint64    // audit_log.actor_id (0 for system actions)
	Action    string    // audit_log.action
	TargetID  uint64    // audit_log.target_id (listing or booking id)
	Metadata  string    // audit_log.metadata (JSON, may be empty)
	CreatedAt time.Time // audit_log.created_at
}
