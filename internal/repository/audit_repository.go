package repository

import (
	"context"
	"database/sql"

	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/model"
)

// AuditRepo appends rows to the append-only audit_log table. The engine
// only ever writes; reading and retention belong to the moderation
// tooling, which consumes the table and the audit event queue directly.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo returns an AuditRepo bound to the given database.
func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// InsertTx appends one entry within an existing transaction so the
// record commits together with the state change it describes.
func (r *AuditRepo) InsertTx(ctx context.Context, tx *sql.Tx, e *model.AuditEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO audit_log (actor_id, action, target_id, metadata) VALUES (?,?,?,?)`,
		e.ActorID, e.Action, e.TargetID, e.Metadata)
	return err
}
