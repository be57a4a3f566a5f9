// Package queue defines message payloads exchanged over the message
// broker and the background consumer that feeds the moderation audit
// log.
package queue

// AuditEvent is published for every state-mutating engine operation.
// It mirrors the audit_log row committed with the mutation and carries
// enough context for moderation tooling to act without querying the
// primary database.
type AuditEvent struct {
	ActorID   uint64 `json:"actor_id"`
	Action    string `json:"action"`
	TargetID  uint64 `json:"target_id"`
	ListingID uint64 `json:"listing_id,omitempty"`
	Metadata  string `json:"metadata,omitempty"`
	At        string `json:"at"` // RFC3339 UTC
}
