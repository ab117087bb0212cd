// internal/model/audit.go
package model

import "time"

// AuditEntry is one row of the append-only audit trail. Every stage
// transition and every dispatcher side effect lands here.
type AuditEntry struct {
	ID         int       `db:"id" json:"id"`
	Action     string    `db:"action" json:"action"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   int       `db:"entity_id" json:"entity_id"`
	Details    string    `db:"details" json:"details,omitempty"` // JSON payload
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
