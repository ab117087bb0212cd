// internal/model/blocklist.go
package model

import "time"

// BlocklistEntry marks an address the pipeline must never email again.
type BlocklistEntry struct {
	ID        int       `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Reason    string    `db:"reason" json:"reason"`
	Details   string    `db:"details" json:"details,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
