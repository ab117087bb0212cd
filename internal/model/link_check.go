// internal/model/link_check.go
package model

import "time"

// LinkCheck records one verification pass over a prospect page looking for
// the campaign's target link.
type LinkCheck struct {
	ID         int       `db:"id" json:"id"`
	EmailID    int       `db:"email_id" json:"email_id"`
	ProspectID int       `db:"prospect_id" json:"prospect_id"`
	TargetURL  string    `db:"target_url" json:"target_url"`
	Found      bool      `db:"found" json:"found"`
	HTTPStatus int       `db:"http_status" json:"http_status"`
	Error      string    `db:"error" json:"error,omitempty"`
	CheckedAt  time.Time `db:"checked_at" json:"checked_at"`
}
