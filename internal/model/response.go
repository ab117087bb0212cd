// internal/model/response.go
package model

import "time"

// Response is an inbound reply tied to an outreach email. Classification
// fields are empty until the response-classifier stage has run.
type Response struct {
	ID         int    `db:"id" json:"id"`
	EmailID    int    `db:"email_id" json:"email_id"`
	ProspectID int    `db:"prospect_id" json:"prospect_id"`
	ContactID  int    `db:"contact_id" json:"contact_id"`
	Body       string `db:"body" json:"body"`

	Category   Classification `db:"category" json:"category,omitempty"`
	Sentiment  string         `db:"sentiment" json:"sentiment,omitempty"`
	Confidence float64        `db:"confidence" json:"confidence"`
	Summary    string         `db:"summary" json:"summary,omitempty"`
	Handled    bool           `db:"handled" json:"handled"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
