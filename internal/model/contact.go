// internal/model/contact.go
package model

import "time"

// ContactConfidence is the discovery service's confidence tier for an address.
type ContactConfidence string

const (
	ConfidenceHigh   ContactConfidence = "high"
	ConfidenceMedium ContactConfidence = "medium"
	ConfidenceLow    ContactConfidence = "low"
)

type Contact struct {
	ID         int               `db:"id" json:"id"`
	ProspectID int               `db:"prospect_id" json:"prospect_id"`
	Email      string            `db:"email" json:"email"`
	Name       string            `db:"name" json:"name"`
	Role       string            `db:"role" json:"role"`
	Confidence ContactConfidence `db:"confidence" json:"confidence"`
	IsPrimary  bool              `db:"is_primary" json:"is_primary"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
}
