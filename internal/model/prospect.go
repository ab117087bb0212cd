// internal/model/prospect.go
package model

import "time"

// ProspectStatus is the lifecycle state of a prospect as it moves through
// the outreach pipeline.
type ProspectStatus string

const (
	ProspectNew            ProspectStatus = "new"
	ProspectNoContact      ProspectStatus = "no_contact"
	ProspectContactFound   ProspectStatus = "contact_found"
	ProspectEmailGenerated ProspectStatus = "email_generated"
	ProspectApproved       ProspectStatus = "approved"
	ProspectRejected       ProspectStatus = "rejected"
	ProspectSent           ProspectStatus = "sent"
	ProspectResponded      ProspectStatus = "responded"
	ProspectConverted      ProspectStatus = "converted"
)

// OpportunityKind describes why a prospect page is worth reaching out to.
type OpportunityKind string

const (
	OpportunityCitation   OpportunityKind = "citation"
	OpportunityBrokenLink OpportunityKind = "broken_link"
	OpportunityGuestPost  OpportunityKind = "guest_post"
)

type Prospect struct {
	ID           int             `db:"id" json:"id"`
	CampaignID   int             `db:"campaign_id" json:"campaign_id"`
	URL          string          `db:"url" json:"url"`
	Domain       string          `db:"domain" json:"domain"`
	Kind         OpportunityKind `db:"kind" json:"kind"`
	Status       ProspectStatus  `db:"status" json:"status"`
	QualityScore int             `db:"quality_score" json:"quality_score"`
	DeletedAt    *time.Time      `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether no further pipeline stage may move the prospect.
func (s ProspectStatus) Terminal() bool {
	switch s {
	case ProspectNoContact, ProspectRejected, ProspectConverted:
		return true
	}
	return false
}
