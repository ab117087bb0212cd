// internal/model/email.go
package model

import "time"

type EmailStatus string

const (
	EmailPendingReview EmailStatus = "pending_review"
	EmailApproved      EmailStatus = "approved"
	EmailRejected      EmailStatus = "rejected"
	EmailSent          EmailStatus = "sent"
)

type Email struct {
	ID         int    `db:"id" json:"id"`
	ProspectID int    `db:"prospect_id" json:"prospect_id"`
	ContactID  int    `db:"contact_id" json:"contact_id"`
	CampaignID int    `db:"campaign_id" json:"campaign_id"`
	Subject    string `db:"subject" json:"subject"`
	Body       string `db:"body" json:"body"`

	// Human-edited variants set during review; when present they are what
	// actually goes out.
	EditedSubject *string `db:"edited_subject" json:"edited_subject,omitempty"`
	EditedBody    *string `db:"edited_body" json:"edited_body,omitempty"`

	Status     EmailStatus `db:"status" json:"status"`
	ReviewedBy *string     `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewNote *string     `db:"review_note" json:"review_note,omitempty"`
	ReviewedAt *time.Time  `db:"reviewed_at" json:"reviewed_at,omitempty"`

	ProviderMessageID *string    `db:"provider_message_id" json:"provider_message_id,omitempty"`
	SentAt            *time.Time `db:"sent_at" json:"sent_at,omitempty"`

	OpenCount     int        `db:"open_count" json:"open_count"`
	ClickCount    int        `db:"click_count" json:"click_count"`
	LastOpenedAt  *time.Time `db:"last_opened_at" json:"last_opened_at,omitempty"`
	LastClickedAt *time.Time `db:"last_clicked_at" json:"last_clicked_at,omitempty"`

	// Stamped by the link-check sweep so re-running the sweep does not
	// enqueue duplicate verification jobs.
	LinkCheckRequestedAt *time.Time `db:"link_check_requested_at" json:"link_check_requested_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// OutboundSubject returns the subject that should actually be sent.
func (e *Email) OutboundSubject() string {
	if e.EditedSubject != nil && *e.EditedSubject != "" {
		return *e.EditedSubject
	}
	return e.Subject
}

// OutboundBody returns the body that should actually be sent.
func (e *Email) OutboundBody() string {
	if e.EditedBody != nil && *e.EditedBody != "" {
		return *e.EditedBody
	}
	return e.Body
}
