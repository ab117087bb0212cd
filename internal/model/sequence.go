// internal/model/sequence.go
package model

import "time"

type SequenceStatus string

const (
	SequenceActive    SequenceStatus = "active"
	SequenceCompleted SequenceStatus = "completed"
	SequenceStopped   SequenceStatus = "stopped"
)

// Sequence is the follow-up schedule attached 1:1 to a sent email. It is
// created the moment the email goes out and is terminal once completed or
// stopped.
type Sequence struct {
	ID          int            `db:"id" json:"id"`
	EmailID     int            `db:"email_id" json:"email_id"`
	ProspectID  int            `db:"prospect_id" json:"prospect_id"`
	ContactID   int            `db:"contact_id" json:"contact_id"`
	CurrentStep int            `db:"current_step" json:"current_step"`
	MaxSteps    int            `db:"max_steps" json:"max_steps"`
	NextDueAt   *time.Time     `db:"next_due_at" json:"next_due_at,omitempty"`
	Status      SequenceStatus `db:"status" json:"status"`
	StopReason  *string        `db:"stop_reason" json:"stop_reason,omitempty"`

	// Stamped by the follow-up sweep when a job for the current due time has
	// been enqueued.
	FollowupsEnqueuedAt *time.Time `db:"followups_enqueued_at" json:"followups_enqueued_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (s SequenceStatus) Terminal() bool {
	return s == SequenceCompleted || s == SequenceStopped
}

// Followup is one follow-up message sent on behalf of a sequence.
type Followup struct {
	ID                int       `db:"id" json:"id"`
	SequenceID        int       `db:"sequence_id" json:"sequence_id"`
	EmailID           int       `db:"email_id" json:"email_id"`
	Step              int       `db:"step" json:"step"`
	Subject           string    `db:"subject" json:"subject"`
	Body              string    `db:"body" json:"body"`
	ProviderMessageID *string   `db:"provider_message_id" json:"provider_message_id,omitempty"`
	SentAt            time.Time `db:"sent_at" json:"sent_at"`
}
