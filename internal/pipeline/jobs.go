// internal/pipeline/jobs.go
package pipeline

// Queue names, one per stage. Payloads carry ids only; workers re-read the
// entities so a redelivered job always sees current state.
const (
	QueueContactFinder      = "contact-finder"
	QueueEmailGenerator     = "email-generator"
	QueueEmailSender        = "email-sender"
	QueueFollowup           = "followup"
	QueueResponseClassifier = "response-classifier"
	QueueLinkChecker        = "link-checker"
)

// AllQueues lists every pipeline queue, used for topology declaration and
// the health snapshot.
func AllQueues() []string {
	return []string{
		QueueContactFinder,
		QueueEmailGenerator,
		QueueEmailSender,
		QueueFollowup,
		QueueResponseClassifier,
		QueueLinkChecker,
	}
}

type ContactFinderJob struct {
	ProspectID int `json:"prospect_id"`
}

type EmailGeneratorJob struct {
	ProspectID int `json:"prospect_id"`
	ContactID  int `json:"contact_id"`
	CampaignID int `json:"campaign_id,omitempty"`
	TemplateID int `json:"template_id,omitempty"`
}

type EmailSenderJob struct {
	EmailID int `json:"email_id"`
}

type FollowupJob struct {
	SequenceID int `json:"sequence_id"`
}

type ResponseClassifierJob struct {
	ResponseID int `json:"response_id"`
}

type LinkCheckerJob struct {
	EmailID     int    `json:"email_id"`
	ProspectURL string `json:"prospect_url"`
	TargetURL   string `json:"target_url"`
}
