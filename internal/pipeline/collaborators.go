// internal/pipeline/collaborators.go
package pipeline

import (
	"context"

	"github.com/unclebandit/linkreach-backend/internal/model"
)

// DiscoveredContact is one address the contact-discovery service found for
// a domain.
type DiscoveredContact struct {
	Email      string
	Name       string
	Role       string
	Confidence model.ContactConfidence
}

// ContactDiscoverer finds outreach contacts for a prospect's domain.
type ContactDiscoverer interface {
	Discover(ctx context.Context, domain, pageURL string) ([]DiscoveredContact, error)
}

// ProspectContext is the material the content-generation service drafts
// from: the page being targeted, who is being written to, and what link the
// campaign wants placed.
type ProspectContext struct {
	ProspectURL  string
	Domain       string
	Kind         model.OpportunityKind
	ContactName  string
	ContactEmail string
	CampaignName string
	TargetURL    string
	AnchorText   string
}

// Draft is a generated subject/body pair.
type Draft struct {
	Subject string
	Body    string
}

// ClassificationResult is the classification service's verdict on a reply.
type ClassificationResult struct {
	Category   string
	Sentiment  string
	Confidence float64
	Summary    string
}

// ContentGenerator is the content-generation collaborator: outreach drafts,
// follow-up drafts, and reply classification.
type ContentGenerator interface {
	GenerateOutreachEmail(ctx context.Context, pc ProspectContext) (Draft, error)
	GenerateFollowup(ctx context.Context, originalSubject, originalBody, contactName string, step int) (Draft, error)
	Classify(ctx context.Context, responseBody string, original Draft) (ClassificationResult, error)
}

// LinkFetcher retrieves a prospect page for link verification. Fetches are
// wall-clock bounded; a timeout surfaces as an error the caller records and
// retries within the attempt cap.
type LinkFetcher interface {
	Fetch(ctx context.Context, url string) (html string, httpStatus int, err error)
}
