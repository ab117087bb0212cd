// internal/service/prospect_service.go
package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/unclebandit/linkreach-backend/internal/audit"
	"github.com/unclebandit/linkreach-backend/internal/model"
	"github.com/unclebandit/linkreach-backend/internal/pipeline"
	"github.com/unclebandit/linkreach-backend/internal/queue"
	"github.com/unclebandit/linkreach-backend/internal/repository"
)

type ProspectService struct {
	ProspectRepo repository.ProspectRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface
	Queue        queue.Queue
	Audit        *audit.Trail
}

type CreateProspectInput struct {
	CampaignID   int    `json:"campaign_id"`
	URL          string `json:"url"`
	Kind         string `json:"kind"`
	QualityScore int    `json:"quality_score"`
	// AutoStart enqueues contact finding immediately after creation.
	AutoStart bool `json:"auto_start"`
}

// CreateProspect registers an opportunity page under a campaign. The domain
// is derived from the URL so list filtering and contact discovery agree on
// it.
func (s *ProspectService) CreateProspect(ctx context.Context, in CreateProspectInput) (*model.Prospect, error) {
	kind := model.OpportunityKind(in.Kind)
	switch kind {
	case model.OpportunityCitation, model.OpportunityBrokenLink, model.OpportunityGuestPost:
	default:
		return nil, fmt.Errorf("invalid opportunity kind: %s", in.Kind)
	}

	domain, err := domainOf(in.URL)
	if err != nil {
		return nil, err
	}

	c, err := s.CampaignRepo.GetByID(ctx, in.CampaignID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("campaign not found")
	}

	p := &model.Prospect{
		CampaignID:   in.CampaignID,
		URL:          in.URL,
		Domain:       domain,
		Kind:         kind,
		Status:       model.ProspectNew,
		QualityScore: in.QualityScore,
	}
	if err := s.ProspectRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.Audit.Record(ctx, "prospect_created", "prospect", p.ID, map[string]any{
		"campaign_id": in.CampaignID,
		"domain":      domain,
	})

	if in.AutoStart {
		if err := s.Queue.Enqueue(ctx, pipeline.QueueContactFinder,
			pipeline.ContactFinderJob{ProspectID: p.ID}); err != nil {
			return nil, fmt.Errorf("prospect created but contact finding not enqueued: %w", err)
		}
	}
	return p, nil
}

func domainOf(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid prospect url: %s", raw)
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."), nil
}

func (s *ProspectService) ListProspects(ctx context.Context, page, pageSize, campaignID int, status string) ([]model.Prospect, map[string]int, error) {
	offset, pageSize, page := paginate(page, pageSize)
	prospects, total, err := s.ProspectRepo.List(ctx, offset, pageSize, campaignID, status)
	if err != nil {
		return nil, nil, err
	}
	return prospects, pagination(page, pageSize, total), nil
}

// ProspectDetails is a prospect plus its discovered contacts.
type ProspectDetails struct {
	model.Prospect
	Contacts []model.Contact `json:"contacts"`
}

func (s *ProspectService) GetProspect(ctx context.Context, id int) (*ProspectDetails, error) {
	p, err := s.ProspectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("prospect not found")
	}
	contacts, err := s.ContactRepo.ListByProspect(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProspectDetails{Prospect: *p, Contacts: contacts}, nil
}

// EnqueueEmailGeneration queues drafting for a prospect whose contact is
// already known. The contact finder normally feeds the generator itself;
// this is the manual re-trigger for when that job was dead-lettered.
func (s *ProspectService) EnqueueEmailGeneration(ctx context.Context, prospectID int) error {
	p, err := s.ProspectRepo.GetByID(ctx, prospectID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("prospect not found")
	}
	if p.Status.Terminal() {
		return fmt.Errorf("prospect is %s and takes no further pipeline work", p.Status)
	}
	if p.Status != model.ProspectContactFound {
		return fmt.Errorf("email generation requires status contact_found, prospect is %s", p.Status)
	}

	contact, err := s.ContactRepo.GetPrimaryByProspect(ctx, prospectID)
	if err != nil {
		return err
	}
	if contact == nil {
		return fmt.Errorf("prospect has no contacts")
	}

	return s.Queue.Enqueue(ctx, pipeline.QueueEmailGenerator, pipeline.EmailGeneratorJob{
		ProspectID: prospectID,
		ContactID:  contact.ID,
		CampaignID: p.CampaignID,
	})
}

// TrashProspect soft-deletes a prospect. The nightly purge removes it for
// good after the retention window.
func (s *ProspectService) TrashProspect(ctx context.Context, id int) error {
	p, err := s.ProspectRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("prospect not found")
	}
	if err := s.ProspectRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.Audit.Record(ctx, "prospect_trashed", "prospect", id, nil)
	return nil
}

func (s *ProspectService) RestoreProspect(ctx context.Context, id int) error {
	if err := s.ProspectRepo.Restore(ctx, id); err != nil {
		return err
	}
	s.Audit.Record(ctx, "prospect_restored", "prospect", id, nil)
	return nil
}
