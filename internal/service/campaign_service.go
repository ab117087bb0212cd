// internal/service/campaign_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/unclebandit/linkreach-backend/internal/model"
	"github.com/unclebandit/linkreach-backend/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ProspectRepo repository.ProspectRepositoryInterface
}

// CampaignDetails is a campaign plus its prospect funnel counts.
type CampaignDetails struct {
	ID         int            `json:"id"`
	Name       string         `json:"name"`
	TargetURL  string         `json:"target_url"`
	AnchorText string         `json:"anchor_text"`
	Status     string         `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  *time.Time     `json:"updated_at"`
	Stats      map[string]int `json:"stats"`
}

func (s *CampaignService) CreateCampaign(ctx context.Context, name, targetURL, anchorText string) (*model.Campaign, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("campaign name cannot be empty")
	}
	if strings.TrimSpace(targetURL) == "" {
		return nil, fmt.Errorf("target url cannot be empty")
	}

	c := &model.Campaign{
		Name:       name,
		TargetURL:  targetURL,
		AnchorText: anchorText,
		Status:     "active",
	}
	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	offset, pageSize, page := paginate(page, pageSize)
	campaigns, total, err := s.CampaignRepo.List(ctx, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}
	return campaigns, pagination(page, pageSize, total), nil
}

// GetCampaignDetails fetches a campaign and its prospect counts by status.
func (s *CampaignService) GetCampaignDetails(ctx context.Context, id int) (*CampaignDetails, error) {
	c, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("campaign not found")
	}

	stats, err := s.ProspectRepo.CountByStatus(ctx, id)
	if err != nil {
		return nil, err
	}

	return &CampaignDetails{
		ID:         c.ID,
		Name:       c.Name,
		TargetURL:  c.TargetURL,
		AnchorText: c.AnchorText,
		Status:     c.Status,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		Stats:      stats,
	}, nil
}

func (s *CampaignService) UpdateStatus(ctx context.Context, id int, status string) error {
	switch status {
	case "active", "paused", "archived":
	default:
		return fmt.Errorf("invalid campaign status: %s", status)
	}
	c, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("campaign not found")
	}
	return s.CampaignRepo.UpdateStatus(ctx, id, status)
}
