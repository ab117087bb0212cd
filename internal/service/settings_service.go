// internal/service/settings_service.go
package service

import (
	"context"
	"fmt"

	"github.com/unclebandit/linkreach-backend/internal/audit"
	"github.com/unclebandit/linkreach-backend/internal/repository"
	"github.com/unclebandit/linkreach-backend/internal/sending"
)

// SettingsService manages the sending configuration the rate governor
// reads.
type SettingsService struct {
	RateRepo repository.RateConfigRepositoryInterface
	Governor *sending.Governor
	Audit    *audit.Trail
}

// SendingReport is the settings view plus the live figures operators
// actually look at: what is today's budget and how much of it is used.
type SendingReport struct {
	DailyLimit    int  `json:"daily_limit"`
	WarmupEnabled bool `json:"warmup_enabled"`
	WarmupWeek    int  `json:"warmup_week"`
	TodayBudget   int  `json:"today_budget"`
	SentToday     int  `json:"sent_today"`
}

func (s *SettingsService) GetSending(ctx context.Context) (*SendingReport, error) {
	cfg, err := s.RateRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	sent, err := s.Governor.SentToday(ctx)
	if err != nil {
		return nil, err
	}
	return &SendingReport{
		DailyLimit:    cfg.DailyLimit,
		WarmupEnabled: cfg.WarmupEnabled,
		WarmupWeek:    cfg.WarmupWeek,
		TodayBudget:   sending.BudgetFor(cfg),
		SentToday:     sent,
	}, nil
}

// UpdateSending changes the static daily limit and the warm-up toggle. The
// new budget applies to the next reservation; already-reserved slots are
// untouched.
func (s *SettingsService) UpdateSending(ctx context.Context, dailyLimit int, warmupEnabled bool) (*SendingReport, error) {
	if dailyLimit < 1 {
		return nil, fmt.Errorf("daily limit must be at least 1")
	}
	if err := s.RateRepo.Update(ctx, dailyLimit, warmupEnabled); err != nil {
		return nil, err
	}
	s.Audit.Record(ctx, "sending_settings_updated", "rate_config", 1, map[string]any{
		"daily_limit":    dailyLimit,
		"warmup_enabled": warmupEnabled,
	})
	return s.GetSending(ctx)
}

// AdvanceWarmupWeek moves the warm-up ramp one week forward, to at most
// week 7. Advancing is a deliberate operator action, never automatic.
func (s *SettingsService) AdvanceWarmupWeek(ctx context.Context) (*SendingReport, error) {
	week, err := s.RateRepo.AdvanceWarmupWeek(ctx)
	if err != nil {
		return nil, err
	}
	s.Audit.Record(ctx, "warmup_week_advanced", "rate_config", 1, map[string]any{
		"warmup_week": week,
	})
	return s.GetSending(ctx)
}
