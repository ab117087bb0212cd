package sending

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/linkreach-backend/internal/apperrors"
	"github.com/unclebandit/linkreach-backend/internal/model"
	"github.com/unclebandit/linkreach-backend/internal/repository"
)

type stubRates struct {
	cfg      model.RateConfig
	reserved int
	released int
}

func (s *stubRates) EnsureExists(context.Context, int, bool) error { return nil }

func (s *stubRates) Get(context.Context) (*model.RateConfig, error) {
	cp := s.cfg
	return &cp, nil
}

func (s *stubRates) Update(_ context.Context, dailyLimit int, warmupEnabled bool) error {
	s.cfg.DailyLimit = dailyLimit
	s.cfg.WarmupEnabled = warmupEnabled
	return nil
}

func (s *stubRates) AdvanceWarmupWeek(context.Context) (int, error) {
	if s.cfg.WarmupWeek < 7 {
		s.cfg.WarmupWeek++
	}
	return s.cfg.WarmupWeek, nil
}

func (s *stubRates) ReserveSendSlot(_ context.Context, _ time.Time, cap int) (bool, error) {
	if s.reserved >= cap {
		return false, nil
	}
	s.reserved++
	return true, nil
}

func (s *stubRates) ReleaseSendSlot(context.Context, time.Time) error {
	s.released++
	if s.reserved > 0 {
		s.reserved--
	}
	return nil
}

type stubEmails struct {
	repository.EmailRepositoryInterface
	sentSince int
}

func (s *stubEmails) CountSentSince(context.Context, time.Time) (int, error) {
	return s.sentSince, nil
}

func TestBudgetFor(t *testing.T) {
	tests := []struct {
		name string
		cfg  model.RateConfig
		want int
	}{
		{"warmup disabled uses static limit", model.RateConfig{DailyLimit: 200, WarmupEnabled: false, WarmupWeek: 2}, 200},
		{"week 1", model.RateConfig{DailyLimit: 200, WarmupEnabled: true, WarmupWeek: 1}, 20},
		{"week 2", model.RateConfig{DailyLimit: 200, WarmupEnabled: true, WarmupWeek: 2}, 20},
		{"week 3", model.RateConfig{DailyLimit: 200, WarmupEnabled: true, WarmupWeek: 3}, 50},
		{"week 5", model.RateConfig{DailyLimit: 200, WarmupEnabled: true, WarmupWeek: 5}, 75},
		{"week 7", model.RateConfig{DailyLimit: 200, WarmupEnabled: true, WarmupWeek: 7}, 100},
		{"week below range clamps to week 1", model.RateConfig{DailyLimit: 200, WarmupEnabled: true, WarmupWeek: 0}, 20},
		{"week beyond ramp uses static limit", model.RateConfig{DailyLimit: 200, WarmupEnabled: true, WarmupWeek: 8}, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BudgetFor(&tt.cfg))
		})
	}
}

func TestGovernorReserveRespectsWarmupBudget(t *testing.T) {
	rates := &stubRates{cfg: model.RateConfig{DailyLimit: 100, WarmupEnabled: true, WarmupWeek: 3}}
	g := NewGovernor(rates, &stubEmails{})

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		require.NoError(t, g.Reserve(ctx))
	}

	err := g.Reserve(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDailyCapReached)
	assert.False(t, apperrors.IsFatal(err))
}

func TestGovernorReleaseReturnsSlot(t *testing.T) {
	rates := &stubRates{cfg: model.RateConfig{DailyLimit: 1}}
	g := NewGovernor(rates, &stubEmails{})

	ctx := context.Background()
	require.NoError(t, g.Reserve(ctx))
	require.ErrorIs(t, g.Reserve(ctx), apperrors.ErrDailyCapReached)

	require.NoError(t, g.Release(ctx))
	assert.NoError(t, g.Reserve(ctx))
}

func TestGovernorSentTodayCountsFromLocalMidnight(t *testing.T) {
	emails := &stubEmails{sentSince: 12}
	g := NewGovernor(&stubRates{cfg: model.RateConfig{DailyLimit: 100}}, emails)
	g.Now = func() time.Time {
		return time.Date(2026, time.March, 5, 14, 30, 0, 0, time.Local)
	}

	sent, err := g.SentToday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, sent)
}
