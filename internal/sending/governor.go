// internal/sending/governor.go
package sending

import (
	"context"
	"time"

	"github.com/unclebandit/linkreach-backend/internal/apperrors"
	"github.com/unclebandit/linkreach-backend/internal/model"
	"github.com/unclebandit/linkreach-backend/internal/repository"
)

// warmupRamp maps a warm-up week (1..7) to that week's daily send limit.
// Beyond week 7 the static daily limit applies.
var warmupRamp = map[int]int{
	1: 20,
	2: 20,
	3: 50,
	4: 50,
	5: 75,
	6: 75,
	7: 100,
}

// Governor computes the daily send budget and hands out send slots against
// it. Reserving a slot is a single conditional increment, so concurrent
// senders cannot push the day's count past the budget.
type Governor struct {
	Rates  repository.RateConfigRepositoryInterface
	Emails repository.EmailRepositoryInterface

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewGovernor(rates repository.RateConfigRepositoryInterface, emails repository.EmailRepositoryInterface) *Governor {
	return &Governor{Rates: rates, Emails: emails, Now: time.Now}
}

func (g *Governor) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// BudgetFor returns the daily budget the given config yields.
func BudgetFor(cfg *model.RateConfig) int {
	if !cfg.WarmupEnabled {
		return cfg.DailyLimit
	}
	week := cfg.WarmupWeek
	if week < 1 {
		week = 1
	}
	if week > 7 {
		return cfg.DailyLimit
	}
	return warmupRamp[week]
}

// DailyBudget reads the current config and returns today's budget.
func (g *Governor) DailyBudget(ctx context.Context) (int, error) {
	cfg, err := g.Rates.Get(ctx)
	if err != nil {
		return 0, err
	}
	return BudgetFor(cfg), nil
}

// SentToday counts emails sent since local midnight.
func (g *Governor) SentToday(ctx context.Context) (int, error) {
	now := g.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return g.Emails.CountSentSince(ctx, midnight)
}

// Reserve takes one send slot from today's budget. When the budget is
// exhausted it returns ErrDailyCapReached, which the queue treats as
// retryable: the job backs off instead of being dropped.
func (g *Governor) Reserve(ctx context.Context) error {
	budget, err := g.DailyBudget(ctx)
	if err != nil {
		return apperrors.Transient(err)
	}
	ok, err := g.Rates.ReserveSendSlot(ctx, g.now(), budget)
	if err != nil {
		return apperrors.Transient(err)
	}
	if !ok {
		return apperrors.ErrDailyCapReached
	}
	return nil
}

// Release gives a reserved slot back after a failed send.
func (g *Governor) Release(ctx context.Context) error {
	return g.Rates.ReleaseSendSlot(ctx, g.now())
}
