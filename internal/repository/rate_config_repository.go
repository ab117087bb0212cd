package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/unclebandit/linkreach-backend/internal/model"
)

type RateConfigRepositoryInterface interface {
	EnsureExists(ctx context.Context, dailyLimit int, warmupEnabled bool) error
	Get(ctx context.Context) (*model.RateConfig, error)
	Update(ctx context.Context, dailyLimit int, warmupEnabled bool) error
	AdvanceWarmupWeek(ctx context.Context) (int, error)
	ReserveSendSlot(ctx context.Context, day time.Time, cap int) (bool, error)
	ReleaseSendSlot(ctx context.Context, day time.Time) error
}

type RateConfigRepository struct {
	DB *sql.DB
}

// EnsureExists seeds the singleton sending configuration row with the given
// defaults. An existing row is left alone, so operator changes made through
// the settings API survive restarts; the SEND_* environment only sets the
// initial values.
func (r *RateConfigRepository) EnsureExists(ctx context.Context, dailyLimit int, warmupEnabled bool) error {
	query := `
        INSERT INTO rate_config (id, daily_limit, warmup_enabled)
        VALUES (1, $1, $2)
        ON CONFLICT (id) DO NOTHING
    `
	_, err := r.DB.ExecContext(ctx, query, dailyLimit, warmupEnabled)
	return err
}

// Get returns the single sending configuration row.
func (r *RateConfigRepository) Get(ctx context.Context) (*model.RateConfig, error) {
	query := `SELECT id, daily_limit, warmup_enabled, warmup_week, updated_at FROM rate_config WHERE id = 1`
	var cfg model.RateConfig
	err := r.DB.QueryRowContext(ctx, query).Scan(
		&cfg.ID, &cfg.DailyLimit, &cfg.WarmupEnabled, &cfg.WarmupWeek, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *RateConfigRepository) Update(ctx context.Context, dailyLimit int, warmupEnabled bool) error {
	query := `UPDATE rate_config SET daily_limit = $1, warmup_enabled = $2, updated_at = now() WHERE id = 1`
	_, err := r.DB.ExecContext(ctx, query, dailyLimit, warmupEnabled)
	return err
}

// AdvanceWarmupWeek increments the warm-up week by one, clamped to 7, and
// returns the new week. Each call advances at most one week.
func (r *RateConfigRepository) AdvanceWarmupWeek(ctx context.Context) (int, error) {
	query := `
        UPDATE rate_config
        SET warmup_week = LEAST(warmup_week + 1, 7), updated_at = now()
        WHERE id = 1
        RETURNING warmup_week
    `
	var week int
	err := r.DB.QueryRowContext(ctx, query).Scan(&week)
	return week, err
}

// ReserveSendSlot atomically takes one slot from today's budget. The cap
// check and the increment happen in a single statement, so concurrent
// senders cannot overshoot the budget. It reports false when the budget is
// exhausted.
func (r *RateConfigRepository) ReserveSendSlot(ctx context.Context, day time.Time, cap int) (bool, error) {
	query := `
        INSERT INTO daily_send_counters (day, sent) VALUES ($1, 1)
        ON CONFLICT (day) DO UPDATE
        SET sent = daily_send_counters.sent + 1
        WHERE daily_send_counters.sent < $2
        RETURNING sent
    `
	var sent int
	err := r.DB.QueryRowContext(ctx, query, day.Format("2006-01-02"), cap).Scan(&sent)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if cap < 1 {
		// The INSERT arm cannot be capped; give the slot straight back.
		_ = r.ReleaseSendSlot(ctx, day)
		return false, nil
	}
	return true, nil
}

// ReleaseSendSlot returns a reserved slot after a failed send so the
// budget is not burned by provider errors.
func (r *RateConfigRepository) ReleaseSendSlot(ctx context.Context, day time.Time) error {
	query := `UPDATE daily_send_counters SET sent = GREATEST(sent - 1, 0) WHERE day = $1`
	_, err := r.DB.ExecContext(ctx, query, day.Format("2006-01-02"))
	return err
}
