// internal/model/rate_config.go
package model

import "time"

// RateConfig is the single-row sending configuration read by the rate
// governor before every send. WarmupWeek is only meaningful while
// WarmupEnabled is true and is advanced by an explicit settings operation,
// never automatically.
type RateConfig struct {
	ID            int       `db:"id" json:"id"`
	DailyLimit    int       `db:"daily_limit" json:"daily_limit"`
	WarmupEnabled bool      `db:"warmup_enabled" json:"warmup_enabled"`
	WarmupWeek    int       `db:"warmup_week" json:"warmup_week"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
