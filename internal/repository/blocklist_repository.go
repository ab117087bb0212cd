package repository

import (
	"context"
	"database/sql"
)

type BlocklistRepositoryInterface interface {
	Add(ctx context.Context, email, reason, details string) error
	Contains(ctx context.Context, email string) (bool, error)
}

type BlocklistRepository struct {
	DB *sql.DB
}

// Add inserts an address into the blocklist. Duplicate inserts are no-ops.
func (r *BlocklistRepository) Add(ctx context.Context, email, reason, details string) error {
	query := `
        INSERT INTO blocklist (email, reason, details)
        VALUES ($1, $2, $3)
        ON CONFLICT (email) DO NOTHING
    `
	_, err := r.DB.ExecContext(ctx, query, email, reason, details)
	return err
}

func (r *BlocklistRepository) Contains(ctx context.Context, email string) (bool, error) {
	query := `SELECT 1 FROM blocklist WHERE email = $1 LIMIT 1`
	var tmp int
	err := r.DB.QueryRowContext(ctx, query, email).Scan(&tmp)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
