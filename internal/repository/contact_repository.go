package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/unclebandit/linkreach-backend/internal/model"
)

type ContactRepositoryInterface interface {
	Create(ctx context.Context, c *model.Contact) error
	GetByID(ctx context.Context, id int) (*model.Contact, error)
	GetPrimaryByProspect(ctx context.Context, prospectID int) (*model.Contact, error)
	ListByProspect(ctx context.Context, prospectID int) ([]model.Contact, error)
}

type ContactRepository struct {
	DB *sql.DB
}

const contactColumns = `id, prospect_id, email, name, role, confidence, is_primary, created_at`

func (r *ContactRepository) Create(ctx context.Context, c *model.Contact) error {
	c.CreatedAt = time.Now()
	query := `
        INSERT INTO contacts (prospect_id, email, name, role, confidence, is_primary, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		c.ProspectID, c.Email, c.Name, c.Role, c.Confidence, c.IsPrimary, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *ContactRepository) GetByID(ctx context.Context, id int) (*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	var c model.Contact
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.ProspectID, &c.Email, &c.Name, &c.Role, &c.Confidence, &c.IsPrimary, &c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *ContactRepository) GetPrimaryByProspect(ctx context.Context, prospectID int) (*model.Contact, error) {
	query := `
        SELECT ` + contactColumns + `
        FROM contacts
        WHERE prospect_id = $1
        ORDER BY is_primary DESC, id ASC
        LIMIT 1
    `
	var c model.Contact
	err := r.DB.QueryRowContext(ctx, query, prospectID).Scan(
		&c.ID, &c.ProspectID, &c.Email, &c.Name, &c.Role, &c.Confidence, &c.IsPrimary, &c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *ContactRepository) ListByProspect(ctx context.Context, prospectID int) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE prospect_id = $1 ORDER BY is_primary DESC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, prospectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(
			&c.ID, &c.ProspectID, &c.Email, &c.Name, &c.Role, &c.Confidence, &c.IsPrimary, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
