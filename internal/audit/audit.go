// internal/audit/audit.go
package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/unclebandit/linkreach-backend/internal/model"
	"github.com/unclebandit/linkreach-backend/internal/repository"
)

// Trail writes the append-only audit log. Recording is best effort: a
// failed insert is logged and swallowed so it can never block the pipeline
// transition it describes.
type Trail struct {
	Repo   repository.AuditRepositoryInterface
	Logger *slog.Logger
}

func NewTrail(repo repository.AuditRepositoryInterface, logger *slog.Logger) *Trail {
	return &Trail{Repo: repo, Logger: logger}
}

// Record appends one entry. details may be nil.
func (t *Trail) Record(ctx context.Context, action, entityType string, entityID int, details map[string]any) {
	if t == nil || t.Repo == nil {
		return
	}

	payload := ""
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			t.Logger.Warn("audit details not serializable",
				slog.String("action", action), slog.Any("error", err))
		} else {
			payload = string(raw)
		}
	}

	entry := &model.AuditEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    payload,
	}
	if err := t.Repo.Insert(ctx, entry); err != nil {
		t.Logger.Warn("audit write failed",
			slog.String("action", action),
			slog.String("entity_type", entityType),
			slog.Int("entity_id", entityID),
			slog.Any("error", err),
		)
	}
}
