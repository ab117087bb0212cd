// internal/pipeline/classifier.go
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/unclebandit/linkreach-backend/internal/apperrors"
	"github.com/unclebandit/linkreach-backend/internal/audit"
	"github.com/unclebandit/linkreach-backend/internal/model"
	"github.com/unclebandit/linkreach-backend/internal/repository"
)

// ResponseClassifier consumes the response-classifier queue: it sends the
// reply body to the classification service, stores the verdict, and hands
// it to the action dispatcher.
type ResponseClassifier struct {
	Responses  repository.ResponseRepositoryInterface
	Emails     repository.EmailRepositoryInterface
	Generator  ContentGenerator
	Dispatcher *Dispatcher
	Audit      *audit.Trail
	Logger     *slog.Logger
}

func (c *ResponseClassifier) Handle(ctx context.Context, job ResponseClassifierJob) error {
	resp, err := c.Responses.GetByID(ctx, job.ResponseID)
	if err != nil {
		return apperrors.Transient(err)
	}
	if resp == nil {
		return apperrors.NewValidation("response", job.ResponseID)
	}
	if resp.Handled {
		c.Logger.Debug("response already handled", slog.Int("response_id", resp.ID))
		return nil
	}

	email, err := c.Emails.GetByID(ctx, resp.EmailID)
	if err != nil {
		return apperrors.Transient(err)
	}
	if email == nil {
		return apperrors.NewValidation("email", resp.EmailID)
	}

	result, err := c.Generator.Classify(ctx, resp.Body, Draft{
		Subject: email.OutboundSubject(),
		Body:    email.OutboundBody(),
	})
	if err != nil {
		return apperrors.Transient(err)
	}

	category, ok := model.ParseClassification(result.Category)
	if !ok {
		return apperrors.Fatal(fmt.Errorf("unknown classification category %q", result.Category))
	}

	if err := c.Responses.SetClassification(ctx, resp.ID, category,
		result.Sentiment, result.Confidence, result.Summary); err != nil {
		return apperrors.Transient(err)
	}

	if err := c.Dispatcher.Apply(ctx, resp, category, result.Sentiment); err != nil {
		return err
	}

	if err := c.Responses.MarkHandled(ctx, resp.ID); err != nil {
		return apperrors.Transient(err)
	}

	c.Audit.Record(ctx, "response_classified", "response", resp.ID, map[string]any{
		"category":   string(category),
		"sentiment":  result.Sentiment,
		"confidence": result.Confidence,
	})
	return nil
}
