// internal/clients/generator.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/unclebandit/linkreach-backend/internal/config"
	"github.com/unclebandit/linkreach-backend/internal/pipeline"
)

// GeneratorClient talks to the content-generation service over HTTP JSON.
// Prompt wording and model choice live entirely on the other side of this
// boundary.
type GeneratorClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewGeneratorClient(cfg config.Service) *GeneratorClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GeneratorClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *GeneratorClient) post(ctx context.Context, path string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("content generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("content generator returned %d: %s", resp.StatusCode, snippet)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *GeneratorClient) GenerateOutreachEmail(ctx context.Context, pc pipeline.ProspectContext) (pipeline.Draft, error) {
	payload := map[string]any{
		"prospect_url":  pc.ProspectURL,
		"domain":        pc.Domain,
		"kind":          pc.Kind,
		"contact_name":  pc.ContactName,
		"contact_email": pc.ContactEmail,
		"campaign_name": pc.CampaignName,
		"target_url":    pc.TargetURL,
		"anchor_text":   pc.AnchorText,
	}
	var out struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := c.post(ctx, "/generate/outreach", payload, &out); err != nil {
		return pipeline.Draft{}, err
	}
	return pipeline.Draft{Subject: out.Subject, Body: out.Body}, nil
}

func (c *GeneratorClient) GenerateFollowup(ctx context.Context, originalSubject, originalBody, contactName string, step int) (pipeline.Draft, error) {
	payload := map[string]any{
		"original_subject": originalSubject,
		"original_body":    originalBody,
		"contact_name":     contactName,
		"step":             step,
	}
	var out struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := c.post(ctx, "/generate/followup", payload, &out); err != nil {
		return pipeline.Draft{}, err
	}
	return pipeline.Draft{Subject: out.Subject, Body: out.Body}, nil
}

func (c *GeneratorClient) Classify(ctx context.Context, responseBody string, original pipeline.Draft) (pipeline.ClassificationResult, error) {
	payload := map[string]any{
		"response_body":    responseBody,
		"original_subject": original.Subject,
		"original_body":    original.Body,
	}
	var out struct {
		Category   string  `json:"category"`
		Sentiment  string  `json:"sentiment"`
		Confidence float64 `json:"confidence"`
		Summary    string  `json:"summary"`
	}
	if err := c.post(ctx, "/classify", payload, &out); err != nil {
		return pipeline.ClassificationResult{}, err
	}
	return pipeline.ClassificationResult{
		Category:   out.Category,
		Sentiment:  out.Sentiment,
		Confidence: out.Confidence,
		Summary:    out.Summary,
	}, nil
}
