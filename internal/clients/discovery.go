// internal/clients/discovery.go
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/unclebandit/linkreach-backend/internal/config"
	"github.com/unclebandit/linkreach-backend/internal/model"
	"github.com/unclebandit/linkreach-backend/internal/pipeline"
)

// DiscoveryClient talks to the contact-discovery service over HTTP JSON.
type DiscoveryClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewDiscoveryClient(cfg config.Service) *DiscoveryClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DiscoveryClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *DiscoveryClient) Discover(ctx context.Context, domain, pageURL string) ([]pipeline.DiscoveredContact, error) {
	q := url.Values{}
	q.Set("domain", domain)
	q.Set("page_url", pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/contacts?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contact discovery: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("contact discovery returned %d: %s", resp.StatusCode, snippet)
	}

	var out struct {
		Contacts []struct {
			Email      string `json:"email"`
			Name       string `json:"name"`
			Role       string `json:"role"`
			Confidence string `json:"confidence"`
		} `json:"contacts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	contacts := make([]pipeline.DiscoveredContact, 0, len(out.Contacts))
	for _, dc := range out.Contacts {
		confidence := model.ContactConfidence(dc.Confidence)
		switch confidence {
		case model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow:
		default:
			confidence = model.ConfidenceLow
		}
		contacts = append(contacts, pipeline.DiscoveredContact{
			Email:      dc.Email,
			Name:       dc.Name,
			Role:       dc.Role,
			Confidence: confidence,
		})
	}
	return contacts, nil
}
