// internal/sending/transport.go
package sending

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/unclebandit/linkreach-backend/internal/config"
)

// SendResult is what the transactional-email provider reports back.
type SendResult struct {
	ProviderMessageID string
}

// Transport delivers one outbound email.
type Transport interface {
	Send(ctx context.Context, to, subject, body string) (SendResult, error)
}

// ProviderClient is a thin JSON client for a transactional-email HTTP API.
type ProviderClient struct {
	baseURL   string
	apiKey    string
	fromEmail string
	fromName  string
	client    *http.Client
}

func NewProviderClient(cfg config.Emailer) *ProviderClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ProviderClient{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		client:    &http.Client{Timeout: timeout},
	}
}

func (c *ProviderClient) Send(ctx context.Context, to, subject, body string) (SendResult, error) {
	payload := map[string]any{
		"from":    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		"to":      to,
		"subject": subject,
		"text":    body,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return SendResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(raw))
	if err != nil {
		return SendResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("email provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return SendResult{}, fmt.Errorf("email provider returned %d: %s", resp.StatusCode, snippet)
	}

	var decoded struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return SendResult{}, fmt.Errorf("decode provider response: %w", err)
	}
	return SendResult{ProviderMessageID: decoded.ID}, nil
}

// SafetyTransport redirects every outbound email to a test address. The
// original recipient is preserved in the subject so the message can still
// be traced back during testing.
type SafetyTransport struct {
	Inner         Transport
	RedirectEmail string
}

func (t *SafetyTransport) Send(ctx context.Context, to, subject, body string) (SendResult, error) {
	tagged := fmt.Sprintf("[SAFETY to=%s] %s", to, subject)
	return t.Inner.Send(ctx, t.RedirectEmail, tagged, body)
}
