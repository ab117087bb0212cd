// internal/clients/fetcher.go
package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// 2 MB is plenty for checking one anchor on a page; anything larger is
// truncated rather than buffered whole.
const maxFetchBytes = 2 << 20

// PageFetcher downloads prospect pages for link verification.
type PageFetcher struct {
	client *http.Client
}

func NewPageFetcher(timeout time.Duration) *PageFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PageFetcher{client: &http.Client{Timeout: timeout}}
}

func (f *PageFetcher) Fetch(ctx context.Context, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("User-Agent", "LinkReachBot/1.0 (+https://linkreach.io/bot)")
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("fetch %s: read body: %w", url, err)
	}
	return string(body), resp.StatusCode, nil
}
