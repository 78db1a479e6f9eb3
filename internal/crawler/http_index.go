package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vientofactory/lawcast-backend/internal/domain"
)

// HTTPIndexCrawler fetches the upstream notice index over HTTP with a fixed
// user-agent, timeout, and retry count — the "fixed config" the scheduler
// invokes the crawler with on every tick (§4.G).
type HTTPIndexCrawler struct {
	baseURL    string
	userAgent  string
	retries    int
	httpClient *http.Client
}

func NewHTTPIndexCrawler(baseURL, userAgent string, timeout time.Duration, retries int) *HTTPIndexCrawler {
	return &HTTPIndexCrawler{
		baseURL:   baseURL,
		userAgent: userAgent,
		retries:   retries,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchLatest retries up to c.retries additional times on transport or
// decode failure before giving up.
func (c *HTTPIndexCrawler) FetchLatest(ctx context.Context) ([]domain.Notice, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		notices, err := c.fetchOnce(ctx)
		if err == nil {
			return notices, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("fetch notice index after %d attempts: %w", c.retries+1, lastErr)
}

func (c *HTTPIndexCrawler) fetchOnce(ctx context.Context) ([]domain.Notice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected index status: %d", resp.StatusCode)
	}

	var notices []domain.Notice
	if err := json.NewDecoder(resp.Body).Decode(&notices); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return notices, nil
}

var _ Crawler = (*HTTPIndexCrawler)(nil)
