// Package delivery sends notices to subscriber webhook endpoints and
// classifies the outcome into a closed failure taxonomy (§4.D).
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/vientofactory/lawcast-backend/internal/domain"
)

// Client posts signed embeds to webhook URLs. The base URL is never fixed —
// unlike the source's single-destination webhook.site provider, every
// endpoint here is a distinct subscriber URL read from the repository.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewClientWithHTTPClient injects a preconfigured http.Client, letting tests
// swap in a custom Transport without reaching the network.
func NewClientWithHTTPClient(hc *http.Client) *Client {
	return &Client{httpClient: hc}
}

// SendNotice posts n to endpointURL and returns a classified outcome.
func (c *Client) SendNotice(ctx context.Context, endpointURL string, n domain.Notice) domain.SendResult {
	return c.send(ctx, endpointURL, noticeEmbed(n.Subject, n.Committee, n.ProposerCategory, n.Link))
}

// TestDelivery posts a fixed welcome embed, used to live-test a new
// subscription before it is persisted (§6 POST /webhooks).
func (c *Client) TestDelivery(ctx context.Context, endpointURL string) domain.SendResult {
	return c.send(ctx, endpointURL, welcomeEmbed())
}

func (c *Client) send(ctx context.Context, endpointURL string, payload embedPayload) domain.SendResult {
	if _, err := url.ParseRequestURI(endpointURL); err != nil {
		return domain.SendResult{Success: false, Category: domain.CategoryInvalidWebhook}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.SendResult{Success: false, Category: domain.CategoryUnknown}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(body))
	if err != nil {
		return domain.SendResult{Success: false, Category: domain.CategoryInvalidWebhook}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SendResult{Success: false, Category: classifyTransportError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return domain.SendResult{Success: true}
	}

	var providerBody providerErrorBody
	_ = json.NewDecoder(resp.Body).Decode(&providerBody)

	return domain.SendResult{
		Success:  false,
		Category: classifyResponse(resp.StatusCode, providerBody.Code),
	}
}
