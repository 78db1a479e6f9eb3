package delivery

import (
	"errors"
	"net"
	"net/url"

	"github.com/vientofactory/lawcast-backend/internal/domain"
)

// providerErrorBody mirrors the small slice of Discord's webhook error
// payload this client cares about — the numeric code, not the full shape.
type providerErrorBody struct {
	Code int `json:"code"`
}

// discordUnknownWebhookCode is Discord's provider-specific error code for a
// webhook that no longer exists — equivalent in meaning to an HTTP 404.
const discordUnknownWebhookCode = 10015

// classifyResponse maps a received HTTP status and parsed provider error code
// to a Category, in the exact priority order of §4.D's table. Exhaustive:
// anything outside the named cases falls through to CategoryUnknown.
func classifyResponse(statusCode int, providerCode int) domain.Category {
	switch {
	case statusCode == 404 || providerCode == discordUnknownWebhookCode:
		return domain.CategoryNotFound
	case statusCode == 401:
		return domain.CategoryUnauthorized
	case statusCode == 403:
		return domain.CategoryForbidden
	case statusCode == 429:
		return domain.CategoryRateLimited
	case statusCode >= 400 && statusCode < 500:
		return domain.CategoryInvalidWebhook
	default:
		return domain.CategoryUnknown
	}
}

// classifyTransportError maps an error that occurred before any HTTP
// response was received — URL parsing, DNS resolution, dialing, or a
// context-deadline-triggered connect timeout.
func classifyTransportError(err error) domain.Category {
	if err == nil {
		return domain.CategoryNone
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if _, parseErr := url.Parse(urlErr.URL); parseErr != nil {
			return domain.CategoryInvalidWebhook
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return domain.CategoryNetworkError
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return domain.CategoryNetworkError
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.CategoryNetworkError
	}

	return domain.CategoryUnknown
}
