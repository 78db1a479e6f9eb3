package domain

import (
	"net/url"
	"regexp"
	"strings"
)

const maxWebhookURLLength = 500

// discordWebhookURLPattern matches a Discord-compatible webhook URL: https
// scheme, discord(app).com host, a 17-20 digit snowflake id, and a 64-68
// character token, with an optional trailing slack/github compatibility
// suffix.
var discordWebhookURLPattern = regexp.MustCompile(
	`^https://(?:\w+\.)?discord(?:app)?\.com/api/webhooks/(\d{17,20})/([A-Za-z0-9_-]{64,68})(?:/\w+)?$`,
)

// ValidateWebhookURL enforces the shape rules from §6 POST /webhooks: https
// scheme, discord-compatible host, overall length, snowflake/token length
// (folded into the pattern above), and a minimum path segment count.
func ValidateWebhookURL(raw string) error {
	if len(raw) > maxWebhookURLLength {
		return ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" {
		return ErrInvalidURL
	}

	if !discordWebhookURLPattern.MatchString(raw) {
		return ErrInvalidURL
	}

	if len(strings.Split(u.Path, "/")) < 5 {
		return ErrInvalidURL
	}

	return nil
}
