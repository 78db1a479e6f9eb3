package delivery

import "time"

// username is the fixed display name every outbound webhook post is signed
// with — the endpoint is the subscriber's Discord-compatible webhook, not an
// account we control, so there is nothing per-notice to customize here.
const username = "lawcast"

// embedPayload is the JSON body posted to a subscriber's webhook URL. Shape
// matches Discord's webhook execute payload, the wire format §4.D's "embed"
// refers to.
type embedPayload struct {
	Username string  `json:"username"`
	Embeds   []embed `json:"embeds"`
}

type embed struct {
	Title       string       `json:"title"`
	URL         string       `json:"url,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

const (
	colorNotice = 0x3498DB
	colorWelcome = 0x2ECC71
)

func noticeEmbed(subject, committee, category, link string) embedPayload {
	return embedPayload{
		Username: username,
		Embeds: []embed{{
			Title:       subject,
			URL:         link,
			Color:       colorNotice,
			Fields: []embedField{
				{Name: "committee", Value: orDash(committee), Inline: true},
				{Name: "category", Value: orDash(category), Inline: true},
			},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	}
}

func welcomeEmbed() embedPayload {
	return embedPayload{
		Username: username,
		Embeds: []embed{{
			Title:       "subscription confirmed",
			Description: "this endpoint will now receive new notices as they are published",
			Color:       colorWelcome,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
