package domain

import "time"

// Endpoint is a subscriber webhook URL (§3). URL is always stored in its
// canonical form (see internal/repository's canonicalization algorithm);
// uniqueness is enforced on that canonical form across active and inactive rows.
type Endpoint struct {
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	Active      bool      `json:"active"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EndpointStats is the aggregate returned by the repository's stats() query (§4.A).
type EndpointStats struct {
	Total          int     `json:"total"`
	Active         int     `json:"active"`
	Inactive       int     `json:"inactive"`
	OldInactive    int     `json:"oldInactive"`    // age > 30d
	RecentInactive int     `json:"recentInactive"` // age < 7d
	Efficiency     float64 `json:"efficiency"`     // active/total*100, 100 when total=0
}

// BulkCreateResult summarises a bulkCreate call (§4.A).
type BulkCreateResult struct {
	Created     int `json:"created"`
	Reactivated int `json:"reactivated"`
	Duplicates  int `json:"duplicates"`
}

// DiagnosticLevel is the self-diagnostics mapping derived from Efficiency (§4.H).
type DiagnosticLevel string

const (
	DiagnosticExcellent DiagnosticLevel = "excellent"
	DiagnosticGood      DiagnosticLevel = "good"
	DiagnosticFair      DiagnosticLevel = "fair"
	DiagnosticPoor      DiagnosticLevel = "poor"
	DiagnosticCritical  DiagnosticLevel = "critical"
)

// Diagnose maps an efficiency percentage to a DiagnosticLevel per spec §4.H.
func Diagnose(efficiency float64) DiagnosticLevel {
	switch {
	case efficiency >= 90:
		return DiagnosticExcellent
	case efficiency >= 80:
		return DiagnosticGood
	case efficiency >= 60:
		return DiagnosticFair
	case efficiency >= 40:
		return DiagnosticPoor
	default:
		return DiagnosticCritical
	}
}
