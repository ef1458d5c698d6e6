package domain

import "time"

type SyncIssueType string

const (
	SyncMissingInProvider SyncIssueType = "missing_in_provider"
	SyncMissingInStore    SyncIssueType = "missing_in_store"
	SyncPriceMismatch     SyncIssueType = "price_mismatch"
	SyncInactiveMismatch  SyncIssueType = "inactive_mismatch"
)

type SyncSeverity string

const (
	SyncError   SyncSeverity = "error"
	SyncWarning SyncSeverity = "warning"
)

// SyncIssue is a reconciliation finding. Issues are computed fresh on every
// status check and never persisted.
type SyncIssue struct {
	Type          SyncIssueType `json:"type"`
	Severity      SyncSeverity  `json:"severity"`
	ProductID     string        `json:"productId,omitempty"`
	VariantID     string        `json:"variantId,omitempty"`
	StripePriceID string        `json:"stripePriceId,omitempty"`
	Detail        string        `json:"detail"`
}

// SyncReport aggregates one reconciliation pass. Healthy is true iff no
// error-severity issues exist; warnings never affect it.
type SyncReport struct {
	Healthy   bool        `json:"healthy"`
	Errors    int         `json:"errors"`
	Warnings  int         `json:"warnings"`
	Issues    []SyncIssue `json:"issues"`
	CheckedAt time.Time   `json:"checkedAt"`
}

// Add appends an issue and updates the counters and health flag.
func (r *SyncReport) Add(issue SyncIssue) {
	r.Issues = append(r.Issues, issue)
	if issue.Severity == SyncError {
		r.Errors++
		r.Healthy = false
	} else {
		r.Warnings++
	}
}
