package feedback

import "time"

// Actions a user can take on an insight.
const (
	ActionImplemented   = "implemented"
	ActionInvestigating = "investigating"
	ActionDeferred      = "deferred"
	ActionPartial       = "partial"
	ActionDismissed     = "dismissed"
)

// Outcomes recorded after an action has played out.
const (
	OutcomePending        = "pending"
	OutcomeSuccess        = "success"
	OutcomePartialSuccess = "partial_success"
	OutcomeNoChange       = "no_change"
	OutcomeFailed         = "failed"
)

// Entry is one recorded decision about an insight. Insight attributes are
// snapshotted at record time because the analytics service regenerates
// insights and the original may no longer exist.
type Entry struct {
	ID               string     `json:"id"`
	InsightID        string     `json:"insightId"`
	InsightType      string     `json:"insightType"`
	InsightTitle     string     `json:"insightTitle"`
	InsightSeverity  string     `json:"insightSeverity"`
	PredictedSavings *float64   `json:"predictedSavings,omitempty"`
	ActionTaken      string     `json:"actionTaken"`
	ActionBy         string     `json:"actionBy,omitempty"`
	ActionDate       time.Time  `json:"actionDate"`
	Notes            string     `json:"notes,omitempty"`
	Outcome          string     `json:"outcome"`
	ActualSavings    *float64   `json:"actualSavings,omitempty"`
	OutcomeNotes     string     `json:"outcomeNotes,omitempty"`
	OutcomeDate      *time.Time `json:"outcomeDate,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// ValidAction reports whether a is one of the closed action values.
func ValidAction(a string) bool {
	switch a {
	case ActionImplemented, ActionInvestigating, ActionDeferred, ActionPartial, ActionDismissed:
		return true
	}
	return false
}

// ValidOutcome reports whether o is one of the closed outcome values.
func ValidOutcome(o string) bool {
	switch o {
	case OutcomePending, OutcomeSuccess, OutcomePartialSuccess, OutcomeNoChange, OutcomeFailed:
		return true
	}
	return false
}
