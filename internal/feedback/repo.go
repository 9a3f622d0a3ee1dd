package feedback

import (
	"context"
	"time"
)

// Filter narrows List results. Empty fields match everything.
type Filter struct {
	InsightType string
	ActionTaken string
	Outcome     string
}

// OutcomeUpdate carries the fields of an outcome revision. Nil pointers
// leave the stored value untouched.
type OutcomeUpdate struct {
	Outcome       string
	ActualSavings *float64
	OutcomeNotes  *string
	OutcomeDate   time.Time
}

// Repo is the persistence contract for feedback entries.
type Repo interface {
	Create(ctx context.Context, entry Entry) error
	GetByID(ctx context.Context, entryID string) (Entry, error)
	UpdateOutcome(ctx context.Context, entryID string, update OutcomeUpdate) (Entry, error)
	Delete(ctx context.Context, entryID string) error
	List(ctx context.Context, filter Filter, limit, offset int) ([]Entry, int, error)
	ListAll(ctx context.Context) ([]Entry, error)
}
