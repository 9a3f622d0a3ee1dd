package feedback

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"procurement-backend/internal/insights"
	"procurement-backend/internal/shared/metrics"
	"procurement-backend/internal/shared/telemetry"
)

// Service owns the feedback ledger business rules.
type Service struct {
	Repo Repo
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{
		Repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// RecordInput captures one decision about an insight.
type RecordInput struct {
	Insight  insights.Insight
	Action   string
	Notes    string
	ActionBy string
}

// Record validates and persists a new feedback entry, snapshotting the
// insight attributes at record time.
func (s *Service) Record(ctx context.Context, input RecordInput) (Entry, error) {
	if input.Insight.ID == "" {
		return Entry{}, ValidationError{Field: "insightId", Issue: "is required"}
	}
	if !ValidAction(input.Action) {
		return Entry{}, ValidationError{Field: "actionTaken", Issue: "must be one of implemented, investigating, deferred, partial, dismissed"}
	}

	now := s.now()
	entry := Entry{
		ID:              uuid.NewString(),
		InsightID:       input.Insight.ID,
		InsightType:     input.Insight.Type,
		InsightTitle:    input.Insight.Title,
		InsightSeverity: input.Insight.Severity,
		ActionTaken:     input.Action,
		ActionBy:        input.ActionBy,
		ActionDate:      now,
		Notes:           input.Notes,
		Outcome:         OutcomePending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if input.Insight.PotentialSavings > 0 {
		predicted := input.Insight.PotentialSavings
		entry.PredictedSavings = &predicted
	}

	if err := s.Repo.Create(ctx, entry); err != nil {
		return Entry{}, err
	}

	metrics.IncFeedbackRecorded()
	telemetry.Info("feedback recorded", map[string]any{
		"feedbackId": entry.ID,
		"insightId":  entry.InsightID,
		"action":     entry.ActionTaken,
	})
	return entry, nil
}

// UpdateOutcome revises the outcome of an entry. Creation-time fields are
// never touched.
func (s *Service) UpdateOutcome(ctx context.Context, entryID, outcome string, actualSavings *float64, outcomeNotes *string) (Entry, error) {
	if !ValidOutcome(outcome) {
		return Entry{}, ValidationError{Field: "outcome", Issue: "must be one of pending, success, partial_success, no_change, failed"}
	}
	if actualSavings != nil {
		v := *actualSavings
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return Entry{}, ValidationError{Field: "actualSavings", Issue: "must be a finite non-negative number"}
		}
	}

	entry, err := s.Repo.UpdateOutcome(ctx, entryID, OutcomeUpdate{
		Outcome:       outcome,
		ActualSavings: actualSavings,
		OutcomeNotes:  outcomeNotes,
		OutcomeDate:   s.now(),
	})
	if err != nil {
		return Entry{}, err
	}

	telemetry.Info("feedback outcome updated", map[string]any{
		"feedbackId": entry.ID,
		"outcome":    entry.Outcome,
	})
	return entry, nil
}

// Delete hard-deletes an entry.
func (s *Service) Delete(ctx context.Context, entryID string) error {
	return s.Repo.Delete(ctx, entryID)
}

// Get returns one entry.
func (s *Service) Get(ctx context.Context, entryID string) (Entry, error) {
	return s.Repo.GetByID(ctx, entryID)
}

// List returns filtered entries newest-first with the total match count.
func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Entry, int, error) {
	if filter.InsightType != "" && !insights.ValidType(filter.InsightType) {
		return nil, 0, ValidationError{Field: "type", Issue: "unknown insight type"}
	}
	if filter.ActionTaken != "" && !ValidAction(filter.ActionTaken) {
		return nil, 0, ValidationError{Field: "action", Issue: "unknown action"}
	}
	if filter.Outcome != "" && !ValidOutcome(filter.Outcome) {
		return nil, 0, ValidationError{Field: "outcome", Issue: "unknown outcome"}
	}
	return s.Repo.List(ctx, filter, limit, offset)
}

// Effectiveness recomputes the aggregate over the whole ledger.
func (s *Service) Effectiveness(ctx context.Context) (Summary, error) {
	entries, err := s.Repo.ListAll(ctx)
	if err != nil {
		return Summary{}, err
	}
	return ComputeEffectiveness(entries), nil
}
