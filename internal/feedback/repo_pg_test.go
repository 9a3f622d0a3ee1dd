package feedback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var entryColumnNames = []string{
	"id", "insight_id", "insight_type", "insight_title", "insight_severity", "predicted_savings",
	"action_taken", "action_by", "action_date", "notes",
	"outcome", "actual_savings", "outcome_notes", "outcome_date",
	"created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreate(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	predicted := 15000.0
	entry := Entry{
		ID:               "fb-1",
		InsightID:        "ins-1",
		InsightType:      "cost_optimization",
		InsightTitle:     "Duplicate suppliers",
		InsightSeverity:  "high",
		PredictedSavings: &predicted,
		ActionTaken:      ActionImplemented,
		ActionBy:         "Alex",
		ActionDate:       now,
		Notes:            "kicked off",
		Outcome:          OutcomePending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	mock.ExpectExec("INSERT INTO feedback_entries").
		WithArgs(
			entry.ID,
			entry.InsightID,
			entry.InsightType,
			entry.InsightTitle,
			entry.InsightSeverity,
			sqlmock.AnyArg(), // predicted_savings
			entry.ActionTaken,
			entry.ActionBy,
			sqlmock.AnyArg(), // action_date
			entry.Notes,
			entry.Outcome,
			nil,              // actual_savings
			nil,              // outcome_notes
			nil,              // outcome_date
			sqlmock.AnyArg(), // created_at
			sqlmock.AnyArg(), // updated_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM feedback_entries").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(entryColumnNames))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoUpdateOutcomeReturnsRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(entryColumnNames).AddRow(
		"fb-1", "ins-1", "cost_optimization", "Duplicate suppliers", "high", 15000.0,
		ActionImplemented, "Alex", now, "kicked off",
		OutcomeSuccess, 12000.0, "worked out", now,
		now, now,
	)

	mock.ExpectQuery("UPDATE feedback_entries").
		WithArgs(OutcomeSuccess, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "fb-1").
		WillReturnRows(rows)

	savings := 12000.0
	notes := "worked out"
	entry, err := repo.UpdateOutcome(context.Background(), "fb-1", OutcomeUpdate{
		Outcome:       OutcomeSuccess,
		ActualSavings: &savings,
		OutcomeNotes:  &notes,
		OutcomeDate:   now,
	})
	if err != nil {
		t.Fatalf("UpdateOutcome: %v", err)
	}
	if entry.Outcome != OutcomeSuccess {
		t.Fatalf("outcome = %q", entry.Outcome)
	}
	if entry.ActualSavings == nil || *entry.ActualSavings != 12000 {
		t.Fatalf("actual savings = %v", entry.ActualSavings)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateOutcomeNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("UPDATE feedback_entries").
		WithArgs(OutcomeSuccess, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "missing").
		WillReturnRows(sqlmock.NewRows(entryColumnNames))

	_, err := repo.UpdateOutcome(context.Background(), "missing", OutcomeUpdate{Outcome: OutcomeSuccess, OutcomeDate: time.Now().UTC()})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoDeleteNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM feedback_entries").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoListAppliesFilters(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM feedback_entries").
		WithArgs("risk", ActionDismissed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	now := time.Now().UTC()
	rows := sqlmock.NewRows(entryColumnNames).AddRow(
		"fb-2", "ins-2", "risk", "Contract expiring", "medium", nil,
		ActionDismissed, nil, now, nil,
		OutcomePending, nil, nil, nil,
		now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM feedback_entries").
		WithArgs("risk", ActionDismissed, 50, 0).
		WillReturnRows(rows)

	entries, total, err := repo.List(context.Background(), Filter{InsightType: "risk", ActionTaken: ActionDismissed}, 50, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(entries) != 1 {
		t.Fatalf("total=%d len=%d", total, len(entries))
	}
	if entries[0].InsightType != "risk" {
		t.Fatalf("type = %q", entries[0].InsightType)
	}
	if entries[0].PredictedSavings != nil {
		t.Fatal("expected nil predicted savings from NULL column")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
