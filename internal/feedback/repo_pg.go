package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const entryColumns = `id, insight_id, insight_type, insight_title, insight_severity, predicted_savings,
       action_taken, action_by, action_date, notes,
       outcome, actual_savings, outcome_notes, outcome_date,
       created_at, updated_at`

// Create inserts a new feedback entry.
func (r *PGRepo) Create(ctx context.Context, entry Entry) error {
	const query = `
INSERT INTO feedback_entries (
	id, insight_id, insight_type, insight_title, insight_severity, predicted_savings,
	action_taken, action_by, action_date, notes,
	outcome, actual_savings, outcome_notes, outcome_date,
	created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.DB.ExecContext(ctx, query,
		entry.ID,
		entry.InsightID,
		entry.InsightType,
		entry.InsightTitle,
		entry.InsightSeverity,
		entry.PredictedSavings,
		entry.ActionTaken,
		nullString(entry.ActionBy),
		entry.ActionDate,
		nullString(entry.Notes),
		entry.Outcome,
		entry.ActualSavings,
		nullString(entry.OutcomeNotes),
		entry.OutcomeDate,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	return err
}

// GetByID returns an entry by ID.
func (r *PGRepo) GetByID(ctx context.Context, entryID string) (Entry, error) {
	query := `
SELECT ` + entryColumns + `
FROM feedback_entries
WHERE id = $1
LIMIT 1`

	entry, err := scanEntry(r.DB.QueryRowContext(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	return entry, nil
}

// UpdateOutcome revises outcome fields in place. Only the outcome columns
// change; the original action record stays immutable.
func (r *PGRepo) UpdateOutcome(ctx context.Context, entryID string, update OutcomeUpdate) (Entry, error) {
	query := `
UPDATE feedback_entries
SET outcome = $1,
    actual_savings = COALESCE($2::numeric, actual_savings),
    outcome_notes = COALESCE($3::text, outcome_notes),
    outcome_date = $4,
    updated_at = now()
WHERE id = $5
RETURNING ` + entryColumns

	entry, err := scanEntry(r.DB.QueryRowContext(ctx, query,
		update.Outcome,
		update.ActualSavings,
		update.OutcomeNotes,
		update.OutcomeDate,
		entryID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	return entry, nil
}

// Delete removes an entry.
func (r *PGRepo) Delete(ctx context.Context, entryID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM feedback_entries WHERE id = $1`, entryID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns filtered entries newest-first with the total match count.
func (r *PGRepo) List(ctx context.Context, filter Filter, limit, offset int) ([]Entry, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	var conds []string
	var args []any
	addCond := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	addCond("insight_type", filter.InsightType)
	addCond("action_taken", filter.ActionTaken)
	addCond("outcome", filter.Outcome)

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM feedback_entries " + where
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	listQuery := fmt.Sprintf(`
SELECT %s
FROM feedback_entries
%s
ORDER BY action_date DESC, id DESC
LIMIT $%d OFFSET $%d`, entryColumns, where, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, entry)
	}
	return out, total, rows.Err()
}

// ListAll returns every entry without pagination.
func (r *PGRepo) ListAll(ctx context.Context) ([]Entry, error) {
	query := `
SELECT ` + entryColumns + `
FROM feedback_entries
ORDER BY action_date DESC, id DESC`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	var predictedSavings sql.NullFloat64
	var actionBy sql.NullString
	var notes sql.NullString
	var actualSavings sql.NullFloat64
	var outcomeNotes sql.NullString
	var outcomeDate sql.NullTime

	err := row.Scan(
		&e.ID,
		&e.InsightID,
		&e.InsightType,
		&e.InsightTitle,
		&e.InsightSeverity,
		&predictedSavings,
		&e.ActionTaken,
		&actionBy,
		&e.ActionDate,
		&notes,
		&e.Outcome,
		&actualSavings,
		&outcomeNotes,
		&outcomeDate,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return Entry{}, err
	}
	if predictedSavings.Valid {
		e.PredictedSavings = &predictedSavings.Float64
	}
	if actionBy.Valid {
		e.ActionBy = actionBy.String
	}
	if notes.Valid {
		e.Notes = notes.String
	}
	if actualSavings.Valid {
		e.ActualSavings = &actualSavings.Float64
	}
	if outcomeNotes.Valid {
		e.OutcomeNotes = outcomeNotes.String
	}
	if outcomeDate.Valid {
		e.OutcomeDate = &outcomeDate.Time
	}
	return e, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
