package feedback

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores feedback entries in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Entry
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Entry)}
}

// Create stores the entry.
func (r *MemoryRepo) Create(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[entry.ID] = entry
	return nil
}

// GetByID returns an entry by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, entryID string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byID[entryID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

// UpdateOutcome revises the outcome fields of an existing entry. Fields the
// caller leaves nil keep their stored values.
func (r *MemoryRepo) UpdateOutcome(ctx context.Context, entryID string, update OutcomeUpdate) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.byID[entryID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	entry.Outcome = update.Outcome
	if update.ActualSavings != nil {
		entry.ActualSavings = update.ActualSavings
	}
	if update.OutcomeNotes != nil {
		entry.OutcomeNotes = *update.OutcomeNotes
	}
	outcomeDate := update.OutcomeDate
	entry.OutcomeDate = &outcomeDate
	entry.UpdatedAt = time.Now().UTC()
	r.byID[entryID] = entry
	return entry, nil
}

// Delete removes an entry.
func (r *MemoryRepo) Delete(ctx context.Context, entryID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[entryID]; !ok {
		return ErrNotFound
	}
	delete(r.byID, entryID)
	return nil
}

// List returns filtered entries newest-first along with the total match count.
func (r *MemoryRepo) List(ctx context.Context, filter Filter, limit, offset int) ([]Entry, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 50
	}

	r.mu.RLock()
	matched := make([]Entry, 0, len(r.byID))
	for _, entry := range r.byID {
		if matches(entry, filter) {
			matched = append(matched, entry)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].ActionDate.Equal(matched[j].ActionDate) {
			return matched[i].ActionDate.After(matched[j].ActionDate)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	if offset >= total {
		return []Entry{}, total, nil
	}
	end := total
	if offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

// ListAll returns every entry without pagination.
func (r *MemoryRepo) ListAll(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.byID))
	for _, entry := range r.byID {
		out = append(out, entry)
	}
	return out, nil
}

func matches(entry Entry, filter Filter) bool {
	if filter.InsightType != "" && entry.InsightType != filter.InsightType {
		return false
	}
	if filter.ActionTaken != "" && entry.ActionTaken != filter.ActionTaken {
		return false
	}
	if filter.Outcome != "" && entry.Outcome != filter.Outcome {
		return false
	}
	return true
}

var _ Repo = (*MemoryRepo)(nil)
