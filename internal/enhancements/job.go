package enhancements

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job lifecycle states. Idle is the implicit pre-submission state; completed
// and failed are terminal and never left again.
const (
	StatusIdle       = "idle"
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Job kinds tracked by the Tracker.
const (
	KindBulkEnhancement = "bulk_enhancement"
	KindDeepAnalysis    = "deep_analysis"
)

// Job is one asynchronous unit of work against the reasoning service.
type Job struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	TargetKey    string          `json:"-"`
	Status       string          `json:"status"`
	Progress     int             `json:"progress"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorCode    string          `json:"errorCode,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	StartedAt    *time.Time      `json:"startedAt,omitempty"`
	CompletedAt  *time.Time      `json:"completedAt,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (j Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Tracker holds in-memory job state and is safe for concurrent use. Job
// state is memory-resident on purpose: the reasoning service is the source
// of truth and jobs are cheap to resubmit after a restart.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]Job
	now  func() time.Time
}

// NewTracker constructs an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		jobs: make(map[string]Job),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Submit registers a new queued job. Every submission creates a fresh job id.
func (t *Tracker) Submit(kind, targetKey string) Job {
	job := Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		TargetKey: targetKey,
		Status:    StatusQueued,
		CreatedAt: t.now(),
	}
	t.mu.Lock()
	t.jobs[job.ID] = job
	t.mu.Unlock()
	return job
}

// Get returns a job by id. Reads are idempotent: a terminal job returns the
// same snapshot on every call.
func (t *Tracker) Get(jobID string) (Job, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	return job, nil
}

// SetProcessing moves a queued job to processing. Terminal jobs are left
// untouched so a late worker update can never resurrect a finished job.
func (t *Tracker) SetProcessing(jobID string) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	if job.Terminal() {
		return job, nil
	}
	now := t.now()
	job.Status = StatusProcessing
	if job.StartedAt == nil {
		job.StartedAt = &now
	}
	t.jobs[jobID] = job
	return job, nil
}

// SetProgress raises the progress percentage of a processing job. Progress
// is monotone: lower values than the current one are dropped, and values
// are clamped to [0,99] until completion.
func (t *Tracker) SetProgress(jobID string, pct int) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	if job.Terminal() {
		return job, nil
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 99 {
		pct = 99
	}
	if pct > job.Progress {
		job.Progress = pct
		t.jobs[jobID] = job
	}
	return job, nil
}

// Complete moves a job to its terminal completed state with the result
// attached. Completing an already-terminal job is a no-op.
func (t *Tracker) Complete(jobID string, result json.RawMessage) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	if job.Terminal() {
		return job, nil
	}
	now := t.now()
	job.Status = StatusCompleted
	job.Progress = 100
	job.Result = result
	job.CompletedAt = &now
	t.jobs[jobID] = job
	return job, nil
}

// Fail moves a job to its terminal failed state with the error attached.
// Failing an already-terminal job is a no-op.
func (t *Tracker) Fail(jobID, code, message string) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	if job.Terminal() {
		return job, nil
	}
	now := t.now()
	job.Status = StatusFailed
	job.ErrorCode = code
	job.ErrorMessage = message
	job.CompletedAt = &now
	t.jobs[jobID] = job
	return job, nil
}

// Await polls a job until it reaches a terminal state or maxWait elapses.
// A timeout returns ErrPollTimeout, distinct from the job itself failing;
// the job keeps running and a later Get still observes its terminal result.
func (t *Tracker) Await(ctx context.Context, jobID string, interval, maxWait time.Duration) (Job, error) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	job, err := t.Get(jobID)
	if err != nil {
		return Job{}, err
	}
	if job.Terminal() {
		return job, nil
	}

	deadline := time.NewTimer(maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-deadline.C:
			return job, ErrPollTimeout
		case <-ticker.C:
			job, err = t.Get(jobID)
			if err != nil {
				return Job{}, err
			}
			if job.Terminal() {
				return job, nil
			}
		}
	}
}
