package enhancements

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"procurement-backend/internal/insights"
	"procurement-backend/internal/queue"
	"procurement-backend/internal/reasoning"
	"procurement-backend/internal/shared/metrics"
	"procurement-backend/internal/shared/storage/object"
	"procurement-backend/internal/shared/telemetry"
	"procurement-backend/internal/shared/util"
)

// EnhancementOutcome is the result of an enhancement request. Exactly one
// of Job and Result is set: Result when the cache answered, Job otherwise.
type EnhancementOutcome struct {
	Job    *Job
	Result *EnhancementResult
	Cached bool
}

// BulkService runs strategic enhancement passes over whole insight sets.
// Results are cached per set identity so identical sets never pay for a
// second reasoning call.
type BulkService struct {
	Jobs       *Tracker
	Reasoner   reasoning.Client
	Store      object.ObjectStore
	Queue      queue.Client
	SetVersion string

	mu       sync.Mutex
	results  map[string]EnhancementResult
	inflight map[string]string
	payloads map[string][]insights.Insight
}

// NewBulkService constructs a BulkService around a shared job tracker.
func NewBulkService(jobs *Tracker, reasoner reasoning.Client, store object.ObjectStore, q queue.Client, setVersion string) *BulkService {
	return &BulkService{
		Jobs:       jobs,
		Reasoner:   reasoner,
		Store:      store,
		Queue:      q,
		SetVersion: setVersion,
		results:    make(map[string]EnhancementResult),
		inflight:   make(map[string]string),
		payloads:   make(map[string][]insights.Insight),
	}
}

func (s *BulkService) setKey(list []insights.Insight) string {
	ids := make([]string, 0, len(list))
	for _, ins := range list {
		ids = append(ids, ins.ID)
	}
	return util.HashIDSet(ids, s.SetVersion)
}

// RequestEnhancement starts or reuses an enhancement run for the given
// insight set. With force set, the cached result for the set is bypassed
// and recomputed; an already-running job for the same set is always reused
// so concurrent requests collapse into one reasoning call.
func (s *BulkService) RequestEnhancement(ctx context.Context, list []insights.Insight, force bool) (EnhancementOutcome, error) {
	if s.Reasoner == nil {
		return EnhancementOutcome{}, ErrNotConfigured
	}
	if len(list) == 0 {
		return EnhancementOutcome{}, ErrEmptyInsightSet
	}

	key := s.setKey(list)

	s.mu.Lock()
	if !force {
		if cached, ok := s.results[key]; ok {
			s.mu.Unlock()
			metrics.IncEnhancementCacheHit()
			telemetry.Info("enhancement cache hit", map[string]any{
				"setKey":    key,
				"requestId": requestIDFromContext(ctx),
			})
			return EnhancementOutcome{Result: &cached, Cached: true}, nil
		}
	}
	if jobID, ok := s.inflight[key]; ok {
		if job, err := s.Jobs.Get(jobID); err == nil && !job.Terminal() {
			s.mu.Unlock()
			return EnhancementOutcome{Job: &job}, nil
		}
		delete(s.inflight, key)
	}

	job := s.Jobs.Submit(KindBulkEnhancement, key)
	s.inflight[key] = job.ID
	snapshot := make([]insights.Insight, len(list))
	copy(snapshot, list)
	s.payloads[job.ID] = snapshot
	s.mu.Unlock()

	metrics.IncEnhancementStarted()
	telemetry.Info("enhancement queued", map[string]any{
		"jobId":     job.ID,
		"setKey":    key,
		"insights":  len(list),
		"requestId": requestIDFromContext(ctx),
	})
	s.emitEvent(ctx, queue.EventJobQueued, job, "")

	go s.ProcessBulkJob(backgroundWithRequestID(ctx), job.ID)

	return EnhancementOutcome{Job: &job}, nil
}

// ProcessBulkJob runs one queued enhancement job to its terminal state.
func (s *BulkService) ProcessBulkJob(ctx context.Context, jobID string) {
	started := time.Now()

	s.mu.Lock()
	payload, ok := s.payloads[jobID]
	s.mu.Unlock()
	if !ok {
		s.failJob(ctx, jobID, fmt.Errorf("validation: payload missing for job"))
		return
	}

	job, err := s.Jobs.SetProcessing(jobID)
	if err != nil {
		telemetry.Error("enhancement set processing", map[string]any{
			"jobId": jobID,
			"error": sanitizeError(err),
		})
		return
	}

	client := newRetryingClient(s.Reasoner, jobID, requestIDFromContext(ctx))
	s.Jobs.SetProgress(jobID, 10)

	raw, err := client.EnhanceInsights(ctx, reasoning.EnhanceInput{Insights: payload})
	if err != nil {
		s.failJob(ctx, jobID, err)
		return
	}
	s.Jobs.SetProgress(jobID, 70)

	if s.Store != nil {
		storageKey := fmt.Sprintf("enhancements/%s.json", jobID)
		if _, saveErr := s.Store.SaveWithKey(ctx, storageKey, "application/json", bytes.NewReader(raw)); saveErr != nil {
			telemetry.Warn("enhancement raw save", map[string]any{
				"jobId": jobID,
				"error": sanitizeError(saveErr),
			})
		}
	}

	result, err := ParseEnhancementResult(raw)
	if err != nil {
		// One repair pass: feed the malformed output back through the
		// reasoning service before giving up.
		telemetry.Warn("enhancement output repair", map[string]any{
			"jobId": jobID,
			"error": sanitizeError(err),
		})
		fixed, fixErr := client.EnhanceInsights(reasoning.WithFixJSON(ctx, string(raw)), reasoning.EnhanceInput{Insights: payload})
		if fixErr != nil {
			s.failJob(ctx, jobID, fmt.Errorf("reasoning output parse: %w", err))
			return
		}
		result, err = ParseEnhancementResult(fixed)
		if err != nil {
			s.failJob(ctx, jobID, fmt.Errorf("reasoning output parse: %w", err))
			return
		}
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		s.failJob(ctx, jobID, fmt.Errorf("reasoning output encode: %w", err))
		return
	}

	// Cache under the submission-time key even if every poller has gone
	// away: the next identical set gets the answer for free.
	s.mu.Lock()
	s.results[job.TargetKey] = result
	delete(s.inflight, job.TargetKey)
	delete(s.payloads, jobID)
	s.mu.Unlock()

	done, err := s.Jobs.Complete(jobID, encoded)
	if err != nil {
		telemetry.Error("enhancement complete", map[string]any{
			"jobId": jobID,
			"error": sanitizeError(err),
		})
		return
	}

	metrics.IncEnhancementCompleted()
	metrics.ObserveJobDurationMs(float64(time.Since(started).Milliseconds()))
	telemetry.Info("enhancement completed", map[string]any{
		"jobId":      jobID,
		"setKey":     job.TargetKey,
		"durationMs": time.Since(started).Milliseconds(),
		"requestId":  requestIDFromContext(ctx),
	})
	s.emitEvent(ctx, queue.EventJobCompleted, done, "")
}

func (s *BulkService) failJob(ctx context.Context, jobID string, cause error) {
	code, _ := classifyFailure(cause)

	s.mu.Lock()
	if job, err := s.Jobs.Get(jobID); err == nil {
		delete(s.inflight, job.TargetKey)
	}
	delete(s.payloads, jobID)
	s.mu.Unlock()

	job, err := s.Jobs.Fail(jobID, code, sanitizeError(cause))
	if err != nil {
		telemetry.Error("enhancement fail", map[string]any{
			"jobId": jobID,
			"error": sanitizeError(err),
		})
		return
	}

	metrics.IncEnhancementFailed()
	telemetry.Error("enhancement failed", map[string]any{
		"jobId":     jobID,
		"errorCode": code,
		"error":     sanitizeError(cause),
		"requestId": requestIDFromContext(ctx),
	})
	s.emitEvent(ctx, queue.EventJobFailed, job, code)
}

// emitEvent publishes a job lifecycle event when a queue is configured.
// Delivery is best effort; job state never depends on it.
func (s *BulkService) emitEvent(ctx context.Context, event string, job Job, errorCode string) {
	if s.Queue == nil {
		return
	}
	msg := queue.Message{
		Event:      event,
		JobKind:    job.Kind,
		JobID:      job.ID,
		TargetKey:  job.TargetKey,
		RequestID:  requestIDFromContext(ctx),
		ErrorCode:  errorCode,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    1,
	}
	if err := s.Queue.Send(ctx, msg); err != nil {
		telemetry.Warn("queue send", map[string]any{
			"jobId": job.ID,
			"event": event,
			"error": sanitizeError(err),
		})
	}
}
