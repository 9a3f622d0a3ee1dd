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
)

// DeepService runs per-insight deep analysis jobs. Unlike bulk enhancement
// there is no result cache: each request reflects the insight as submitted,
// and only a still-running job for the same insight is reused.
type DeepService struct {
	Jobs     *Tracker
	Reasoner reasoning.Client
	Store    object.ObjectStore
	Queue    queue.Client

	mu       sync.Mutex
	inflight map[string]string
	payloads map[string]insights.Insight
}

// NewDeepService constructs a DeepService around a shared job tracker.
func NewDeepService(jobs *Tracker, reasoner reasoning.Client, store object.ObjectStore, q queue.Client) *DeepService {
	return &DeepService{
		Jobs:     jobs,
		Reasoner: reasoner,
		Store:    store,
		Queue:    q,
		inflight: make(map[string]string),
		payloads: make(map[string]insights.Insight),
	}
}

// RequestAnalysis starts a deep analysis job for one insight, reusing a
// still-running job for the same insight id. A finished job never blocks a
// fresh run.
func (s *DeepService) RequestAnalysis(ctx context.Context, ins insights.Insight) (Job, error) {
	if s.Reasoner == nil {
		return Job{}, ErrNotConfigured
	}
	if ins.ID == "" {
		return Job{}, ErrMissingInsight
	}

	s.mu.Lock()
	if jobID, ok := s.inflight[ins.ID]; ok {
		if job, err := s.Jobs.Get(jobID); err == nil && !job.Terminal() {
			s.mu.Unlock()
			return job, nil
		}
		delete(s.inflight, ins.ID)
	}

	job := s.Jobs.Submit(KindDeepAnalysis, ins.ID)
	s.inflight[ins.ID] = job.ID
	s.payloads[job.ID] = ins
	s.mu.Unlock()

	metrics.IncAnalysisStarted()
	telemetry.Info("analysis queued", map[string]any{
		"jobId":     job.ID,
		"insightId": ins.ID,
		"requestId": requestIDFromContext(ctx),
	})
	s.emitEvent(ctx, queue.EventJobQueued, job, "")

	go s.ProcessDeepJob(backgroundWithRequestID(ctx), job.ID)

	return job, nil
}

// ProcessDeepJob runs one queued analysis job to its terminal state.
func (s *DeepService) ProcessDeepJob(ctx context.Context, jobID string) {
	started := time.Now()

	s.mu.Lock()
	ins, ok := s.payloads[jobID]
	s.mu.Unlock()
	if !ok {
		s.failJob(ctx, jobID, fmt.Errorf("validation: payload missing for job"))
		return
	}

	if _, err := s.Jobs.SetProcessing(jobID); err != nil {
		telemetry.Error("analysis set processing", map[string]any{
			"jobId": jobID,
			"error": sanitizeError(err),
		})
		return
	}

	client := newRetryingClient(s.Reasoner, jobID, requestIDFromContext(ctx))
	s.Jobs.SetProgress(jobID, 10)

	raw, err := client.AnalyzeInsight(ctx, reasoning.AnalyzeInput{Insight: ins})
	if err != nil {
		s.failJob(ctx, jobID, err)
		return
	}
	s.Jobs.SetProgress(jobID, 70)

	if s.Store != nil {
		storageKey := fmt.Sprintf("analyses/%s.json", jobID)
		if _, saveErr := s.Store.SaveWithKey(ctx, storageKey, "application/json", bytes.NewReader(raw)); saveErr != nil {
			telemetry.Warn("analysis raw save", map[string]any{
				"jobId": jobID,
				"error": sanitizeError(saveErr),
			})
		}
	}

	result, err := ParseInsightAnalysis(raw, ins.ID)
	if err != nil {
		// One repair pass: feed the malformed output back through the
		// reasoning service before giving up.
		telemetry.Warn("analysis output repair", map[string]any{
			"jobId": jobID,
			"error": sanitizeError(err),
		})
		fixed, fixErr := client.AnalyzeInsight(reasoning.WithFixJSON(ctx, string(raw)), reasoning.AnalyzeInput{Insight: ins})
		if fixErr != nil {
			s.failJob(ctx, jobID, fmt.Errorf("reasoning output parse: %w", err))
			return
		}
		result, err = ParseInsightAnalysis(fixed, ins.ID)
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

	s.mu.Lock()
	delete(s.inflight, ins.ID)
	delete(s.payloads, jobID)
	s.mu.Unlock()

	done, err := s.Jobs.Complete(jobID, encoded)
	if err != nil {
		telemetry.Error("analysis complete", map[string]any{
			"jobId": jobID,
			"error": sanitizeError(err),
		})
		return
	}

	metrics.IncAnalysisCompleted()
	metrics.ObserveJobDurationMs(float64(time.Since(started).Milliseconds()))
	telemetry.Info("analysis completed", map[string]any{
		"jobId":      jobID,
		"insightId":  ins.ID,
		"durationMs": time.Since(started).Milliseconds(),
		"requestId":  requestIDFromContext(ctx),
	})
	s.emitEvent(ctx, queue.EventJobCompleted, done, "")
}

func (s *DeepService) failJob(ctx context.Context, jobID string, cause error) {
	code, _ := classifyFailure(cause)

	s.mu.Lock()
	if job, err := s.Jobs.Get(jobID); err == nil {
		delete(s.inflight, job.TargetKey)
	}
	delete(s.payloads, jobID)
	s.mu.Unlock()

	job, err := s.Jobs.Fail(jobID, code, sanitizeError(cause))
	if err != nil {
		telemetry.Error("analysis fail", map[string]any{
			"jobId": jobID,
			"error": sanitizeError(err),
		})
		return
	}

	metrics.IncAnalysisFailed()
	telemetry.Error("analysis failed", map[string]any{
		"jobId":     jobID,
		"errorCode": code,
		"error":     sanitizeError(cause),
		"requestId": requestIDFromContext(ctx),
	})
	s.emitEvent(ctx, queue.EventJobFailed, job, code)
}

func (s *DeepService) emitEvent(ctx context.Context, event string, job Job, errorCode string) {
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
