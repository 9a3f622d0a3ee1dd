package enhancements

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"procurement-backend/internal/insights"
	"procurement-backend/internal/reasoning"
	"procurement-backend/internal/shared/storage/object/local"
)

const validEnhancementJSON = `{
	"strategicSummary": "Consolidate suppliers in the top spend category.",
	"quickWins": ["Renegotiate the Acme contract"],
	"priorityActions": [
		{"action": "Consolidate office supply vendors", "impact": "high", "effort": "low", "savingsEstimate": 12000, "timeframe": "30 days"}
	],
	"riskAssessment": {"overallRisk": "medium", "keyRisks": ["Single supplier dependency"], "mitigations": ["Qualify a backup supplier"]}
}`

type staticReasoner struct {
	enhanceResp string
	analyzeResp string
	err         error
}

func (s staticReasoner) EnhanceInsights(ctx context.Context, input reasoning.EnhanceInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.enhanceResp), nil
}

func (s staticReasoner) AnalyzeInsight(ctx context.Context, input reasoning.AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.analyzeResp), nil
}

// blockingReasoner holds every call until released, so tests can observe
// in-flight state deterministically.
type blockingReasoner struct {
	release chan struct{}
	resp    string
}

func (b *blockingReasoner) EnhanceInsights(ctx context.Context, input reasoning.EnhanceInput) (json.RawMessage, error) {
	_ = input
	select {
	case <-b.release:
		return json.RawMessage(b.resp), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *blockingReasoner) AnalyzeInsight(ctx context.Context, input reasoning.AnalyzeInput) (json.RawMessage, error) {
	_ = input
	select {
	case <-b.release:
		return json.RawMessage(b.resp), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// repairingReasoner returns malformed output until it is handed that output
// back for repair.
type repairingReasoner struct {
	bad  string
	good string
}

func (r repairingReasoner) EnhanceInsights(ctx context.Context, input reasoning.EnhanceInput) (json.RawMessage, error) {
	_ = input
	if _, fix := reasoning.FixJSONFromContext(ctx); fix {
		return json.RawMessage(r.good), nil
	}
	return json.RawMessage(r.bad), nil
}

func (r repairingReasoner) AnalyzeInsight(ctx context.Context, input reasoning.AnalyzeInput) (json.RawMessage, error) {
	_ = input
	if _, fix := reasoning.FixJSONFromContext(ctx); fix {
		return json.RawMessage(r.good), nil
	}
	return json.RawMessage(r.bad), nil
}

func sampleInsights() []insights.Insight {
	return []insights.Insight{
		{ID: "ins-1", Type: insights.TypeCostOptimization, Severity: insights.SeverityHigh, Title: "Duplicate suppliers", Confidence: 0.9, PotentialSavings: 15000},
		{ID: "ins-2", Type: insights.TypeRisk, Severity: insights.SeverityMedium, Title: "Contract expiring", Confidence: 0.8},
	}
}

func newBulkService(t *testing.T, client reasoning.Client) *BulkService {
	t.Helper()
	return NewBulkService(NewTracker(), client, local.New(t.TempDir()), nil, "v1")
}

func awaitJob(t *testing.T, tracker *Tracker, jobID string) Job {
	t.Helper()
	job, err := tracker.Await(context.Background(), jobID, 5*time.Millisecond, 2*time.Second)
	if err != nil {
		t.Fatalf("await job: %v", err)
	}
	return job
}

func TestRequestEnhancementCompletes(t *testing.T) {
	svc := newBulkService(t, staticReasoner{enhanceResp: validEnhancementJSON})

	outcome, err := svc.RequestEnhancement(context.Background(), sampleInsights(), false)
	if err != nil {
		t.Fatalf("request enhancement: %v", err)
	}
	if outcome.Cached || outcome.Job == nil {
		t.Fatalf("expected a queued job, got %+v", outcome)
	}

	job := awaitJob(t, svc.Jobs, outcome.Job.ID)
	if job.Status != StatusCompleted {
		t.Fatalf("status = %s (%s: %s)", job.Status, job.ErrorCode, job.ErrorMessage)
	}

	var result EnhancementResult
	if err := json.Unmarshal(job.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.StrategicSummary == "" {
		t.Fatal("expected strategic summary in result")
	}
}

func TestRequestEnhancementServesCache(t *testing.T) {
	svc := newBulkService(t, staticReasoner{enhanceResp: validEnhancementJSON})

	first, err := svc.RequestEnhancement(context.Background(), sampleInsights(), false)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	awaitJob(t, svc.Jobs, first.Job.ID)

	second, err := svc.RequestEnhancement(context.Background(), sampleInsights(), false)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	if !second.Cached || second.Result == nil {
		t.Fatalf("expected cache hit, got %+v", second)
	}

	// A permuted copy of the same set is the same set.
	reversed := sampleInsights()
	reversed[0], reversed[1] = reversed[1], reversed[0]
	third, err := svc.RequestEnhancement(context.Background(), reversed, false)
	if err != nil {
		t.Fatalf("third request: %v", err)
	}
	if !third.Cached {
		t.Fatal("expected cache hit for permuted set")
	}
}

func TestRequestEnhancementForceBypassesCache(t *testing.T) {
	svc := newBulkService(t, staticReasoner{enhanceResp: validEnhancementJSON})

	first, err := svc.RequestEnhancement(context.Background(), sampleInsights(), false)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	awaitJob(t, svc.Jobs, first.Job.ID)

	forced, err := svc.RequestEnhancement(context.Background(), sampleInsights(), true)
	if err != nil {
		t.Fatalf("forced request: %v", err)
	}
	if forced.Cached || forced.Job == nil {
		t.Fatalf("expected a fresh job on force, got %+v", forced)
	}
	if forced.Job.ID == first.Job.ID {
		t.Fatal("force reused the previous job")
	}
}

func TestRequestEnhancementCollapsesConcurrentRequests(t *testing.T) {
	client := &blockingReasoner{release: make(chan struct{}), resp: validEnhancementJSON}
	svc := newBulkService(t, client)

	first, err := svc.RequestEnhancement(context.Background(), sampleInsights(), false)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}

	second, err := svc.RequestEnhancement(context.Background(), sampleInsights(), false)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	if second.Job == nil || second.Job.ID != first.Job.ID {
		t.Fatalf("expected in-flight job reuse, got %+v", second)
	}

	close(client.release)
	job := awaitJob(t, svc.Jobs, first.Job.ID)
	if job.Status != StatusCompleted {
		t.Fatalf("status = %s", job.Status)
	}
}

func TestRequestEnhancementValidation(t *testing.T) {
	svc := newBulkService(t, staticReasoner{enhanceResp: validEnhancementJSON})
	if _, err := svc.RequestEnhancement(context.Background(), nil, false); !errors.Is(err, ErrEmptyInsightSet) {
		t.Fatalf("err = %v, want ErrEmptyInsightSet", err)
	}

	unconfigured := NewBulkService(NewTracker(), nil, nil, nil, "v1")
	if _, err := unconfigured.RequestEnhancement(context.Background(), sampleInsights(), false); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestRequestEnhancementFailureClassified(t *testing.T) {
	svc := newBulkService(t, staticReasoner{err: errors.New("openai request timeout after 90s")})

	outcome, err := svc.RequestEnhancement(context.Background(), sampleInsights(), false)
	if err != nil {
		t.Fatalf("request enhancement: %v", err)
	}

	job := awaitJob(t, svc.Jobs, outcome.Job.ID)
	if job.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", job.Status)
	}
	if job.ErrorCode != ErrorCodeTimeout {
		t.Fatalf("errorCode = %s, want %s", job.ErrorCode, ErrorCodeTimeout)
	}

	// A failed run never poisons the cache; the retry submits a new job.
	retry, err := svc.RequestEnhancement(context.Background(), sampleInsights(), false)
	if err != nil {
		t.Fatalf("retry request: %v", err)
	}
	if retry.Cached {
		t.Fatal("failed run was cached")
	}
	if retry.Job.ID == outcome.Job.ID {
		t.Fatal("retry reused the failed job")
	}
}

func TestRequestEnhancementRepairsMalformedOutput(t *testing.T) {
	svc := newBulkService(t, repairingReasoner{bad: `{"strategicSummary": ""}`, good: validEnhancementJSON})

	outcome, err := svc.RequestEnhancement(context.Background(), sampleInsights(), false)
	if err != nil {
		t.Fatalf("request enhancement: %v", err)
	}

	job := awaitJob(t, svc.Jobs, outcome.Job.ID)
	if job.Status != StatusCompleted {
		t.Fatalf("status = %s (%s: %s)", job.Status, job.ErrorCode, job.ErrorMessage)
	}

	var result EnhancementResult
	if err := json.Unmarshal(job.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.StrategicSummary == "" {
		t.Fatal("expected repaired result")
	}
}

func TestRequestEnhancementSchemaMismatch(t *testing.T) {
	svc := newBulkService(t, staticReasoner{enhanceResp: `{"strategicSummary": ""}`})

	outcome, err := svc.RequestEnhancement(context.Background(), sampleInsights(), false)
	if err != nil {
		t.Fatalf("request enhancement: %v", err)
	}

	job := awaitJob(t, svc.Jobs, outcome.Job.ID)
	if job.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", job.Status)
	}
	if job.ErrorCode != ErrorCodeSchemaMismatch {
		t.Fatalf("errorCode = %s, want %s", job.ErrorCode, ErrorCodeSchemaMismatch)
	}
}
