package enhancements

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestTrackerLifecycle(t *testing.T) {
	tracker := NewTracker()

	job := tracker.Submit(KindBulkEnhancement, "set-1")
	if job.Status != StatusQueued {
		t.Fatalf("status = %s, want %s", job.Status, StatusQueued)
	}
	if job.ID == "" {
		t.Fatal("expected job id")
	}

	job, err := tracker.SetProcessing(job.ID)
	if err != nil {
		t.Fatalf("set processing: %v", err)
	}
	if job.Status != StatusProcessing {
		t.Fatalf("status = %s, want %s", job.Status, StatusProcessing)
	}
	if job.StartedAt == nil {
		t.Fatal("expected started timestamp")
	}

	job, err = tracker.Complete(job.ID, json.RawMessage(`{"ok":true}`))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if job.Status != StatusCompleted {
		t.Fatalf("status = %s, want %s", job.Status, StatusCompleted)
	}
	if job.Progress != 100 {
		t.Fatalf("progress = %d, want 100", job.Progress)
	}
	if job.CompletedAt == nil {
		t.Fatal("expected completed timestamp")
	}
}

func TestTrackerGetUnknownJob(t *testing.T) {
	tracker := NewTracker()
	if _, err := tracker.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestTrackerProgressMonotone(t *testing.T) {
	tracker := NewTracker()
	job := tracker.Submit(KindDeepAnalysis, "insight-1")
	tracker.SetProcessing(job.ID)

	tracker.SetProgress(job.ID, 40)
	got, _ := tracker.SetProgress(job.ID, 20)
	if got.Progress != 40 {
		t.Fatalf("progress = %d, want 40 after lower update", got.Progress)
	}

	got, _ = tracker.SetProgress(job.ID, 150)
	if got.Progress != 99 {
		t.Fatalf("progress = %d, want clamp to 99", got.Progress)
	}
}

func TestTrackerTerminalStateIsFinal(t *testing.T) {
	tracker := NewTracker()
	job := tracker.Submit(KindBulkEnhancement, "set-1")
	tracker.SetProcessing(job.ID)
	tracker.Fail(job.ID, ErrorCodeTimeout, "reasoning timed out")

	got, err := tracker.Complete(job.ID, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("complete after fail: %v", err)
	}
	if got.Status != StatusFailed {
		t.Fatalf("status = %s, want failed to stick", got.Status)
	}
	if got.ErrorCode != ErrorCodeTimeout {
		t.Fatalf("errorCode = %s, want %s", got.ErrorCode, ErrorCodeTimeout)
	}

	got, _ = tracker.SetProgress(job.ID, 90)
	if got.Progress != 0 {
		t.Fatalf("progress = %d, want terminal job untouched", got.Progress)
	}
}

func TestTrackerAwaitReturnsTerminalJob(t *testing.T) {
	tracker := NewTracker()
	job := tracker.Submit(KindBulkEnhancement, "set-1")

	go func() {
		time.Sleep(20 * time.Millisecond)
		tracker.SetProcessing(job.ID)
		tracker.Complete(job.ID, json.RawMessage(`{"done":true}`))
	}()

	got, err := tracker.Await(context.Background(), job.ID, 5*time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status = %s, want %s", got.Status, StatusCompleted)
	}
}

func TestTrackerAwaitTimesOut(t *testing.T) {
	tracker := NewTracker()
	job := tracker.Submit(KindBulkEnhancement, "set-1")

	_, err := tracker.Await(context.Background(), job.ID, 5*time.Millisecond, 30*time.Millisecond)
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("err = %v, want ErrPollTimeout", err)
	}

	// The job keeps running; a later completion is still observable.
	tracker.SetProcessing(job.ID)
	tracker.Complete(job.ID, json.RawMessage(`{}`))
	got, err := tracker.Get(job.ID)
	if err != nil {
		t.Fatalf("get after timeout: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status = %s, want %s", got.Status, StatusCompleted)
	}
}

func TestTrackerAwaitHonorsContext(t *testing.T) {
	tracker := NewTracker()
	job := tracker.Submit(KindBulkEnhancement, "set-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tracker.Await(ctx, job.ID, 5*time.Millisecond, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
