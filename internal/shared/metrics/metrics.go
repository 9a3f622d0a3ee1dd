package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	enhancementStartedTotal   atomic.Uint64
	enhancementCompletedTotal atomic.Uint64
	enhancementFailedTotal    atomic.Uint64
	enhancementCacheHitTotal  atomic.Uint64
	analysisStartedTotal      atomic.Uint64
	analysisCompletedTotal    atomic.Uint64
	analysisFailedTotal       atomic.Uint64
	feedbackRecordedTotal     atomic.Uint64

	jobEventsReceivedTotal             atomic.Uint64
	jobEventsArchivedTotal             atomic.Uint64
	jobEventsFailedTotal               atomic.Uint64
	jobEventsDeletedUnrecoverableTotal atomic.Uint64

	jobDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncEnhancementStarted increments the bulk enhancement started counter.
func IncEnhancementStarted() {
	enhancementStartedTotal.Add(1)
}

// IncEnhancementCompleted increments the bulk enhancement completed counter.
func IncEnhancementCompleted() {
	enhancementCompletedTotal.Add(1)
}

// IncEnhancementFailed increments the bulk enhancement failed counter.
func IncEnhancementFailed() {
	enhancementFailedTotal.Add(1)
}

// IncEnhancementCacheHit increments the enhancement cache hit counter.
func IncEnhancementCacheHit() {
	enhancementCacheHitTotal.Add(1)
}

// IncAnalysisStarted increments the deep analysis started counter.
func IncAnalysisStarted() {
	analysisStartedTotal.Add(1)
}

// IncAnalysisCompleted increments the deep analysis completed counter.
func IncAnalysisCompleted() {
	analysisCompletedTotal.Add(1)
}

// IncAnalysisFailed increments the deep analysis failed counter.
func IncAnalysisFailed() {
	analysisFailedTotal.Add(1)
}

// IncFeedbackRecorded increments the feedback recorded counter.
func IncFeedbackRecorded() {
	feedbackRecordedTotal.Add(1)
}

// IncJobEventsReceived increments the worker job events received counter.
func IncJobEventsReceived() {
	jobEventsReceivedTotal.Add(1)
}

// IncJobEventsArchived increments the worker job events archived counter.
func IncJobEventsArchived() {
	jobEventsArchivedTotal.Add(1)
}

// IncJobEventsFailed increments the worker job events failed counter.
func IncJobEventsFailed() {
	jobEventsFailedTotal.Add(1)
}

// IncJobEventsDeletedUnrecoverable increments the counter for events deleted without processing.
func IncJobEventsDeletedUnrecoverable() {
	jobEventsDeletedUnrecoverableTotal.Add(1)
}

// ObserveJobDurationMs records a reasoning job duration in milliseconds.
func ObserveJobDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	jobDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "enhancement_started_total", "Total bulk enhancements started", enhancementStartedTotal.Load())
	writeCounter(&buf, "enhancement_completed_total", "Total bulk enhancements completed", enhancementCompletedTotal.Load())
	writeCounter(&buf, "enhancement_failed_total", "Total bulk enhancements failed", enhancementFailedTotal.Load())
	writeCounter(&buf, "enhancement_cache_hit_total", "Total bulk enhancements served from cache", enhancementCacheHitTotal.Load())
	writeCounter(&buf, "analysis_started_total", "Total deep analyses started", analysisStartedTotal.Load())
	writeCounter(&buf, "analysis_completed_total", "Total deep analyses completed", analysisCompletedTotal.Load())
	writeCounter(&buf, "analysis_failed_total", "Total deep analyses failed", analysisFailedTotal.Load())
	writeCounter(&buf, "feedback_recorded_total", "Total feedback entries recorded", feedbackRecordedTotal.Load())
	writeCounter(&buf, "job_events_received_total", "Total job events received by the worker", jobEventsReceivedTotal.Load())
	writeCounter(&buf, "job_events_archived_total", "Total job events archived by the worker", jobEventsArchivedTotal.Load())
	writeCounter(&buf, "job_events_failed_total", "Total job events the worker failed to archive", jobEventsFailedTotal.Load())
	writeCounter(&buf, "job_events_deleted_unrecoverable_total", "Total malformed job events deleted without processing", jobEventsDeletedUnrecoverableTotal.Load())
	writeHistogram(&buf, "reasoning_job_duration_ms", "Reasoning job duration in milliseconds", jobDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
