package insights

import (
	"context"
	"sync"
)

// Source supplies the current insight collection and its summary. The
// generation of insights (scoring, anomaly detection, clustering) happens
// in an external analytics service; this interface is the read boundary.
type Source interface {
	Insights(ctx context.Context) ([]Insight, error)
	Summary(ctx context.Context) (Summary, error)
	GetByID(ctx context.Context, insightID string) (Insight, error)
}

// MemorySource holds a static insight set and is safe for concurrent use.
// It backs dev environments and tests.
type MemorySource struct {
	mu       sync.RWMutex
	insights []Insight
	summary  Summary
}

// NewMemorySource constructs an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{}
}

// SetInsights replaces the held insight set and recomputes the summary.
func (s *MemorySource) SetInsights(list []Insight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insights = make([]Insight, len(list))
	copy(s.insights, list)
	s.summary = summarize(s.insights)
}

// Insights returns a copy of the held insight set.
func (s *MemorySource) Insights(ctx context.Context) ([]Insight, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Insight, len(s.insights))
	copy(out, s.insights)
	return out, nil
}

// Summary returns the aggregate over the held insight set.
func (s *MemorySource) Summary(ctx context.Context) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary, nil
}

// GetByID returns a single insight by its ID.
func (s *MemorySource) GetByID(ctx context.Context, insightID string) (Insight, error) {
	if err := ctx.Err(); err != nil {
		return Insight{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ins := range s.insights {
		if ins.ID == insightID {
			return ins, nil
		}
	}
	return Insight{}, ErrNotFound
}

func summarize(list []Insight) Summary {
	sum := Summary{TotalInsights: len(list)}
	if len(list) == 0 {
		return sum
	}
	var confidenceTotal float64
	for _, ins := range list {
		sum.TotalPotentialSavings += ins.PotentialSavings
		confidenceTotal += ins.Confidence
		if ins.Severity == SeverityHigh {
			sum.HighSeverityCount++
		}
	}
	sum.AverageConfidence = confidenceTotal / float64(len(list))
	return sum
}
