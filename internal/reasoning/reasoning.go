package reasoning

import (
	"context"
	"encoding/json"

	"procurement-backend/internal/insights"
)

// Client abstracts reasoning-service providers for insight enhancement.
type Client interface {
	EnhanceInsights(ctx context.Context, input EnhanceInput) (json.RawMessage, error)
	AnalyzeInsight(ctx context.Context, input AnalyzeInput) (json.RawMessage, error)
}

// EnhanceInput captures the inputs for a strategic enhancement pass over
// the whole insight set.
type EnhanceInput struct {
	Insights []insights.Insight
}

// AnalyzeInput captures the inputs for a deep analysis of one insight.
type AnalyzeInput struct {
	Insight insights.Insight
}

type fixJSONKey struct{}

// WithFixJSON returns a context signaling a fix-JSON retry with the given raw output.
func WithFixJSON(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, fixJSONKey{}, raw)
}

// FixJSONFromContext returns the raw JSON to repair, if any.
func FixJSONFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(fixJSONKey{})
	raw, ok := val.(string)
	return raw, ok
}
