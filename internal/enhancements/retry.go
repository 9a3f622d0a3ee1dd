package enhancements

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"strings"
	"time"

	"procurement-backend/internal/reasoning"
)

const reasoningRetryBaseDelay = 300 * time.Millisecond

type retryingClient struct {
	base      reasoning.Client
	requestID string
	jobID     string
}

func newRetryingClient(base reasoning.Client, jobID, requestID string) reasoning.Client {
	if base == nil {
		return nil
	}
	return retryingClient{
		base:      base,
		requestID: requestID,
		jobID:     jobID,
	}
}

func (r retryingClient) EnhanceInsights(ctx context.Context, input reasoning.EnhanceInput) (json.RawMessage, error) {
	return r.call(ctx, func(ctx context.Context) (json.RawMessage, error) {
		return r.base.EnhanceInsights(ctx, input)
	})
}

func (r retryingClient) AnalyzeInsight(ctx context.Context, input reasoning.AnalyzeInput) (json.RawMessage, error) {
	return r.call(ctx, func(ctx context.Context) (json.RawMessage, error) {
		return r.base.AnalyzeInsight(ctx, input)
	})
}

func (r retryingClient) call(ctx context.Context, fn func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	resp, err := fn(ctx)
	if err == nil || !shouldRetryReasoning(err) {
		return resp, err
	}

	log.Printf("reasoning retry attempt=1 request_id=%s job_id=%s error=%s", r.requestID, r.jobID, sanitizeError(err))
	select {
	case <-time.After(reasoningRetryBaseDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return fn(ctx)
}

func shouldRetryReasoning(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "openai") || strings.Contains(msg, "reasoning") || strings.Contains(msg, "client.timeout")) {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}

func classifyFailure(err error) (string, bool) {
	if err == nil {
		return ErrorCodeInternal, false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeTimeout, true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "openai request timeout") {
		return ErrorCodeTimeout, true
	}
	if strings.Contains(msg, "timeout") && strings.Contains(msg, "reasoning") {
		return ErrorCodeTimeout, true
	}
	if strings.Contains(msg, "schema") || strings.Contains(msg, "reasoning output invalid") || strings.Contains(msg, "reasoning output parse") {
		return ErrorCodeSchemaMismatch, false
	}
	if strings.Contains(msg, "reasoning validate") || strings.Contains(msg, "reasoning output") {
		return ErrorCodeSchemaMismatch, false
	}
	if strings.Contains(msg, "validation") && !strings.Contains(msg, "reasoning") {
		return ErrorCodeValidation, false
	}
	if strings.Contains(msg, "storage") || strings.Contains(msg, "enhancement raw") || strings.Contains(msg, "analysis raw") || strings.Contains(msg, "set processing") {
		return ErrorCodeStorage, true
	}
	return ErrorCodeInternal, false
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
