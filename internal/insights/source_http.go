package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPSource reads insights from the external analytics API.
type HTTPSource struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPSource constructs an HTTPSource for the given analytics endpoint.
func NewHTTPSource(baseURL, apiKey string) (*HTTPSource, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("ANALYTICS_API_URL is required")
	}
	return &HTTPSource{
		baseURL: trimmed,
		apiKey:  strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

type insightsEnvelope struct {
	Insights []Insight `json:"insights"`
	Summary  Summary   `json:"summary"`
}

// Insights fetches the full current insight collection.
func (s *HTTPSource) Insights(ctx context.Context) ([]Insight, error) {
	env, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return env.Insights, nil
}

// Summary fetches the one-shot aggregate for the current insight set.
func (s *HTTPSource) Summary(ctx context.Context) (Summary, error) {
	env, err := s.fetch(ctx)
	if err != nil {
		return Summary{}, err
	}
	return env.Summary, nil
}

// GetByID fetches the full set and picks one insight out of it. The
// analytics API has no single-insight endpoint.
func (s *HTTPSource) GetByID(ctx context.Context, insightID string) (Insight, error) {
	env, err := s.fetch(ctx)
	if err != nil {
		return Insight{}, err
	}
	for _, ins := range env.Insights {
		if ins.ID == insightID {
			return ins, nil
		}
	}
	return Insight{}, ErrNotFound
}

func (s *HTTPSource) fetch(ctx context.Context) (insightsEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/insights", nil)
	if err != nil {
		return insightsEnvelope{}, err
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return insightsEnvelope{}, fmt.Errorf("%w: %v", ErrSourceOffline, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return insightsEnvelope{}, fmt.Errorf("%w: http status %d", ErrSourceOffline, resp.StatusCode)
	}

	var env insightsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return insightsEnvelope{}, fmt.Errorf("decode insights payload: %w", err)
	}
	return env, nil
}
