package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"procurement-backend/internal/reasoning"
)

const (
	apiURL = "https://api.openai.com/v1/chat/completions"
)

// Client implements reasoning.Client using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("REASONING_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float32       `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// EnhanceInsights runs the strategic enhancement prompt over the whole set.
func (c *Client) EnhanceInsights(ctx context.Context, input reasoning.EnhanceInput) (json.RawMessage, error) {
	if rawFix, hasFix := reasoning.FixJSONFromContext(ctx); hasFix {
		return c.complete(ctx, "enhance", BuildFixPrompt([]byte(rawFix)))
	}
	return c.complete(ctx, "enhance", BuildEnhancePrompt(input.Insights))
}

// AnalyzeInsight runs the focused deep-analysis prompt for one insight.
func (c *Client) AnalyzeInsight(ctx context.Context, input reasoning.AnalyzeInput) (json.RawMessage, error) {
	if rawFix, hasFix := reasoning.FixJSONFromContext(ctx); hasFix {
		return c.complete(ctx, "analyze", BuildFixPrompt([]byte(rawFix)))
	}
	return c.complete(ctx, "analyze", BuildAnalyzePrompt(input.Insight))
}

func (c *Client) complete(ctx context.Context, operation string, messages []Message) (json.RawMessage, error) {
	raw, usage, err := c.completeOnce(ctx, messages)
	if err != nil {
		return nil, err
	}
	logUsage(c.model, operation, usage)

	if json.Valid(raw) {
		return raw, nil
	}

	// One repair pass for almost-JSON output before giving up.
	raw, usage, err = c.completeOnce(ctx, BuildFixPrompt(raw))
	if err != nil {
		return nil, err
	}
	logUsage(c.model, operation, usage)
	if !json.Valid(raw) {
		return nil, fmt.Errorf("invalid JSON from OpenAI")
	}
	return raw, nil
}

func (c *Client) completeOnce(ctx context.Context, messages []Message) (json.RawMessage, *chatResponseUsage, error) {
	temp := float32(0)
	reqMessages := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		reqMessages = append(reqMessages, chatMessage{Role: m.Role, Content: m.Content})
	}
	reqBody := chatRequest{
		Model:    c.model,
		Messages: reqMessages,
		ResponseFormat: responseFormat{
			Type: "json_object",
		},
	}
	reqBody.Temperature = &temp
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, nil, fmt.Errorf("openai request timeout: %w", err)
		}
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, nil, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return nil, nil, fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return nil, nil, fmt.Errorf("openai response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return nil, nil, fmt.Errorf("openai response empty content")
	}
	return json.RawMessage(content), toUsage(parsed.Usage), nil
}

type chatResponseUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

func toUsage(raw *struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}) *chatResponseUsage {
	if raw == nil {
		return nil
	}
	return &chatResponseUsage{
		PromptTokens:     raw.PromptTokens,
		CompletionTokens: raw.CompletionTokens,
		TotalTokens:      raw.TotalTokens,
	}
}

func logUsage(model, operation string, usage *chatResponseUsage) {
	if usage == nil {
		log.Printf("reasoning response model=%s operation=%s", model, operation)
		return
	}
	log.Printf("reasoning response model=%s operation=%s prompt_tokens=%d completion_tokens=%d total_tokens=%d",
		model, operation, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
}

var _ reasoning.Client = (*Client)(nil)
