package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"procurement-backend/internal/insights"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

const (
	systemPromptEnhance = "You are a procurement strategy engine. Respond with JSON only. No markdown. Never omit keys. Output must match the schema exactly."
	systemPromptAnalyze = "You are a procurement analysis engine. Respond with JSON only. No markdown. Never omit keys. Output must match the schema exactly."
	systemPromptFixJSON = "You are a JSON repair tool. Return only valid JSON that matches the schema exactly."
)

const enhanceSchema = `Return a JSON object with exactly these keys:
{
  "strategicSummary": string,
  "quickWins": [string],
  "priorityActions": [
    {"action": string, "impact": "high"|"medium"|"low", "effort": "high"|"medium"|"low", "savingsEstimate": number|null, "timeframe": string|null}
  ],
  "riskAssessment": {"overallRisk": "high"|"medium"|"low", "keyRisks": [string], "mitigations": [string]} | null
}`

const analyzeSchema = `Return a JSON object with exactly these keys:
{
  "analysis": string,
  "implementationSteps": [string],
  "riskFactors": [string],
  "confidenceRationale": string,
  "timelineRecommendation": string
}`

// BuildEnhancePrompt creates the chat messages for a bulk enhancement request.
func BuildEnhancePrompt(list []insights.Insight) []Message {
	var b strings.Builder
	b.WriteString("Produce a strategic enhancement for this set of procurement insights.\n")
	b.WriteString(enhanceSchema)
	b.WriteString("\n\nInsights:\n")
	b.WriteString(renderInsights(list))

	return []Message{
		{Role: "system", Content: systemPromptEnhance},
		{Role: "user", Content: b.String()},
	}
}

// BuildAnalyzePrompt creates the chat messages for a single-insight deep analysis.
func BuildAnalyzePrompt(ins insights.Insight) []Message {
	var b strings.Builder
	b.WriteString("Produce a focused deep analysis for this one procurement insight.\n")
	b.WriteString(analyzeSchema)
	b.WriteString("\n\nInsight:\n")
	b.WriteString(renderInsights([]insights.Insight{ins}))

	return []Message{
		{Role: "system", Content: systemPromptAnalyze},
		{Role: "user", Content: b.String()},
	}
}

// BuildFixPrompt creates the chat messages asking the model to repair broken JSON.
func BuildFixPrompt(raw []byte) []Message {
	return []Message{
		{Role: "system", Content: systemPromptFixJSON},
		{Role: "user", Content: fmt.Sprintf("Repair this into valid JSON, preserving all content:\n%s", string(raw))},
	}
}

func renderInsights(list []insights.Insight) string {
	type promptInsight struct {
		ID                 string   `json:"id"`
		Type               string   `json:"type"`
		Severity           string   `json:"severity"`
		Title              string   `json:"title"`
		Description        string   `json:"description"`
		Confidence         float64  `json:"confidence"`
		PotentialSavings   float64  `json:"potentialSavings"`
		RecommendedActions []string `json:"recommendedActions,omitempty"`
		AffectedEntities   []string `json:"affectedEntities,omitempty"`
	}

	out := make([]promptInsight, 0, len(list))
	for _, ins := range list {
		out = append(out, promptInsight{
			ID:                 ins.ID,
			Type:               ins.Type,
			Severity:           ins.Severity,
			Title:              ins.Title,
			Description:        ins.Description,
			Confidence:         ins.Confidence,
			PotentialSavings:   ins.PotentialSavings,
			RecommendedActions: ins.RecommendedActions,
			AffectedEntities:   ins.AffectedEntities,
		})
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "[]"
	}
	return string(data)
}
