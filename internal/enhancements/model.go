package enhancements

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Impact and effort tiers used by priority actions and risk assessments.
const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

// PriorityAction is one recommended action from a bulk enhancement.
type PriorityAction struct {
	Action          string   `json:"action"`
	Impact          string   `json:"impact"`
	Effort          string   `json:"effort"`
	SavingsEstimate *float64 `json:"savingsEstimate,omitempty"`
	Timeframe       string   `json:"timeframe,omitempty"`
}

// RiskAssessment summarizes the risk posture across the insight set.
type RiskAssessment struct {
	OverallRisk string   `json:"overallRisk"`
	KeyRisks    []string `json:"keyRisks"`
	Mitigations []string `json:"mitigations"`
}

// EnhancementResult is the strategic output of a bulk enhancement job.
type EnhancementResult struct {
	StrategicSummary string           `json:"strategicSummary"`
	QuickWins        []string         `json:"quickWins"`
	PriorityActions  []PriorityAction `json:"priorityActions"`
	RiskAssessment   *RiskAssessment  `json:"riskAssessment,omitempty"`
}

// InsightAnalysis is the focused output of a deep-analysis job for one insight.
type InsightAnalysis struct {
	InsightID              string   `json:"insightId"`
	Analysis               string   `json:"analysis"`
	ImplementationSteps    []string `json:"implementationSteps"`
	RiskFactors            []string `json:"riskFactors"`
	ConfidenceRationale    string   `json:"confidenceRationale"`
	TimelineRecommendation string   `json:"timelineRecommendation"`
}

// ParseEnhancementResult validates and normalizes raw reasoning output.
func ParseEnhancementResult(raw json.RawMessage) (EnhancementResult, error) {
	var result EnhancementResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return EnhancementResult{}, fmt.Errorf("reasoning output parse: %w", err)
	}
	if strings.TrimSpace(result.StrategicSummary) == "" {
		return EnhancementResult{}, fmt.Errorf("reasoning output invalid: strategicSummary is empty")
	}
	if result.QuickWins == nil {
		result.QuickWins = []string{}
	}
	if result.PriorityActions == nil {
		result.PriorityActions = []PriorityAction{}
	}
	for i := range result.PriorityActions {
		action := &result.PriorityActions[i]
		if strings.TrimSpace(action.Action) == "" {
			return EnhancementResult{}, fmt.Errorf("reasoning output invalid: priority action %d has no text", i)
		}
		action.Impact = normalizeTier(action.Impact)
		action.Effort = normalizeTier(action.Effort)
		if action.SavingsEstimate != nil && *action.SavingsEstimate < 0 {
			action.SavingsEstimate = nil
		}
	}
	if result.RiskAssessment != nil {
		result.RiskAssessment.OverallRisk = normalizeTier(result.RiskAssessment.OverallRisk)
		if result.RiskAssessment.KeyRisks == nil {
			result.RiskAssessment.KeyRisks = []string{}
		}
		if result.RiskAssessment.Mitigations == nil {
			result.RiskAssessment.Mitigations = []string{}
		}
	}
	return result, nil
}

// ParseInsightAnalysis validates and normalizes raw deep-analysis output.
func ParseInsightAnalysis(raw json.RawMessage, insightID string) (InsightAnalysis, error) {
	var analysis InsightAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return InsightAnalysis{}, fmt.Errorf("reasoning output parse: %w", err)
	}
	if strings.TrimSpace(analysis.Analysis) == "" {
		return InsightAnalysis{}, fmt.Errorf("reasoning output invalid: analysis is empty")
	}
	analysis.InsightID = insightID
	if analysis.ImplementationSteps == nil {
		analysis.ImplementationSteps = []string{}
	}
	if analysis.RiskFactors == nil {
		analysis.RiskFactors = []string{}
	}
	return analysis, nil
}

func normalizeTier(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case TierHigh:
		return TierHigh
	case TierLow:
		return TierLow
	default:
		return TierMedium
	}
}
