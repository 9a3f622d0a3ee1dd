package enhancements

import (
	"encoding/json"
	"testing"
)

func TestParseEnhancementResultNormalizes(t *testing.T) {
	raw := json.RawMessage(`{
		"strategicSummary": "Focus on supplier consolidation.",
		"priorityActions": [
			{"action": "Consolidate", "impact": "Critical", "effort": "LOW", "savingsEstimate": -500}
		]
	}`)

	result, err := ParseEnhancementResult(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if result.QuickWins == nil {
		t.Fatal("quickWins should be an empty slice, not nil")
	}
	action := result.PriorityActions[0]
	if action.Impact != TierMedium {
		t.Fatalf("impact = %q, want unknown tier folded to medium", action.Impact)
	}
	if action.Effort != TierLow {
		t.Fatalf("effort = %q, want low", action.Effort)
	}
	if action.SavingsEstimate != nil {
		t.Fatal("negative savings estimate should be dropped")
	}
}

func TestParseEnhancementResultRejectsEmptySummary(t *testing.T) {
	if _, err := ParseEnhancementResult(json.RawMessage(`{"strategicSummary": "  "}`)); err == nil {
		t.Fatal("expected error for empty summary")
	}
}

func TestParseEnhancementResultRejectsBlankAction(t *testing.T) {
	raw := json.RawMessage(`{
		"strategicSummary": "ok",
		"priorityActions": [{"action": ""}]
	}`)
	if _, err := ParseEnhancementResult(raw); err == nil {
		t.Fatal("expected error for blank action text")
	}
}

func TestParseInsightAnalysisSetsInsightID(t *testing.T) {
	raw := json.RawMessage(`{"analysis": "Detailed findings."}`)

	result, err := ParseInsightAnalysis(raw, "ins-42")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if result.InsightID != "ins-42" {
		t.Fatalf("insightId = %q", result.InsightID)
	}
	if result.ImplementationSteps == nil || result.RiskFactors == nil {
		t.Fatal("slices should be empty, not nil")
	}
}

func TestParseInsightAnalysisRejectsEmptyAnalysis(t *testing.T) {
	if _, err := ParseInsightAnalysis(json.RawMessage(`{"analysis": ""}`), "ins-1"); err == nil {
		t.Fatal("expected error for empty analysis")
	}
}
