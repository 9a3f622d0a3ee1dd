package openai

import (
	"strings"
	"testing"

	"procurement-backend/internal/insights"
)

func TestBuildEnhancePromptIncludesEveryInsight(t *testing.T) {
	list := []insights.Insight{
		{ID: "ins-1", Type: insights.TypeCostOptimization, Title: "Consolidate office supplies"},
		{ID: "ins-2", Type: insights.TypeRisk, Title: "Single-source dependency"},
	}

	messages := BuildEnhancePrompt(list)
	if len(messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(messages))
	}
	if messages[0].Role != "system" {
		t.Fatalf("expected system role first, got %s", messages[0].Role)
	}
	user := messages[1].Content
	for _, ins := range list {
		if !strings.Contains(user, ins.ID) || !strings.Contains(user, ins.Title) {
			t.Fatalf("user prompt missing insight %s", ins.ID)
		}
	}
	if !strings.Contains(user, "strategicSummary") {
		t.Fatalf("user prompt missing schema")
	}
}

func TestBuildAnalyzePromptTargetsOneInsight(t *testing.T) {
	ins := insights.Insight{ID: "ins-9", Type: insights.TypeAnomaly, Title: "Duplicate invoices"}

	messages := BuildAnalyzePrompt(ins)
	user := messages[len(messages)-1].Content
	if !strings.Contains(user, "ins-9") {
		t.Fatalf("analyze prompt missing insight id")
	}
	if !strings.Contains(user, "implementationSteps") {
		t.Fatalf("analyze prompt missing schema")
	}
}

func TestBuildFixPromptEmbedsRawOutput(t *testing.T) {
	messages := BuildFixPrompt([]byte(`{"broken": `))
	user := messages[len(messages)-1].Content
	if !strings.Contains(user, `{"broken": `) {
		t.Fatalf("fix prompt missing raw payload")
	}
}
