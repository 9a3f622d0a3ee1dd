package insights

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func setupInsightRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	source := NewMemorySource()
	source.SetInsights([]Insight{
		{ID: "ins-1", Type: TypeCostOptimization, Severity: SeverityLow, Title: "Low sev big savings", Confidence: 0.7, PotentialSavings: 50000},
		{ID: "ins-2", Type: TypeRisk, Severity: SeverityHigh, Title: "High sev no savings", Confidence: 0.9},
		{ID: "ins-3", Type: TypeCostOptimization, Severity: SeverityMedium, Title: "Medium", Confidence: 0.8, PotentialSavings: 1000},
	})

	router := gin.New()
	NewHandler(source).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func getInsights(t *testing.T, router *gin.Engine, path string) (*httptest.ResponseRecorder, []Insight) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var body struct {
		Insights []Insight `json:"insights"`
		Count    int       `json:"count"`
	}
	if resp.Code == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp, body.Insights
}

func TestListInsightsDefaultSort(t *testing.T) {
	router := setupInsightRouter(t)

	resp, list := getInsights(t, router, "/api/v1/insights")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body.String())
	}
	if len(list) != 3 {
		t.Fatalf("count = %d, want 3", len(list))
	}
	if list[0].ID != "ins-1" {
		t.Fatalf("top insight = %s, want biggest savings first", list[0].ID)
	}
}

func TestListInsightsFilterAndSort(t *testing.T) {
	router := setupInsightRouter(t)

	resp, list := getInsights(t, router, "/api/v1/insights?type=cost_optimization&sort=severity")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body.String())
	}
	if len(list) != 2 {
		t.Fatalf("count = %d, want 2", len(list))
	}
	if list[0].ID != "ins-3" {
		t.Fatalf("top insight = %s, want medium severity before low", list[0].ID)
	}
}

func TestListInsightsRejectsUnknownParams(t *testing.T) {
	router := setupInsightRouter(t)

	resp, _ := getInsights(t, router, "/api/v1/insights?type=bogus")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("type status = %d, want 400", resp.Code)
	}

	resp, _ = getInsights(t, router, "/api/v1/insights?sort=bogus")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("sort status = %d, want 400", resp.Code)
	}
}

func TestGetSummary(t *testing.T) {
	router := setupInsightRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/insights/summary", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body.String())
	}

	var summary Summary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalInsights != 3 {
		t.Fatalf("totalInsights = %d", summary.TotalInsights)
	}
	if summary.HighSeverityCount != 1 {
		t.Fatalf("highSeverityCount = %d", summary.HighSeverityCount)
	}
	if summary.TotalPotentialSavings != 51000 {
		t.Fatalf("totalPotentialSavings = %v", summary.TotalPotentialSavings)
	}
}
