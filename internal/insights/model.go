package insights

// Insight types produced by the analytics service.
const (
	TypeCostOptimization = "cost_optimization"
	TypeRisk             = "risk"
	TypeAnomaly          = "anomaly"
	TypeConsolidation    = "consolidation"
)

// Severity tiers, highest first.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Insight is a single generated observation over procurement data. It is
// owned by the analytics service; this backend only reads it.
type Insight struct {
	ID                 string         `json:"id"`
	Type               string         `json:"type"`
	Severity           string         `json:"severity"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	Confidence         float64        `json:"confidence"`
	PotentialSavings   float64        `json:"potentialSavings"`
	RecommendedActions []string       `json:"recommendedActions"`
	AffectedEntities   []string       `json:"affectedEntities"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// Summary is the one-shot aggregate delivered alongside the insight list.
type Summary struct {
	TotalInsights         int     `json:"totalInsights"`
	TotalPotentialSavings float64 `json:"totalPotentialSavings"`
	HighSeverityCount     int     `json:"highSeverityCount"`
	AverageConfidence     float64 `json:"averageConfidence"`
	GeneratedAt           string  `json:"generatedAt,omitempty"`
}

// ValidType reports whether t is one of the closed insight type values.
func ValidType(t string) bool {
	switch t {
	case TypeCostOptimization, TypeRisk, TypeAnomaly, TypeConsolidation:
		return true
	}
	return false
}

// ValidSeverity reports whether s is one of the closed severity values.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// SeverityRank maps severities to a fixed sort order, high first.
func SeverityRank(s string) int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	}
	return 3
}
