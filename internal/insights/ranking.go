package insights

import "sort"

// Sort keys accepted by SortInsights.
const (
	SortBySavings    = "savings"
	SortBySeverity   = "severity"
	SortByConfidence = "confidence"
)

// FilterByType returns the insights matching the given type. An empty filter
// or "all" passes the input through unchanged.
func FilterByType(list []Insight, insightType string) []Insight {
	if insightType == "" || insightType == "all" {
		return list
	}
	out := make([]Insight, 0, len(list))
	for _, ins := range list {
		if ins.Type == insightType {
			out = append(out, ins)
		}
	}
	return out
}

// SortInsights returns a copy sorted by the given key. All sorts are stable
// so equal keys preserve their input order and the UI stays deterministic.
// Unknown keys return the input order.
func SortInsights(list []Insight, key string) []Insight {
	out := make([]Insight, len(list))
	copy(out, list)

	switch key {
	case SortBySavings:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].PotentialSavings > out[j].PotentialSavings
		})
	case SortBySeverity:
		sort.SliceStable(out, func(i, j int) bool {
			return SeverityRank(out[i].Severity) < SeverityRank(out[j].Severity)
		})
	case SortByConfidence:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Confidence > out[j].Confidence
		})
	}
	return out
}
