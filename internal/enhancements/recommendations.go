package enhancements

import (
	"math"
	"sort"
	"strings"
)

// tierRank maps impact and effort tiers to a numeric weight. Unknown tiers
// score as medium so a sloppy reasoning response still ranks sensibly.
func tierRank(tier string) float64 {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case TierHigh:
		return 3
	case TierLow:
		return 1
	default:
		return 2
	}
}

func actionScore(a PriorityAction) float64 {
	score := 2*tierRank(a.Impact) + (4 - tierRank(a.Effort))
	if a.SavingsEstimate != nil && *a.SavingsEstimate > 0 {
		score += math.Log1p(*a.SavingsEstimate)
	}
	return score
}

// RankPriorityActions orders actions by descending score: impact weighs
// double, low effort beats high effort, and estimated savings add a
// logarithmic bonus so one huge number cannot drown the tiers. Ties keep
// their input order.
func RankPriorityActions(actions []PriorityAction) []PriorityAction {
	ranked := make([]PriorityAction, len(actions))
	copy(ranked, actions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return actionScore(ranked[i]) > actionScore(ranked[j])
	})
	return ranked
}
