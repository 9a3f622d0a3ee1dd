package enhancements

import "testing"

func savings(v float64) *float64 {
	return &v
}

func TestRankPriorityActionsOrdering(t *testing.T) {
	actions := []PriorityAction{
		{Action: "low impact high effort", Impact: TierLow, Effort: TierHigh},
		{Action: "high impact low effort", Impact: TierHigh, Effort: TierLow},
		{Action: "medium all around", Impact: TierMedium, Effort: TierMedium},
	}

	ranked := RankPriorityActions(actions)

	if ranked[0].Action != "high impact low effort" {
		t.Fatalf("top action = %q", ranked[0].Action)
	}
	if ranked[2].Action != "low impact high effort" {
		t.Fatalf("bottom action = %q", ranked[2].Action)
	}
}

func TestRankPriorityActionsSavingsBreaksTies(t *testing.T) {
	actions := []PriorityAction{
		{Action: "no savings", Impact: TierHigh, Effort: TierLow},
		{Action: "big savings", Impact: TierHigh, Effort: TierLow, SavingsEstimate: savings(50000)},
	}

	ranked := RankPriorityActions(actions)
	if ranked[0].Action != "big savings" {
		t.Fatalf("top action = %q, want savings to win the tie", ranked[0].Action)
	}
}

func TestRankPriorityActionsStableOnTies(t *testing.T) {
	actions := []PriorityAction{
		{Action: "first", Impact: TierMedium, Effort: TierMedium},
		{Action: "second", Impact: TierMedium, Effort: TierMedium},
	}

	ranked := RankPriorityActions(actions)
	if ranked[0].Action != "first" || ranked[1].Action != "second" {
		t.Fatalf("tie order changed: %q, %q", ranked[0].Action, ranked[1].Action)
	}
}

func TestRankPriorityActionsDoesNotMutateInput(t *testing.T) {
	actions := []PriorityAction{
		{Action: "b", Impact: TierLow, Effort: TierHigh},
		{Action: "a", Impact: TierHigh, Effort: TierLow},
	}

	RankPriorityActions(actions)
	if actions[0].Action != "b" {
		t.Fatal("input slice was reordered")
	}
}

func TestRankPriorityActionsUnknownTierScoresMedium(t *testing.T) {
	actions := []PriorityAction{
		{Action: "unknown", Impact: "critical", Effort: ""},
		{Action: "low", Impact: TierLow, Effort: TierHigh},
	}

	ranked := RankPriorityActions(actions)
	if ranked[0].Action != "unknown" {
		t.Fatalf("top action = %q, want unknown tier to rank as medium", ranked[0].Action)
	}
}
