package feedback

// Summary aggregates how recorded insights actually played out.
type Summary struct {
	TotalFeedback             int            `json:"totalFeedback"`
	TotalImplemented          int            `json:"totalImplemented"`
	SuccessfulImplementations int            `json:"successfulImplementations"`
	SuccessRate               float64        `json:"successRate"`
	TotalPredictedSavings     float64        `json:"totalPredictedSavings"`
	TotalActualSavings        float64        `json:"totalActualSavings"`
	SavingsVariance           float64        `json:"savingsVariance"`
	ROIAccuracy               *float64       `json:"roiAccuracy"`
	ByAction                  map[string]int `json:"byAction"`
	ByOutcome                 map[string]int `json:"byOutcome"`
}

// ComputeEffectiveness recomputes the full aggregate from scratch. Success
// rate counts implemented entries whose outcome is success; ROI accuracy is
// nil when no predicted savings exist to compare against.
func ComputeEffectiveness(entries []Entry) Summary {
	summary := Summary{
		ByAction:  make(map[string]int),
		ByOutcome: make(map[string]int),
	}

	for _, entry := range entries {
		summary.TotalFeedback++
		summary.ByAction[entry.ActionTaken]++
		summary.ByOutcome[entry.Outcome]++

		if entry.ActionTaken == ActionImplemented {
			summary.TotalImplemented++
			if entry.Outcome == OutcomeSuccess {
				summary.SuccessfulImplementations++
			}
		}

		if entry.PredictedSavings != nil {
			summary.TotalPredictedSavings += *entry.PredictedSavings
		}
		if entry.ActualSavings != nil {
			summary.TotalActualSavings += *entry.ActualSavings
		}
	}

	if summary.TotalImplemented > 0 {
		summary.SuccessRate = 100 * float64(summary.SuccessfulImplementations) / float64(summary.TotalImplemented)
	}

	summary.SavingsVariance = summary.TotalActualSavings - summary.TotalPredictedSavings
	if summary.TotalPredictedSavings > 0 {
		roi := 100 * summary.TotalActualSavings / summary.TotalPredictedSavings
		summary.ROIAccuracy = &roi
	}

	return summary
}
