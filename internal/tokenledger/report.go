package tokenledger

import "fmt"

// Savings compares actual spend on the cheaper models with what their token
// volume would have cost on a baseline model. Calls already billed to the
// baseline model are excluded from both sides.
type Savings struct {
	BaselineModel string  `json:"baseline_model"`
	BaselineCost  float64 `json:"baseline_cost"`
	ActualCost    float64 `json:"actual_cost"`
	Saved         float64 `json:"saved"`
	SavedPercent  float64 `json:"saved_percent"`
}

// Report is the usage view served to admins.
type Report struct {
	Aggregate *Aggregate `json:"aggregate"`
	Savings   *Savings   `json:"savings,omitempty"`
}

// BuildReport snapshots the ledger and, when a baseline model is configured,
// computes how much routing to cheaper models has saved against it.
func (l *Ledger) BuildReport(baselineModel string) (*Report, error) {
	snapshot := l.Snapshot()
	report := &Report{Aggregate: snapshot}
	if baselineModel == "" {
		return report, nil
	}
	tier, known := l.prices.Resolve(baselineModel)
	if !known {
		return nil, fmt.Errorf("tokenledger: baseline model %q has no pricing", baselineModel)
	}
	var baseline, actual float64
	for model, totals := range snapshot.ByModel {
		if model == baselineModel {
			continue
		}
		inputCost, outputCost := tier.Cost(totals.InputTokens, totals.OutputTokens)
		baseline += inputCost + outputCost
		actual += totals.TotalCost
	}
	savings := &Savings{
		BaselineModel: baselineModel,
		BaselineCost:  baseline,
		ActualCost:    actual,
		Saved:         baseline - actual,
	}
	if baseline > 0 {
		savings.SavedPercent = savings.Saved / baseline * 100
	}
	report.Savings = savings
	return report, nil
}
