package pricing

// Evaluation is the outcome of the profit decision for a listing.
type Evaluation struct {
	ReferencePrice float64
	PickupCost     float64
	Profit         float64
	Accepted       bool
}

// Evaluator applies the profit threshold to a priced listing.
type Evaluator struct {
	minProfit float64
}

func NewEvaluator(minProfit float64) *Evaluator {
	return &Evaluator{minProfit: minProfit}
}

// Run computes expected profit and the accept decision. A listing with no
// comparables is never accepted: without a reference price the margin is
// unknowable.
func (e *Evaluator) Run(askingPrice, pickupCost float64, stats PriceStats) Evaluation {
	return e.RunWithThreshold(askingPrice, pickupCost, stats, e.minProfit)
}

// RunWithThreshold is Run with a per-watch override of the profit floor.
// A zero override falls back to the evaluator's own threshold.
func (e *Evaluator) RunWithThreshold(askingPrice, pickupCost float64, stats PriceStats, minProfit float64) Evaluation {
	if minProfit <= 0 {
		minProfit = e.minProfit
	}

	eval := Evaluation{
		ReferencePrice: stats.Reference,
		PickupCost:     pickupCost,
	}

	if !stats.HasComparables() {
		return eval
	}

	eval.Profit = stats.Reference - askingPrice - pickupCost
	eval.Accepted = eval.Profit >= minProfit
	return eval
}
