package routing

import (
	"context"

	"github.com/shopspring/decimal"
)

// costScorePlaces pins the precision of normalized cost scores. Four
// decimal places, round half up.
const costScorePlaces = 4

// CostStrategy scores providers by transaction fee, min-max normalized
// across the surviving candidate set: the cheapest provider scores 1.0,
// the most expensive 0.0. When every quoted fee is equal all providers
// score 1.0. A provider whose fee lookup failed scores 0.0 while the
// rest are normalized over the fees that did resolve.
type CostStrategy struct{}

// Type returns the strategy identifier.
func (s *CostStrategy) Type() StrategyType { return StrategyCost }

// Score normalizes the provider's fee against the candidate set.
func (s *CostStrategy) Score(_ context.Context, input ScoreInput) (float64, error) {
	result, ok := input.Fees[input.Provider.Name()]
	if !ok || result.Err != nil {
		return 0.0, nil
	}

	min, max, found := s.feeBounds(input)
	if !found {
		return 0.0, nil
	}

	spread := max.Sub(min)
	if spread.IsZero() {
		return 1.0, nil
	}

	// score = 1 - (fee - min) / (max - min), computed in exact decimal
	// and rounded only at the end.
	score := decimal.NewFromInt(1).
		Sub(result.Fee.Amount.Sub(min).Div(spread)).
		Round(costScorePlaces)
	f, _ := score.Float64()
	return f, nil
}

// Explain reports the quoted fee and the normalization bounds.
func (s *CostStrategy) Explain(_ context.Context, input ScoreInput, score float64) map[string]any {
	result, ok := input.Fees[input.Provider.Name()]
	if !ok || result.Err != nil {
		return map[string]any{
			"fee_available": false,
			"score":         score,
		}
	}
	out := map[string]any{
		"fee_available": true,
		"fee":           result.Fee.Amount.String(),
		"fee_currency":  result.Fee.Currency,
		"score":         score,
	}
	if min, max, found := s.feeBounds(input); found {
		out["min_fee"] = min.String()
		out["max_fee"] = max.String()
	}
	return out
}

// feeBounds returns the min and max resolved fee across survivors.
func (s *CostStrategy) feeBounds(input ScoreInput) (min, max decimal.Decimal, found bool) {
	for _, p := range input.Survivors {
		result, ok := input.Fees[p.Name()]
		if !ok || result.Err != nil {
			continue
		}
		if !found {
			min, max = result.Fee.Amount, result.Fee.Amount
			found = true
			continue
		}
		if result.Fee.Amount.LessThan(min) {
			min = result.Fee.Amount
		}
		if result.Fee.Amount.GreaterThan(max) {
			max = result.Fee.Amount
		}
	}
	return min, max, found
}
