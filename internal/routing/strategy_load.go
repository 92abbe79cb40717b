package routing

import (
	"context"
)

// LoadBalancingStrategy scores providers by their configured traffic
// weight relative to the heaviest weight in the snapshot:
//
//	score = weight / maxWeight
//
// A provider with no configured weight scores 0.0. Weights arrive as raw
// config values and are coerced through CoerceWeight, so numeric strings
// count and junk collapses to zero. When no provider carries a positive
// weight every configured provider scores 1.0, which makes a weightless
// deployment behave as an even spread instead of zeroing the strategy out.
type LoadBalancingStrategy struct{}

// Type returns the strategy identifier.
func (s *LoadBalancingStrategy) Type() StrategyType { return StrategyLoadBalancing }

// Score normalizes the provider's weight against the heaviest peer.
func (s *LoadBalancingStrategy) Score(_ context.Context, input ScoreInput) (float64, error) {
	if input.Snapshot == nil {
		return 0.0, nil
	}
	raw, ok := input.Snapshot.ProviderWeights[input.Provider.Name()]
	if !ok {
		return 0.0, nil
	}
	weight := CoerceWeight(raw)
	if weight < 0 {
		weight = 0
	}

	max := s.maxWeight(input)
	if max <= 0 {
		return 1.0, nil
	}
	return weight / max, nil
}

// Explain reports the coerced weight and the normalization ceiling.
func (s *LoadBalancingStrategy) Explain(_ context.Context, input ScoreInput, score float64) map[string]any {
	out := map[string]any{
		"score": score,
	}
	if input.Snapshot == nil {
		out["weight_configured"] = false
		return out
	}
	raw, ok := input.Snapshot.ProviderWeights[input.Provider.Name()]
	out["weight_configured"] = ok
	if ok {
		out["weight"] = CoerceWeight(raw)
		out["max_weight"] = s.maxWeight(input)
	}
	return out
}

// maxWeight returns the largest coerced weight in the configured map,
// including providers the eligibility and health gates removed.
func (s *LoadBalancingStrategy) maxWeight(input ScoreInput) float64 {
	var max float64
	for _, raw := range input.Snapshot.ProviderWeights {
		if w := CoerceWeight(raw); w > max {
			max = w
		}
	}
	return max
}
