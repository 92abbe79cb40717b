package routing

import (
	"context"

	"payment-router/internal/providers"
)

// NeutralScore is substituted when a strategy cannot score a provider.
// It neither promotes nor penalizes.
const NeutralScore = 0.5

// FeeResult carries the outcome of one provider fee lookup. A failed lookup
// keeps its error so the cost strategy can penalize exactly that provider
// without aborting scoring for the others.
type FeeResult struct {
	Fee providers.Fee
	Err error
}

// ScoreInput bundles everything a strategy may consult when scoring one
// provider. The fee and health tables are computed once per routing call by
// the engine and shared across strategies, keyed by provider name.
type ScoreInput struct {
	Context   *RoutingContext
	Provider  providers.Provider
	Survivors []providers.Provider // all providers that passed both filters, registration order
	Snapshot  *Snapshot

	Fees   map[string]FeeResult
	Health map[string]providers.HealthSnapshot
}

// Strategy is the common contract of the four scoring strategies.
//
// Score returns a normalized value in [0,1]. Implementations report
// internal failures through the error return; the engine maps any error
// (or panic) to NeutralScore and never lets it abort the routing call.
// Explain returns the strategy's reasoning for the audit metadata.
type Strategy interface {
	Type() StrategyType
	Score(ctx context.Context, input ScoreInput) (float64, error)
	Explain(ctx context.Context, input ScoreInput, score float64) map[string]any
}

// newStrategyRegistry builds the enum-keyed strategy registry. Adding a
// strategy means adding an entry here and a StrategyType constant; the
// engine itself never branches on concrete types.
func newStrategyRegistry() map[StrategyType]Strategy {
	return map[StrategyType]Strategy{
		StrategyRules:         &RulesStrategy{},
		StrategyCost:          &CostStrategy{},
		StrategyReliability:   &ReliabilityStrategy{},
		StrategyLoadBalancing: &LoadBalancingStrategy{},
	}
}
