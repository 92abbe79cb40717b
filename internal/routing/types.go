package routing

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoutingContext describes one transaction to be routed. It is constructed
// per routing call and never mutated afterwards.
type RoutingContext struct {
	Amount     decimal.Decimal `json:"amount"`               // Transaction amount (exact decimal)
	Currency   string          `json:"currency"`             // ISO 4217 currency code
	Country    string          `json:"country"`              // ISO 3166-1 alpha-2 country code
	Network    string          `json:"network"`              // Card network (VISA, MASTERCARD, AMEX, ...)
	BINPrefix  string          `json:"bin_prefix,omitempty"` // Leading card digits, optional
	MerchantID string          `json:"merchant_id"`          // Merchant identifier
}

// StrategyType identifies one of the four scoring strategies. The set is
// closed; new strategies are additive through the enum-keyed registry in
// NewEngine.
type StrategyType string

const (
	// StrategyRules scores providers against the ordered business rule list
	StrategyRules StrategyType = "rules"
	// StrategyCost scores providers by normalized transaction fee
	StrategyCost StrategyType = "cost"
	// StrategyReliability scores providers by success rate and latency
	StrategyReliability StrategyType = "reliability"
	// StrategyLoadBalancing scores providers by configured traffic weight
	StrategyLoadBalancing StrategyType = "load_balancing"
)

// AllStrategyTypes returns the closed strategy set in canonical order.
func AllStrategyTypes() []StrategyType {
	return []StrategyType{StrategyRules, StrategyCost, StrategyReliability, StrategyLoadBalancing}
}

// Valid reports whether t is a member of the closed strategy set.
func (t StrategyType) Valid() bool {
	switch t {
	case StrategyRules, StrategyCost, StrategyReliability, StrategyLoadBalancing:
		return true
	}
	return false
}

// DisplayName returns the human-readable strategy name used in decisions.
func (t StrategyType) DisplayName() string {
	switch t {
	case StrategyRules:
		return "Business Rules"
	case StrategyCost:
		return "Cost Optimization"
	case StrategyReliability:
		return "Reliability"
	case StrategyLoadBalancing:
		return "Load Balancing"
	default:
		return string(t)
	}
}

// DefaultWeight returns the weight used for t when no profile overrides it.
func (t StrategyType) DefaultWeight() float64 {
	switch t {
	case StrategyRules:
		return 0.4
	case StrategyCost:
		return 0.3
	case StrategyReliability:
		return 0.2
	case StrategyLoadBalancing:
		return 0.1
	default:
		return 0
	}
}

// ProviderEvaluation captures everything the engine learned about a single
// provider during one routing call. Created per call, discarded after the
// decision is built.
type ProviderEvaluation struct {
	Provider       string                   `json:"provider"`
	Eligible       bool                     `json:"eligible"`
	Healthy        bool                     `json:"healthy"`
	StrategyScores map[StrategyType]float64 `json:"strategy_scores"`
	CompositeScore float64                  `json:"composite_score"`
}

// ScoreStats summarizes a score distribution for the decision metadata.
type ScoreStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Avg    float64 `json:"avg"`
	Spread float64 `json:"spread"`
}

// ProfileInfo describes the profile that produced a decision.
type ProfileInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Strategies  []string `json:"strategies"`
	Fallback    bool     `json:"fallback"` // true when the engine substituted balanced
}

// DecisionMetadata is the structured audit bundle attached to every decision.
type DecisionMetadata struct {
	Profile          ProfileInfo                   `json:"profile"`
	CompositeScores  map[string]float64            `json:"composite_scores"`   // provider -> composite
	CompositeStats   ScoreStats                    `json:"composite_stats"`
	Weights          map[string]float64            `json:"weights"`            // strategy -> normalized weight
	StrategyScores   map[string]map[string]float64 `json:"strategy_scores"`    // strategy -> provider -> score
	StrategyRankings map[string][]string           `json:"strategy_rankings"`  // strategy -> providers best-first
	StrategyStats    map[string]ScoreStats         `json:"strategy_stats"`
	Explanations     map[string]map[string]any     `json:"explanations,omitempty"` // strategy -> provider -> detail
}

// RouteDecision is the outcome of one routing call: the ranked candidate
// list, the selected provider (empty when no provider survived the filters),
// a human-readable reason and the full audit metadata.
//
// Decisions are immutable once built. Callers use SelectedProvider to drive
// control flow and persist the rest for audit.
type RouteDecision struct {
	ID               string           `json:"id"`
	Candidates       []string         `json:"candidates"`         // Surviving providers, best first
	StrategiesUsed   []string         `json:"strategies_used"`    // Display names of every step exercised
	SelectedProvider string           `json:"selected_provider,omitempty"`
	Reason           string           `json:"reason"`
	Metadata         DecisionMetadata `json:"metadata"`
	Context          RoutingContext   `json:"context"`
	CreatedAt        time.Time        `json:"created_at"`
	ProcessingTime   time.Duration    `json:"processing_time"`
}

// Selected reports whether a provider was chosen.
func (d *RouteDecision) Selected() bool {
	return d.SelectedProvider != ""
}

// engineState tracks progress of the strictly sequential decision pipeline.
type engineState int

const (
	stateStart engineState = iota
	stateEligibilityChecked
	stateHealthChecked
	stateProfileResolved
	stateScored
	stateRanked
	stateDecided
)

func (s engineState) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateEligibilityChecked:
		return "eligibility_checked"
	case stateHealthChecked:
		return "health_checked"
	case stateProfileResolved:
		return "profile_resolved"
	case stateScored:
		return "scored"
	case stateRanked:
		return "ranked"
	case stateDecided:
		return "decided"
	default:
		return "unknown"
	}
}
