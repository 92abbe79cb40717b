package routing

import (
	"fmt"
	"math"
	"sort"
)

// Builtin profile names.
const (
	ProfileBalanced         = "balanced"
	ProfileCostOptimized    = "cost_optimized"
	ProfileRulesOnly        = "rules_only"
	ProfileReliabilityFirst = "reliability_first"
	ProfileLoadBalancing    = "load_balancing"
	ProfileCostAware        = "cost_aware"
	ProfileCompliance       = "compliance"
	ProfileResilient        = "resilient"
	ProfileEvenSpread       = "even_spread"
	ProfileCostWithFailover = "cost_with_failover"
)

// weightTolerance bounds the allowed drift of a profile's weight sum
// from exactly 1.0.
const weightTolerance = 0.001

// RoutingProfile names a weighted combination of strategies. Strategies
// holds one weight per enabled strategy; a strategy absent from the map
// is disabled for that profile.
type RoutingProfile struct {
	Name        string                   `json:"name"`        // Unique profile identifier
	Description string                   `json:"description"` // Human-readable summary
	Strategies  map[StrategyType]float64 `json:"strategies"`  // Enabled strategies and their weights
	Builtin     bool                     `json:"builtin"`     // True for catalog profiles, false for custom ones
}

// Validate checks the structural invariants every profile must hold:
// at least one strategy, only known strategy types, every weight in
// (0,1], and weights summing to 1.0 within tolerance.
func (p *RoutingProfile) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: profile is nil", ErrInvalidProfile)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: profile name is empty", ErrInvalidProfile)
	}
	if len(p.Strategies) == 0 {
		return fmt.Errorf("%w: profile %q enables no strategies", ErrInvalidProfile, p.Name)
	}

	sum := 0.0
	for st, weight := range p.Strategies {
		if !st.Valid() {
			return fmt.Errorf("%w: profile %q references unknown strategy %q", ErrInvalidProfile, p.Name, st)
		}
		if weight <= 0 || weight > 1 {
			return fmt.Errorf("%w: profile %q weight for %q is %v, want (0,1]", ErrInvalidProfile, p.Name, st, weight)
		}
		sum += weight
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("%w: profile %q weights sum to %v, want 1.0", ErrInvalidProfile, p.Name, sum)
	}
	return nil
}

// EnabledStrategies returns the profile's strategy types in a stable
// order so multi-strategy evaluation is deterministic.
func (p *RoutingProfile) EnabledStrategies() []StrategyType {
	out := make([]StrategyType, 0, len(p.Strategies))
	for st := range p.Strategies {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns a deep copy so callers can hand profiles across goroutines
// without sharing the weight map.
func (p *RoutingProfile) Clone() *RoutingProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Strategies = make(map[StrategyType]float64, len(p.Strategies))
	for st, w := range p.Strategies {
		cp.Strategies[st] = w
	}
	return &cp
}

// BuiltinProfiles returns the catalog of shipped profiles, freshly
// allocated on every call so callers cannot mutate shared state.
func BuiltinProfiles() map[string]*RoutingProfile {
	catalog := []*RoutingProfile{
		{
			Name:        ProfileBalanced,
			Description: "Default blend of all four strategies",
			Strategies: map[StrategyType]float64{
				StrategyRules:         0.4,
				StrategyCost:          0.3,
				StrategyReliability:   0.2,
				StrategyLoadBalancing: 0.1,
			},
		},
		{
			Name:        ProfileCostOptimized,
			Description: "Cheapest provider wins",
			Strategies: map[StrategyType]float64{
				StrategyCost: 1.0,
			},
		},
		{
			Name:        ProfileRulesOnly,
			Description: "Business rules decide everything",
			Strategies: map[StrategyType]float64{
				StrategyRules: 1.0,
			},
		},
		{
			Name:        ProfileReliabilityFirst,
			Description: "Best operational record wins",
			Strategies: map[StrategyType]float64{
				StrategyReliability: 1.0,
			},
		},
		{
			Name:        ProfileLoadBalancing,
			Description: "Configured traffic weights decide",
			Strategies: map[StrategyType]float64{
				StrategyLoadBalancing: 1.0,
			},
		},
		{
			Name:        ProfileCostAware,
			Description: "Cost-led blend with rule and reliability input",
			Strategies: map[StrategyType]float64{
				StrategyRules:       0.2,
				StrategyCost:        0.5,
				StrategyReliability: 0.3,
			},
		},
		{
			Name:        ProfileCompliance,
			Description: "Rules dominate, reliability breaks ties",
			Strategies: map[StrategyType]float64{
				StrategyRules:       0.7,
				StrategyReliability: 0.3,
			},
		},
		{
			Name:        ProfileResilient,
			Description: "Reliability-led blend for degraded conditions",
			Strategies: map[StrategyType]float64{
				StrategyRules:         0.2,
				StrategyCost:          0.2,
				StrategyReliability:   0.5,
				StrategyLoadBalancing: 0.1,
			},
		},
		{
			Name:        ProfileEvenSpread,
			Description: "All strategies weighted equally",
			Strategies: map[StrategyType]float64{
				StrategyRules:         0.25,
				StrategyCost:          0.25,
				StrategyReliability:   0.25,
				StrategyLoadBalancing: 0.25,
			},
		},
		{
			Name:        ProfileCostWithFailover,
			Description: "Cost-led with reliability and load hedges",
			Strategies: map[StrategyType]float64{
				StrategyCost:          0.6,
				StrategyReliability:   0.3,
				StrategyLoadBalancing: 0.1,
			},
		},
	}

	out := make(map[string]*RoutingProfile, len(catalog))
	for _, p := range catalog {
		p.Builtin = true
		out[p.Name] = p
	}
	return out
}

// ResolveProfile looks up name first among the snapshot's custom profiles,
// then in the builtin catalog, and validates whatever it finds. Any
// failure, unknown name or invalid definition, returns the builtin
// balanced profile together with the error that forced the fallback so
// the caller can log it.
func ResolveProfile(name string, snapshot *Snapshot) (*RoutingProfile, error) {
	builtins := BuiltinProfiles()

	var profile *RoutingProfile
	if snapshot != nil {
		if custom, ok := snapshot.CustomProfiles[name]; ok {
			profile = custom
		}
	}
	if profile == nil {
		profile = builtins[name]
	}

	if profile == nil {
		return builtins[ProfileBalanced], fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	if err := profile.Validate(); err != nil {
		return builtins[ProfileBalanced], err
	}
	return profile.Clone(), nil
}
