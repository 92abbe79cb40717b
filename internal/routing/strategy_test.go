package routing

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"payment-router/internal/providers"
)

// stubProvider is a minimal in-package provider fixture. The mock package
// covers realistic providers; this one gives tests exact control over
// every value the strategies read.
type stubProvider struct {
	name      string
	eligible  bool
	fee       decimal.Decimal
	feeErr    error
	health    providers.HealthSnapshot
	healthErr error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Supports(network, currency, country string) bool { return s.eligible }

func (s *stubProvider) FeeFor(ctx context.Context, currency string, amount decimal.Decimal) (providers.Fee, error) {
	if s.feeErr != nil {
		return providers.Fee{}, s.feeErr
	}
	return providers.Fee{Amount: s.fee, Currency: currency, Type: "flat"}, nil
}

func (s *stubProvider) HealthSnapshot(ctx context.Context) (providers.HealthSnapshot, error) {
	if s.healthErr != nil {
		return providers.HealthSnapshot{}, s.healthErr
	}
	return s.health, nil
}

func stubInput(snapshot *Snapshot, survivors ...*stubProvider) ScoreInput {
	ps := make([]providers.Provider, len(survivors))
	fees := make(map[string]FeeResult, len(survivors))
	health := make(map[string]providers.HealthSnapshot, len(survivors))
	for i, s := range survivors {
		ps[i] = s
		fees[s.name] = FeeResult{
			Fee: providers.Fee{Amount: s.fee, Currency: "USD", Type: "flat"},
			Err: s.feeErr,
		}
		if s.healthErr == nil {
			health[s.name] = s.health
		}
	}
	if snapshot == nil {
		snapshot = DefaultSnapshot()
	}
	return ScoreInput{
		Context:   &RoutingContext{Currency: "USD", Country: "US", Network: "VISA"},
		Survivors: ps,
		Snapshot:  snapshot,
		Fees:      fees,
		Health:    health,
	}
}

func scoreOf(t *testing.T, s Strategy, input ScoreInput, p *stubProvider) float64 {
	t.Helper()
	input.Provider = p
	score, err := s.Score(context.Background(), input)
	if err != nil {
		t.Fatalf("%s.Score(%s) returned error: %v", s.Type(), p.name, err)
	}
	return score
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRulesStrategyModes(t *testing.T) {
	a := &stubProvider{name: "A"}
	b := &stubProvider{name: "B"}

	tests := []struct {
		name  string
		mode  string
		wantA float64
		wantB float64
	}{
		{"strict", ModeStrict, 1.0, 0.0},
		{"preferred", ModePreferred, 0.8, 0.5},
		{"excluded", ModeExcluded, 0.0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := DefaultSnapshot()
			snapshot.Rules = []RoutingRule{{
				Conditions: []RuleCondition{{Field: FieldCountry, Operator: OperatorEquals, Value: "US"}},
				Action:     RuleAction{Mode: tt.mode, Providers: []string{"A"}},
			}}

			input := stubInput(snapshot, a, b)
			strategy := &RulesStrategy{}
			if got := scoreOf(t, strategy, input, a); got != tt.wantA {
				t.Errorf("listed provider scored %v, want %v", got, tt.wantA)
			}
			if got := scoreOf(t, strategy, input, b); got != tt.wantB {
				t.Errorf("unlisted provider scored %v, want %v", got, tt.wantB)
			}
		})
	}
}

func TestRulesStrategyFirstMatchWins(t *testing.T) {
	snapshot := DefaultSnapshot()
	snapshot.Rules = []RoutingRule{
		{
			Conditions: []RuleCondition{{Field: FieldCountry, Operator: OperatorEquals, Value: "US"}},
			Action:     RuleAction{Mode: ModePreferred, Providers: []string{"A"}},
		},
		{
			// Also matches, but must be ignored
			Conditions: []RuleCondition{{Field: FieldNetwork, Operator: OperatorEquals, Value: "VISA"}},
			Action:     RuleAction{Mode: ModeStrict, Providers: []string{"B"}},
		},
	}

	a := &stubProvider{name: "A"}
	b := &stubProvider{name: "B"}
	input := stubInput(snapshot, a, b)
	strategy := &RulesStrategy{}

	if got := scoreOf(t, strategy, input, a); got != 0.8 {
		t.Errorf("first rule should apply, A scored %v, want 0.8", got)
	}
	if got := scoreOf(t, strategy, input, b); got != 0.5 {
		t.Errorf("second rule must be ignored, B scored %v, want 0.5", got)
	}
}

func TestRulesStrategyNoMatchIsNeutral(t *testing.T) {
	snapshot := DefaultSnapshot()
	snapshot.Rules = []RoutingRule{{
		Conditions: []RuleCondition{{Field: FieldCountry, Operator: OperatorEquals, Value: "JP"}},
		Action:     RuleAction{Mode: ModeStrict, Providers: []string{"A"}},
	}}

	a := &stubProvider{name: "A"}
	input := stubInput(snapshot, a)
	if got := scoreOf(t, &RulesStrategy{}, input, a); got != NeutralScore {
		t.Errorf("no matching rule should score neutral, got %v", got)
	}
}

func TestRulesStrategyUnknownModeErrors(t *testing.T) {
	snapshot := DefaultSnapshot()
	snapshot.Rules = []RoutingRule{{
		Conditions: []RuleCondition{{Field: FieldCountry, Operator: OperatorEquals, Value: "US"}},
		Action:     RuleAction{Mode: "SOMETIMES", Providers: []string{"A"}},
	}}

	a := &stubProvider{name: "A"}
	input := stubInput(snapshot, a)
	input.Provider = a

	score, err := (&RulesStrategy{}).Score(context.Background(), input)
	if !errors.Is(err, ErrInvalidRule) {
		t.Errorf("expected ErrInvalidRule, got %v", err)
	}
	if score != NeutralScore {
		t.Errorf("failed rule evaluation should report neutral, got %v", score)
	}
}

func TestCostStrategyNormalization(t *testing.T) {
	cheap := &stubProvider{name: "Cheap", fee: decimal.NewFromFloat(1.00)}
	mid := &stubProvider{name: "Mid", fee: decimal.NewFromFloat(2.00)}
	dear := &stubProvider{name: "Dear", fee: decimal.NewFromFloat(3.00)}
	input := stubInput(nil, cheap, mid, dear)
	strategy := &CostStrategy{}

	if got := scoreOf(t, strategy, input, cheap); got != 1.0 {
		t.Errorf("cheapest scored %v, want 1.0", got)
	}
	if got := scoreOf(t, strategy, input, mid); !almostEqual(got, 0.5) {
		t.Errorf("middle scored %v, want 0.5", got)
	}
	if got := scoreOf(t, strategy, input, dear); got != 0.0 {
		t.Errorf("most expensive scored %v, want 0.0", got)
	}
}

func TestCostStrategyEqualFees(t *testing.T) {
	a := &stubProvider{name: "A", fee: decimal.NewFromFloat(2.50)}
	b := &stubProvider{name: "B", fee: decimal.NewFromFloat(2.50)}
	input := stubInput(nil, a, b)
	strategy := &CostStrategy{}

	if got := scoreOf(t, strategy, input, a); got != 1.0 {
		t.Errorf("equal fees should score 1.0, got %v", got)
	}
	if got := scoreOf(t, strategy, input, b); got != 1.0 {
		t.Errorf("equal fees should score 1.0, got %v", got)
	}
}

func TestCostStrategyFeeFailure(t *testing.T) {
	a := &stubProvider{name: "A", fee: decimal.NewFromFloat(1.00)}
	b := &stubProvider{name: "B", feeErr: errors.New("quote timeout")}
	c := &stubProvider{name: "C", fee: decimal.NewFromFloat(2.00)}
	input := stubInput(nil, a, b, c)
	strategy := &CostStrategy{}

	if got := scoreOf(t, strategy, input, b); got != 0.0 {
		t.Errorf("failed quote should score 0.0, got %v", got)
	}
	// The remaining providers normalize over the fees that resolved
	if got := scoreOf(t, strategy, input, a); got != 1.0 {
		t.Errorf("cheapest resolved fee scored %v, want 1.0", got)
	}
	if got := scoreOf(t, strategy, input, c); got != 0.0 {
		t.Errorf("most expensive resolved fee scored %v, want 0.0", got)
	}
}

func TestCostStrategyRoundsToFourPlaces(t *testing.T) {
	// spread 1.50, fee delta 1.00: 1 - 1/1.5 = 0.33333... -> 0.3333
	a := &stubProvider{name: "A", fee: decimal.NewFromFloat(1.00)}
	b := &stubProvider{name: "B", fee: decimal.NewFromFloat(2.00)}
	c := &stubProvider{name: "C", fee: decimal.NewFromFloat(2.50)}
	input := stubInput(nil, a, b, c)

	if got := scoreOf(t, &CostStrategy{}, input, b); got != 0.3333 {
		t.Errorf("score = %v, want exactly 0.3333", got)
	}
}

func TestReliabilityStrategyBlend(t *testing.T) {
	fast := &stubProvider{name: "Fast", health: providers.HealthSnapshot{SuccessRate: 0.99, LatencyMs: 100, SampleSize: 1000}}
	slow := &stubProvider{name: "Slow", health: providers.HealthSnapshot{SuccessRate: 0.95, LatencyMs: 500, SampleSize: 1000}}
	input := stubInput(nil, fast, slow)
	strategy := &ReliabilityStrategy{}

	// fast: 0.7*0.99 + 0.3*1.0, slow: 0.7*0.95 + 0.3*0.0
	if got := scoreOf(t, strategy, input, fast); !almostEqual(got, 0.993) {
		t.Errorf("fast scored %v, want 0.993", got)
	}
	if got := scoreOf(t, strategy, input, slow); !almostEqual(got, 0.665) {
		t.Errorf("slow scored %v, want 0.665", got)
	}
}

func TestReliabilityStrategyEqualLatency(t *testing.T) {
	a := &stubProvider{name: "A", health: providers.HealthSnapshot{SuccessRate: 0.92, LatencyMs: 300, SampleSize: 1000}}
	b := &stubProvider{name: "B", health: providers.HealthSnapshot{SuccessRate: 0.98, LatencyMs: 300, SampleSize: 1000}}
	input := stubInput(nil, a, b)
	strategy := &ReliabilityStrategy{}

	// Equal latencies give everyone the full latency component
	if got := scoreOf(t, strategy, input, a); !almostEqual(got, 0.7*0.92+0.3) {
		t.Errorf("A scored %v, want %v", got, 0.7*0.92+0.3)
	}
	if got := scoreOf(t, strategy, input, b); !almostEqual(got, 0.7*0.98+0.3) {
		t.Errorf("B scored %v, want %v", got, 0.7*0.98+0.3)
	}
}

func TestReliabilityStrategyMissingMetrics(t *testing.T) {
	a := &stubProvider{name: "A", healthErr: errors.New("metrics store down")}
	b := &stubProvider{name: "B", health: providers.HealthSnapshot{SuccessRate: 0.99, LatencyMs: 200, SampleSize: 1000}}
	input := stubInput(nil, a, b)

	if got := scoreOf(t, &ReliabilityStrategy{}, input, a); got != 0.0 {
		t.Errorf("provider without metrics scored %v, want 0.0", got)
	}
}

func TestLoadBalancingStrategy(t *testing.T) {
	snapshot := DefaultSnapshot()
	snapshot.ProviderWeights = map[string]interface{}{
		"A": 2,
		"B": "4", // numeric strings are accepted
		"C": "not-a-number",
	}

	a := &stubProvider{name: "A"}
	b := &stubProvider{name: "B"}
	c := &stubProvider{name: "C"}
	d := &stubProvider{name: "D"} // no weight configured
	input := stubInput(snapshot, a, b, c, d)
	strategy := &LoadBalancingStrategy{}

	if got := scoreOf(t, strategy, input, a); !almostEqual(got, 0.5) {
		t.Errorf("A scored %v, want 0.5", got)
	}
	if got := scoreOf(t, strategy, input, b); got != 1.0 {
		t.Errorf("B scored %v, want 1.0", got)
	}
	if got := scoreOf(t, strategy, input, c); got != 0.0 {
		t.Errorf("junk weight scored %v, want 0.0", got)
	}
	if got := scoreOf(t, strategy, input, d); got != 0.0 {
		t.Errorf("unconfigured provider scored %v, want 0.0", got)
	}
}

func TestLoadBalancingStrategyFilteredHeaviestProvider(t *testing.T) {
	snapshot := DefaultSnapshot()
	snapshot.ProviderWeights = map[string]interface{}{
		"A":     1,
		"Heavy": 4,
	}

	// Heavy was removed by an earlier gate; A's share still normalizes
	// against the full configured map
	a := &stubProvider{name: "A"}
	input := stubInput(snapshot, a)
	strategy := &LoadBalancingStrategy{}

	if got := scoreOf(t, strategy, input, a); !almostEqual(got, 0.25) {
		t.Errorf("A scored %v, want 0.25", got)
	}
}

func TestLoadBalancingStrategyNoPositiveWeights(t *testing.T) {
	snapshot := DefaultSnapshot()
	snapshot.ProviderWeights = map[string]interface{}{"A": 0, "B": 0}

	a := &stubProvider{name: "A"}
	b := &stubProvider{name: "B"}
	input := stubInput(snapshot, a, b)
	strategy := &LoadBalancingStrategy{}

	// With no positive weight anywhere, configured providers spread evenly
	if got := scoreOf(t, strategy, input, a); got != 1.0 {
		t.Errorf("A scored %v, want 1.0", got)
	}
	if got := scoreOf(t, strategy, input, b); got != 1.0 {
		t.Errorf("B scored %v, want 1.0", got)
	}
}

func TestCoerceWeight(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
		want float64
	}{
		{"float64", 2.5, 2.5},
		{"int", 3, 3},
		{"int64", int64(7), 7},
		{"numeric string", "1.5", 1.5},
		{"integer string", "10", 10},
		{"junk string", "heavy", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoerceWeight(tt.raw); got != tt.want {
				t.Errorf("CoerceWeight(%v) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
