package routing

import (
	"context"
)

// RulesStrategy scores providers against the ordered business rule list in
// the active snapshot. Only the first matching rule applies; later rules
// are ignored even if they would also match.
//
// Scores by rule mode:
//   - STRICT: listed providers 1.0, everyone else 0.0
//   - PREFERRED: listed providers 0.8, everyone else 0.5
//   - EXCLUDED: listed providers 0.0, everyone else 0.5
//
// When no rule matches, every provider receives the neutral 0.5 so the
// other strategies decide the outcome.
type RulesStrategy struct{}

// Type returns the strategy identifier.
func (s *RulesStrategy) Type() StrategyType { return StrategyRules }

// Score evaluates the first matching rule against the provider.
func (s *RulesStrategy) Score(_ context.Context, input ScoreInput) (float64, error) {
	rule := s.firstMatch(input)
	if rule == nil {
		return NeutralScore, nil
	}

	listed := rule.Action.Applies(input.Provider.Name())
	switch rule.Action.Mode {
	case ModeStrict:
		if listed {
			return 1.0, nil
		}
		return 0.0, nil
	case ModePreferred:
		if listed {
			return 0.8, nil
		}
		return NeutralScore, nil
	case ModeExcluded:
		if listed {
			return 0.0, nil
		}
		return NeutralScore, nil
	default:
		return NeutralScore, ErrInvalidRule
	}
}

// Explain reports which rule fired, if any.
func (s *RulesStrategy) Explain(_ context.Context, input ScoreInput, score float64) map[string]any {
	rule := s.firstMatch(input)
	if rule == nil {
		return map[string]any{
			"matched": false,
			"score":   score,
		}
	}
	return map[string]any{
		"matched":     true,
		"mode":        string(rule.Action.Mode),
		"description": rule.Description,
		"listed":      rule.Action.Applies(input.Provider.Name()),
		"score":       score,
	}
}

func (s *RulesStrategy) firstMatch(input ScoreInput) *RoutingRule {
	if input.Snapshot == nil {
		return nil
	}
	for i := range input.Snapshot.Rules {
		if input.Snapshot.Rules[i].Matches(input.Context) {
			return &input.Snapshot.Rules[i]
		}
	}
	return nil
}
