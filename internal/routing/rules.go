package routing

import (
	"fmt"
	"strconv"
	"strings"
)

// Rule condition fields. Conditions are a pure (field, operator, value)
// representation so rules stay serializable and configurable without
// executing arbitrary code.
const (
	FieldCountry = "country"
	FieldNetwork = "network"
	FieldBIN     = "bin"
)

// Rule condition operators.
const (
	OperatorEquals = "eq"     // exact match, case-insensitive (country, network)
	OperatorRange  = "range"  // numeric BIN range, e.g. "411111-411119"
	OperatorPrefix = "prefix" // BIN prefix match, e.g. "4111"
)

// Rule action modes.
const (
	// ModeStrict scores listed providers 1.0 and everyone else 0.0
	ModeStrict = "STRICT"
	// ModePreferred scores listed providers 0.8 and everyone else 0.5
	ModePreferred = "PREFERRED"
	// ModeExcluded scores listed providers 0.0 and everyone else 0.5
	ModeExcluded = "EXCLUDED"
)

// RuleCondition is a single field predicate. All conditions on a rule are
// combined with AND logic.
type RuleCondition struct {
	Field    string `json:"field"`    // country, network or bin
	Operator string `json:"operator"` // eq, range or prefix
	Value    string `json:"value"`    // comparison value
}

// RuleAction describes what a matching rule does to provider scores.
type RuleAction struct {
	Mode      string   `json:"mode"`      // STRICT, PREFERRED or EXCLUDED
	Providers []string `json:"providers"` // provider names the mode applies to
}

// RoutingRule pairs a condition conjunction with an action. Rules are
// ordered; the first rule whose conditions all match the context wins.
type RoutingRule struct {
	Conditions  []RuleCondition `json:"conditions"`
	Action      RuleAction      `json:"action"`
	Description string          `json:"description"`
}

// Matches reports whether every condition on the rule holds for the context.
// A rule with no conditions never matches.
func (r *RoutingRule) Matches(ctx *RoutingContext) bool {
	if len(r.Conditions) == 0 {
		return false
	}
	for i := range r.Conditions {
		if !r.Conditions[i].matches(ctx) {
			return false
		}
	}
	return true
}

// Applies reports whether the rule's action lists the given provider.
func (a *RuleAction) Applies(provider string) bool {
	for _, name := range a.Providers {
		if name == provider {
			return true
		}
	}
	return false
}

func (c *RuleCondition) matches(ctx *RoutingContext) bool {
	switch c.Field {
	case FieldCountry:
		return c.Operator == OperatorEquals && strings.EqualFold(ctx.Country, c.Value)

	case FieldNetwork:
		return c.Operator == OperatorEquals && strings.EqualFold(ctx.Network, c.Value)

	case FieldBIN:
		switch c.Operator {
		case OperatorPrefix:
			return ctx.BINPrefix != "" && strings.HasPrefix(ctx.BINPrefix, c.Value)
		case OperatorRange:
			return binInRange(ctx.BINPrefix, c.Value)
		}
		return false

	default:
		return false
	}
}

// binInRange tests membership of a BIN prefix in an explicit numeric range
// like "411111-411119". The BIN is truncated to the range bound width before
// comparison; a BIN shorter than the bounds never matches.
func binInRange(bin, rangeSpec string) bool {
	low, high, ok := parseBINRange(rangeSpec)
	if !ok || bin == "" {
		return false
	}

	width := len(strconv.FormatInt(low, 10))
	if len(bin) < width {
		return false
	}

	value, err := strconv.ParseInt(bin[:width], 10, 64)
	if err != nil {
		return false
	}

	return value >= low && value <= high
}

func parseBINRange(spec string) (low, high int64, ok bool) {
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	low, errLow := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	high, errHigh := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if errLow != nil || errHigh != nil || low > high {
		return 0, 0, false
	}
	if len(strings.TrimSpace(parts[0])) != len(strings.TrimSpace(parts[1])) {
		// Bounds of unequal width make the truncation ambiguous
		return 0, 0, false
	}

	return low, high, true
}

// Validate checks the structural integrity of a rule.
func (r *RoutingRule) Validate() error {
	if len(r.Conditions) == 0 {
		return fmt.Errorf("%w: must have at least one condition", ErrInvalidRule)
	}

	for i := range r.Conditions {
		if err := r.Conditions[i].validate(); err != nil {
			return fmt.Errorf("%w: condition %d: %v", ErrInvalidRule, i, err)
		}
	}

	switch r.Action.Mode {
	case ModeStrict, ModePreferred, ModeExcluded:
	default:
		return fmt.Errorf("%w: unknown action mode %q", ErrInvalidRule, r.Action.Mode)
	}

	if len(r.Action.Providers) == 0 {
		return fmt.Errorf("%w: action must name at least one provider", ErrInvalidRule)
	}

	return nil
}

func (c *RuleCondition) validate() error {
	switch c.Field {
	case FieldCountry, FieldNetwork:
		if c.Operator != OperatorEquals {
			return fmt.Errorf("field %s only supports the %s operator", c.Field, OperatorEquals)
		}
	case FieldBIN:
		switch c.Operator {
		case OperatorPrefix:
			if c.Value == "" {
				return fmt.Errorf("bin prefix value must not be empty")
			}
		case OperatorRange:
			if _, _, ok := parseBINRange(c.Value); !ok {
				return fmt.Errorf("invalid bin range %q", c.Value)
			}
		default:
			return fmt.Errorf("field bin only supports %s and %s operators", OperatorRange, OperatorPrefix)
		}
	default:
		return fmt.Errorf("unknown condition field %q", c.Field)
	}

	if c.Value == "" {
		return fmt.Errorf("condition value must not be empty")
	}
	return nil
}

// DefaultRules is the small builtin rule set substituted when the configured
// rules are missing or corrupt. Changing it is a behavior change for every
// deployment without persisted rules; keep it boring.
func DefaultRules() []RoutingRule {
	return []RoutingRule{
		{
			Conditions: []RuleCondition{
				{Field: FieldCountry, Operator: OperatorEquals, Value: "US"},
				{Field: FieldNetwork, Operator: OperatorEquals, Value: "AMEX"},
			},
			Action:      RuleAction{Mode: ModePreferred, Providers: []string{"AdyenMock"}},
			Description: "Prefer AdyenMock for US AMEX traffic",
		},
		{
			Conditions: []RuleCondition{
				{Field: FieldBIN, Operator: OperatorRange, Value: "411111-411119"},
			},
			Action:      RuleAction{Mode: ModePreferred, Providers: []string{"StripeMock"}},
			Description: "Route the VISA test card range through StripeMock",
		},
	}
}
