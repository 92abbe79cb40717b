package routing

import "errors"

var (
	// ErrNilContext is returned when Route is called without a context
	ErrNilContext = errors.New("routing context is required")
	// ErrEmptyRegistry is returned when no providers are registered
	ErrEmptyRegistry = errors.New("no providers registered")
	// ErrUnknownProfile signals that a profile name resolved to nothing
	ErrUnknownProfile = errors.New("unknown routing profile")
	// ErrInvalidProfile signals that a profile violates its invariants
	ErrInvalidProfile = errors.New("invalid routing profile")
	// ErrInvalidRule signals a malformed routing rule
	ErrInvalidRule = errors.New("invalid routing rule")
)

// Terminal decision reasons. These are business outcomes, not errors: the
// engine returns a decision carrying one of these strings with no selected
// provider.
const (
	ReasonNoEligibleProviders = "No eligible providers found"
	ReasonNoHealthyProviders  = "No healthy providers found"
)
