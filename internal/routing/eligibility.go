package routing

import (
	"payment-router/internal/common/logging"
	"payment-router/internal/providers"
)

// EligibilityFilter is the mandatory first step of every routing call: a
// binary capability filter over the candidate providers. It is pure; the
// output preserves input order and is always a subset of the input.
type EligibilityFilter struct {
	logger logging.Logger
}

// NewEligibilityFilter creates an eligibility filter.
func NewEligibilityFilter(logger logging.Logger) *EligibilityFilter {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &EligibilityFilter{logger: logger}
}

// Filter returns the subset of candidates that support the context's
// network, currency and country.
func (f *EligibilityFilter) Filter(ctx *RoutingContext, candidates []providers.Provider) []providers.Provider {
	eligible := make([]providers.Provider, 0, len(candidates))

	for _, p := range candidates {
		if p.Supports(ctx.Network, ctx.Currency, ctx.Country) {
			eligible = append(eligible, p)
			continue
		}
		f.logger.Debug("Provider not eligible",
			logging.String("provider", p.Name()),
			logging.String("network", ctx.Network),
			logging.String("currency", ctx.Currency),
			logging.String("country", ctx.Country),
		)
	}

	return eligible
}
