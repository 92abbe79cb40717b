package providers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"payment-router/internal/circuitbreaker"
	"payment-router/internal/common/logging"
)

// GuardedProvider decorates a Provider with a circuit breaker and a per-call
// timeout on fee and health lookups. Capability checks stay direct: Supports
// is a pure in-memory predicate and must never block.
//
// An open breaker or an elapsed timeout surfaces as an error from FeeFor or
// HealthSnapshot, which the scoring strategies treat as a strategy-local
// failure (degraded score), never as an aborted routing call.
type GuardedProvider struct {
	inner   Provider
	breaker *circuitbreaker.Breaker
	timeout time.Duration
}

// Guard wraps a provider with breaker and timeout protection.
func Guard(p Provider, timeout time.Duration, logger logging.Logger) *GuardedProvider {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &GuardedProvider{
		inner:   p,
		breaker: circuitbreaker.New("provider:"+p.Name(), circuitbreaker.ProviderConfig, logger),
		timeout: timeout,
	}
}

// Name returns the wrapped provider's name.
func (g *GuardedProvider) Name() string {
	return g.inner.Name()
}

// Supports delegates directly to the wrapped provider.
func (g *GuardedProvider) Supports(network, currency, country string) bool {
	return g.inner.Supports(network, currency, country)
}

// FeeFor fetches the fee through the breaker with a per-call timeout.
func (g *GuardedProvider) FeeFor(ctx context.Context, currency string, amount decimal.Decimal) (Fee, error) {
	var fee Fee
	err := g.breaker.Execute(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		var innerErr error
		fee, innerErr = g.inner.FeeFor(callCtx, currency, amount)
		return innerErr
	})
	return fee, err
}

// HealthSnapshot fetches health metrics through the breaker with a per-call timeout.
func (g *GuardedProvider) HealthSnapshot(ctx context.Context) (HealthSnapshot, error) {
	var snapshot HealthSnapshot
	err := g.breaker.Execute(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		var innerErr error
		snapshot, innerErr = g.inner.HealthSnapshot(callCtx)
		return innerErr
	})
	return snapshot, err
}

// BreakerState exposes the current circuit state for diagnostics.
func (g *GuardedProvider) BreakerState() string {
	return g.breaker.State()
}
