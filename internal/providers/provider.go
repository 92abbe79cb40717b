// Package providers defines the payment provider port used by the routing
// engine, along with the process-lifetime registry of candidate providers.
//
// A Provider is an opaque capability/fee/health source. The routing engine
// never talks to a real processor network; implementations are expected to
// answer from memory or a local cache and return quickly.
package providers

import (
	"context"

	"github.com/shopspring/decimal"
)

// Fee describes the cost a provider charges for processing one transaction.
type Fee struct {
	Amount   decimal.Decimal `json:"amount"`   // Fee amount in Currency units
	Currency string          `json:"currency"` // ISO 4217 currency code
	Type     string          `json:"type"`     // Fee type: flat, percentage, blended
}

// HealthSnapshot is a point-in-time view of a provider's reliability metrics.
type HealthSnapshot struct {
	SuccessRate float64 `json:"success_rate"` // Fraction of recent requests that succeeded, in [0,1]
	LatencyMs   int64   `json:"latency_ms"`   // Average processing latency in milliseconds
	SampleSize  int64   `json:"sample_size"`  // Number of requests backing the metrics
}

// Provider is the contract every candidate payment processor implements.
//
// Implementations must be safe for concurrent use: the routing engine calls
// all three methods from concurrent routing requests without locking.
type Provider interface {
	// Name returns the unique provider identifier used in rules, weights
	// and decisions.
	Name() string

	// Supports reports whether the provider can process a transaction with
	// the given card network, currency and country.
	Supports(network, currency, country string) bool

	// FeeFor returns the fee the provider charges for a transaction of the
	// given amount and currency.
	FeeFor(ctx context.Context, currency string, amount decimal.Decimal) (Fee, error)

	// HealthSnapshot returns the provider's current reliability metrics.
	HealthSnapshot(ctx context.Context) (HealthSnapshot, error)
}
