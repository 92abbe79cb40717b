// Package mock provides simulated payment providers with fixed capability
// tables, fee curves and health numbers. They back the default registry in
// development deployments and are used heavily in tests.
package mock

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"payment-router/internal/common/errors"
	"payment-router/internal/providers"
)

// FeeCurve describes how a mock provider prices a transaction: a percentage
// of the amount plus a fixed component, both in the transaction currency.
type FeeCurve struct {
	PercentRate decimal.Decimal // e.g. 0.029 for 2.9%
	Fixed       decimal.Decimal // flat component added to every transaction
}

// Config describes a simulated provider.
//
// Empty capability slices mean "supports everything" for that dimension,
// which keeps fixtures short; real capability tables always enumerate.
type Config struct {
	Name       string
	Networks   []string // supported card networks (VISA, MASTERCARD, AMEX, ...)
	Currencies []string // supported ISO 4217 currency codes
	Countries  []string // supported ISO 3166-1 alpha-2 country codes

	Fees       map[string]FeeCurve // fee curve per currency
	DefaultFee FeeCurve            // used when no per-currency curve exists

	Health providers.HealthSnapshot
}

// Provider is a deterministic in-memory provider implementation.
type Provider struct {
	config     Config
	networks   map[string]bool
	currencies map[string]bool
	countries  map[string]bool
}

// New creates a mock provider from the given config.
func New(config Config) *Provider {
	return &Provider{
		config:     config,
		networks:   toSet(config.Networks),
		currencies: toSet(config.Currencies),
		countries:  toSet(config.Countries),
	}
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil // nil set means "anything goes"
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToUpper(v)] = true
	}
	return set
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return p.config.Name
}

// Supports reports capability for the network/currency/country triple.
func (p *Provider) Supports(network, currency, country string) bool {
	return inSet(p.networks, network) &&
		inSet(p.currencies, currency) &&
		inSet(p.countries, country)
}

func inSet(set map[string]bool, value string) bool {
	if set == nil {
		return true
	}
	return set[strings.ToUpper(value)]
}

// FeeFor computes percentage-plus-fixed pricing for the transaction,
// rounded to 2 decimal places.
func (p *Provider) FeeFor(ctx context.Context, currency string, amount decimal.Decimal) (providers.Fee, error) {
	if amount.IsNegative() {
		return providers.Fee{}, errors.ValidationError("amount must not be negative")
	}

	curve, ok := p.config.Fees[strings.ToUpper(currency)]
	if !ok {
		curve = p.config.DefaultFee
	}

	fee := amount.Mul(curve.PercentRate).Add(curve.Fixed).Round(2)
	return providers.Fee{
		Amount:   fee,
		Currency: strings.ToUpper(currency),
		Type:     "blended",
	}, nil
}

// HealthSnapshot returns the configured health metrics.
func (p *Provider) HealthSnapshot(ctx context.Context) (providers.HealthSnapshot, error) {
	return p.config.Health, nil
}
