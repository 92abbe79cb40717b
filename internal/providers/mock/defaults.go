package mock

import (
	"github.com/shopspring/decimal"
	"payment-router/internal/providers"
)

// NewStripeMock creates the general purpose simulated processor: wide
// capability coverage, mid-range pricing, very reliable.
func NewStripeMock() *Provider {
	return New(Config{
		Name:       "StripeMock",
		Networks:   []string{"VISA", "MASTERCARD", "AMEX", "DISCOVER"},
		Currencies: []string{"USD", "EUR", "GBP", "CAD", "AUD"},
		Countries:  []string{"US", "CA", "GB", "DE", "FR", "AU"},
		DefaultFee: FeeCurve{
			PercentRate: decimal.NewFromFloat(0.029),
			Fixed:       decimal.NewFromFloat(0.30),
		},
		Health: providers.HealthSnapshot{
			SuccessRate: 0.995,
			LatencyMs:   320,
			SampleSize:  15000,
		},
	})
}

// NewAdyenMock creates the European specialist: strong AMEX coverage,
// the cheapest curve for EUR volume.
func NewAdyenMock() *Provider {
	return New(Config{
		Name:       "AdyenMock",
		Networks:   []string{"VISA", "MASTERCARD", "AMEX"},
		Currencies: []string{"USD", "EUR", "GBP", "SEK", "NOK"},
		Countries:  []string{"US", "GB", "DE", "FR", "NL", "SE", "NO"},
		Fees: map[string]FeeCurve{
			"EUR": {
				PercentRate: decimal.NewFromFloat(0.018),
				Fixed:       decimal.NewFromFloat(0.11),
			},
		},
		DefaultFee: FeeCurve{
			PercentRate: decimal.NewFromFloat(0.026),
			Fixed:       decimal.NewFromFloat(0.12),
		},
		Health: providers.HealthSnapshot{
			SuccessRate: 0.992,
			LatencyMs:   280,
			SampleSize:  12000,
		},
	})
}

// NewPayPalMock creates the pricey-but-everywhere processor: widest
// country coverage, highest fees, slowest responses.
func NewPayPalMock() *Provider {
	return New(Config{
		Name:       "PayPalMock",
		Networks:   []string{"VISA", "MASTERCARD", "AMEX", "DISCOVER"},
		Currencies: []string{"USD", "EUR", "GBP", "CAD", "AUD", "JPY", "BRL", "MXN"},
		// Empty country list: PayPalMock takes traffic from anywhere.
		DefaultFee: FeeCurve{
			PercentRate: decimal.NewFromFloat(0.034),
			Fixed:       decimal.NewFromFloat(0.49),
		},
		Health: providers.HealthSnapshot{
			SuccessRate: 0.985,
			LatencyMs:   450,
			SampleSize:  9000,
		},
	})
}

// NewLocalBankMock creates the domestic low-cost processor: US cards only,
// no AMEX, very cheap, thin traffic history.
func NewLocalBankMock() *Provider {
	return New(Config{
		Name:       "LocalBankMock",
		Networks:   []string{"VISA", "MASTERCARD"},
		Currencies: []string{"USD"},
		Countries:  []string{"US"},
		DefaultFee: FeeCurve{
			PercentRate: decimal.NewFromFloat(0.015),
			Fixed:       decimal.NewFromFloat(0.05),
		},
		Health: providers.HealthSnapshot{
			SuccessRate: 0.971,
			LatencyMs:   150,
			SampleSize:  800,
		},
	})
}

// DefaultProviders returns the builtin simulated processor set in the order
// they are registered at startup.
func DefaultProviders() []*Provider {
	return []*Provider{
		NewStripeMock(),
		NewAdyenMock(),
		NewPayPalMock(),
		NewLocalBankMock(),
	}
}
