package routing

import (
	"payment-router/internal/common/logging"
	"payment-router/internal/providers"
)

// HealthThresholds is the pass/fail gate applied after eligibility. A
// provider passes only if all three thresholds hold. This is independent of
// the continuous reliability score, which uses the same metrics but
// normalizes instead of gating.
type HealthThresholds struct {
	MinSuccessRate float64 `json:"min_success_rate"` // default 0.90
	MaxLatencyMs   int64   `json:"max_latency_ms"`   // default 5000
	MinSampleSize  int64   `json:"min_sample_size"`  // default 100
}

// DefaultHealthThresholds returns the thresholds used when configuration is
// missing or unreadable.
func DefaultHealthThresholds() HealthThresholds {
	return HealthThresholds{
		MinSuccessRate: 0.90,
		MaxLatencyMs:   5000,
		MinSampleSize:  100,
	}
}

// Valid reports whether the thresholds are usable as a gate.
func (t HealthThresholds) Valid() bool {
	return t.MinSuccessRate > 0 && t.MinSuccessRate <= 1 &&
		t.MaxLatencyMs > 0 && t.MinSampleSize >= 0
}

// Pass applies the gate to one health snapshot.
func (t HealthThresholds) Pass(s providers.HealthSnapshot) bool {
	return s.SuccessRate >= t.MinSuccessRate &&
		s.LatencyMs <= t.MaxLatencyMs &&
		s.SampleSize >= t.MinSampleSize
}

// HealthFilter gates eligible providers on their reliability metrics.
type HealthFilter struct {
	logger logging.Logger
}

// NewHealthFilter creates a health filter.
func NewHealthFilter(logger logging.Logger) *HealthFilter {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &HealthFilter{logger: logger}
}

// Filter returns the subset of eligible providers whose metrics pass the
// thresholds. Invalid thresholds fall back to the defaults rather than
// failing the call. A provider whose metrics could not be read is treated
// as unhealthy: the gate cannot be verified.
//
// The health map is keyed by provider name and shared with the reliability
// strategy so both consume the same underlying metrics.
func (f *HealthFilter) Filter(eligible []providers.Provider, health map[string]providers.HealthSnapshot, thresholds HealthThresholds) []providers.Provider {
	if !thresholds.Valid() {
		f.logger.Warn("Invalid health thresholds, falling back to defaults",
			logging.Field{Key: "configured", Value: thresholds},
		)
		thresholds = DefaultHealthThresholds()
	}

	healthy := make([]providers.Provider, 0, len(eligible))
	for _, p := range eligible {
		snapshot, ok := health[p.Name()]
		if !ok {
			f.logger.Warn("Provider health unavailable, treating as unhealthy",
				logging.String("provider", p.Name()),
			)
			continue
		}
		if thresholds.Pass(snapshot) {
			healthy = append(healthy, p)
			continue
		}
		f.logger.Debug("Provider failed health gate",
			logging.String("provider", p.Name()),
			logging.Float64("success_rate", snapshot.SuccessRate),
			logging.Int64("latency_ms", snapshot.LatencyMs),
			logging.Int64("sample_size", snapshot.SampleSize),
		)
	}

	return healthy
}
