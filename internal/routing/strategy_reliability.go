package routing

import (
	"context"
)

// Reliability blend weights. Success rate dominates, latency refines.
const (
	reliabilitySuccessWeight = 0.7
	reliabilityLatencyWeight = 0.3
)

// ReliabilityStrategy scores providers on operational quality:
//
//	score = 0.7*successRate + 0.3*latencyScore
//
// where latencyScore is the min-max normalized inverse latency across the
// surviving set (fastest 1.0, slowest 0.0, all-equal 1.0). A provider with
// no health metrics in the table scores 0.0; the health gate normally keeps
// such providers out, so this is a defensive floor for custom thresholds.
type ReliabilityStrategy struct{}

// Type returns the strategy identifier.
func (s *ReliabilityStrategy) Type() StrategyType { return StrategyReliability }

// Score blends success rate with normalized latency.
func (s *ReliabilityStrategy) Score(_ context.Context, input ScoreInput) (float64, error) {
	health, ok := input.Health[input.Provider.Name()]
	if !ok {
		return 0.0, nil
	}
	return reliabilitySuccessWeight*health.SuccessRate +
		reliabilityLatencyWeight*s.latencyScore(input, health.LatencyMs), nil
}

// Explain reports the raw metrics behind the blended score.
func (s *ReliabilityStrategy) Explain(_ context.Context, input ScoreInput, score float64) map[string]any {
	health, ok := input.Health[input.Provider.Name()]
	if !ok {
		return map[string]any{
			"metrics_available": false,
			"score":             score,
		}
	}
	return map[string]any{
		"metrics_available": true,
		"success_rate":      health.SuccessRate,
		"latency_ms":        health.LatencyMs,
		"sample_size":       health.SampleSize,
		"latency_score":     s.latencyScore(input, health.LatencyMs),
		"score":             score,
	}
}

// latencyScore min-max normalizes latency across survivors, inverted so
// lower latency scores higher.
func (s *ReliabilityStrategy) latencyScore(input ScoreInput, latency int64) float64 {
	var min, max int64
	found := false
	for _, p := range input.Survivors {
		health, ok := input.Health[p.Name()]
		if !ok {
			continue
		}
		if !found {
			min, max = health.LatencyMs, health.LatencyMs
			found = true
			continue
		}
		if health.LatencyMs < min {
			min = health.LatencyMs
		}
		if health.LatencyMs > max {
			max = health.LatencyMs
		}
	}
	if !found || min == max {
		return 1.0
	}
	return 1.0 - float64(latency-min)/float64(max-min)
}
