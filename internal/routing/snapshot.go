package routing

import (
	"strconv"
	"time"
)

// Snapshot is the immutable routing configuration read by a single call:
// business rules, load-balancing weights, custom profiles, the active
// profile name and the health thresholds.
//
// Snapshots are built off to the side and swapped in atomically by the
// configuration store; the engine only ever reads them. A routing call
// captures one snapshot pointer at the start and uses it throughout, so a
// concurrent swap never mixes two configurations inside one decision.
type Snapshot struct {
	Version  int64     `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`

	Rules         []RoutingRule `json:"rules"`
	RulesFallback bool          `json:"rules_fallback"` // builtin defaults substituted

	// ProviderWeights drives the load-balancing strategy. Values are kept
	// raw because operators supply them as numbers or numeric strings;
	// CoerceWeight normalizes at scoring time.
	ProviderWeights map[string]interface{} `json:"provider_weights"`

	CustomProfiles map[string]*RoutingProfile `json:"custom_profiles"`
	ActiveProfile  string                     `json:"active_profile"`

	Health HealthThresholds `json:"health"`
}

// SnapshotSource yields the current configuration snapshot. The store
// guarantees the returned pointer is never nil and never mutated.
type SnapshotSource interface {
	Snapshot() *Snapshot
}

// DefaultSnapshot returns a snapshot carrying only builtin configuration,
// used before the first successful load from storage.
func DefaultSnapshot() *Snapshot {
	return &Snapshot{
		Version:         0,
		LoadedAt:        time.Now().UTC(),
		Rules:           DefaultRules(),
		RulesFallback:   true,
		ProviderWeights: map[string]interface{}{},
		CustomProfiles:  map[string]*RoutingProfile{},
		ActiveProfile:   ProfileBalanced,
		Health:          DefaultHealthThresholds(),
	}
}

// CoerceWeight converts a raw configured weight to a float64. Numbers and
// numeric strings pass through; anything else coerces to 0.
func CoerceWeight(raw interface{}) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case string:
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
		return 0
	default:
		return 0
	}
}

// StaticSnapshotSource wraps a fixed snapshot; used in tests and during
// bootstrap before the configuration store is wired.
type StaticSnapshotSource struct {
	Snap *Snapshot
}

// Snapshot returns the wrapped snapshot, or builtin defaults when unset.
func (s *StaticSnapshotSource) Snapshot() *Snapshot {
	if s.Snap == nil {
		return DefaultSnapshot()
	}
	return s.Snap
}
