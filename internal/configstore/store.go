// Package configstore owns the live routing configuration. It loads the
// persisted configuration documents, assembles them into an immutable
// routing.Snapshot and swaps the snapshot in atomically, so routing calls
// never observe a half-applied refresh.
package configstore

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"payment-router/internal/common/logging"
	"payment-router/internal/routing"
	"payment-router/internal/storage"
)

// Store assembles and serves routing configuration snapshots.
//
// Reads are lock-free: Snapshot returns the current pointer. Writes are
// serialized: a refresh builds a complete replacement off to the side and
// swaps it in only when every document parsed. A failed refresh keeps the
// previous snapshot serving traffic.
type Store struct {
	storage storage.Storage
	logger  logging.Logger

	current atomic.Pointer[routing.Snapshot]
	version atomic.Int64

	refreshMu sync.Mutex
}

// New creates a configuration store seeded with builtin defaults. Call
// Refresh to load the persisted configuration.
func New(st storage.Storage, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	store := &Store{
		storage: st,
		logger:  logger,
	}
	store.current.Store(routing.DefaultSnapshot())
	return store
}

// Snapshot returns the current configuration snapshot. The returned
// pointer is immutable and safe to use for the duration of a routing call.
func (s *Store) Snapshot() *routing.Snapshot {
	return s.current.Load()
}

// Version returns the version of the currently served snapshot.
func (s *Store) Version() int64 {
	return s.Snapshot().Version
}

// Refresh rebuilds the snapshot from storage and swaps it in. Corrupt
// individual documents degrade to their builtin defaults with a warning;
// only a storage read failure aborts the refresh, in which case the
// previous snapshot stays in place.
func (s *Store) Refresh() error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	documents, err := s.storage.GetAllConfig()
	if err != nil {
		s.logger.Error("Configuration refresh failed, keeping previous snapshot", err,
			logging.Int64("serving_version", s.Version()),
		)
		return fmt.Errorf("load routing config: %w", err)
	}

	snapshot := s.build(documents)
	snapshot.Version = s.version.Add(1)
	snapshot.LoadedAt = time.Now().UTC()
	s.current.Store(snapshot)

	s.logger.Info("Routing configuration refreshed",
		logging.Int64("version", snapshot.Version),
		logging.Int("rules", len(snapshot.Rules)),
		logging.Int("custom_profiles", len(snapshot.CustomProfiles)),
		logging.String("active_profile", snapshot.ActiveProfile),
		logging.Bool("rules_fallback", snapshot.RulesFallback),
	)
	return nil
}

// build assembles a snapshot from raw documents, substituting builtin
// defaults for anything missing or corrupt.
func (s *Store) build(documents map[string][]byte) *routing.Snapshot {
	snapshot := routing.DefaultSnapshot()
	snapshot.Rules = s.loadRules(documents[storage.KeyRules], &snapshot.RulesFallback)
	snapshot.ProviderWeights = s.loadWeights(documents[storage.KeyProviderWeights])
	snapshot.CustomProfiles = s.loadProfiles(documents[storage.KeyCustomProfiles])
	snapshot.ActiveProfile = s.loadActiveProfile(documents[storage.KeyActiveProfile])
	snapshot.Health = s.loadHealthThresholds(documents[storage.KeyHealthThresholds])
	return snapshot
}

func (s *Store) loadRules(raw []byte, fallback *bool) []routing.RoutingRule {
	*fallback = true
	if raw == nil {
		return routing.DefaultRules()
	}

	var rules []routing.RoutingRule
	if err := json.Unmarshal(raw, &rules); err != nil {
		s.logger.Warn("Stored rules are corrupt, using builtin defaults", logging.Err(err))
		return routing.DefaultRules()
	}
	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			s.logger.Warn("Stored rule set is invalid, using builtin defaults",
				logging.Int("rule", i),
				logging.Err(err),
			)
			return routing.DefaultRules()
		}
	}

	*fallback = false
	return rules
}

func (s *Store) loadWeights(raw []byte) map[string]interface{} {
	if raw == nil {
		return map[string]interface{}{}
	}
	var weights map[string]interface{}
	if err := json.Unmarshal(raw, &weights); err != nil {
		s.logger.Warn("Stored provider weights are corrupt, ignoring", logging.Err(err))
		return map[string]interface{}{}
	}
	return weights
}

func (s *Store) loadProfiles(raw []byte) map[string]*routing.RoutingProfile {
	out := map[string]*routing.RoutingProfile{}
	if raw == nil {
		return out
	}

	var profiles map[string]*routing.RoutingProfile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		s.logger.Warn("Stored custom profiles are corrupt, ignoring", logging.Err(err))
		return out
	}

	// Invalid profiles are dropped individually; one bad profile must not
	// take down the rest.
	for name, profile := range profiles {
		if profile == nil {
			continue
		}
		if profile.Name == "" {
			profile.Name = name
		}
		if err := profile.Validate(); err != nil {
			s.logger.Warn("Dropping invalid custom profile",
				logging.String("profile", name),
				logging.Err(err),
			)
			continue
		}
		out[name] = profile
	}
	return out
}

func (s *Store) loadActiveProfile(raw []byte) string {
	if raw == nil {
		return routing.ProfileBalanced
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil || name == "" {
		s.logger.Warn("Stored active profile is corrupt, using balanced", logging.Err(err))
		return routing.ProfileBalanced
	}
	return name
}

func (s *Store) loadHealthThresholds(raw []byte) routing.HealthThresholds {
	if raw == nil {
		return routing.DefaultHealthThresholds()
	}
	var thresholds routing.HealthThresholds
	if err := json.Unmarshal(raw, &thresholds); err != nil {
		s.logger.Warn("Stored health thresholds are corrupt, using defaults", logging.Err(err))
		return routing.DefaultHealthThresholds()
	}
	if !thresholds.Valid() {
		s.logger.Warn("Stored health thresholds are out of range, using defaults")
		return routing.DefaultHealthThresholds()
	}
	return thresholds
}
