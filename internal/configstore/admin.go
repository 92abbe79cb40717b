package configstore

import (
	"encoding/json"
	"fmt"

	"payment-router/internal/common/errors"
	"payment-router/internal/routing"
	"payment-router/internal/storage"
)

// The Set* methods back the admin API. Each one validates, persists the
// document, then refreshes so the change is visible to the next routing
// call. Validation happens before the write: storage never holds a
// document the loader would reject.

// SetRules replaces the persisted rule set.
func (s *Store) SetRules(rules []routing.RoutingRule) error {
	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			return errors.ValidationError(fmt.Sprintf("rule %d: %v", i, err))
		}
	}
	return s.persist(storage.KeyRules, rules)
}

// SetProviderWeights replaces the persisted load-balancing weights.
func (s *Store) SetProviderWeights(weights map[string]interface{}) error {
	for name, raw := range weights {
		if w := routing.CoerceWeight(raw); w < 0 {
			return errors.ValidationError(fmt.Sprintf("weight for %s is negative", name))
		}
	}
	return s.persist(storage.KeyProviderWeights, weights)
}

// SetActiveProfile switches the profile used by calls without an explicit
// override. The name must resolve against the current snapshot's custom
// profiles or the builtin catalog.
func (s *Store) SetActiveProfile(name string) error {
	if _, err := routing.ResolveProfile(name, s.Snapshot()); err != nil {
		return errors.ValidationError(fmt.Sprintf("profile %q: %v", name, err))
	}
	return s.persist(storage.KeyActiveProfile, name)
}

// SetCustomProfile creates or replaces one custom profile.
func (s *Store) SetCustomProfile(profile *routing.RoutingProfile) error {
	if err := profile.Validate(); err != nil {
		return errors.ValidationError(err.Error())
	}

	profiles := s.Snapshot().CustomProfiles
	updated := make(map[string]*routing.RoutingProfile, len(profiles)+1)
	for name, p := range profiles {
		updated[name] = p
	}
	updated[profile.Name] = profile

	return s.persist(storage.KeyCustomProfiles, updated)
}

// DeleteCustomProfile removes one custom profile. Deleting the active
// profile is allowed; the engine falls back to balanced until the active
// profile is changed.
func (s *Store) DeleteCustomProfile(name string) error {
	profiles := s.Snapshot().CustomProfiles
	if _, ok := profiles[name]; !ok {
		return errors.NotFoundError("profile " + name)
	}

	updated := make(map[string]*routing.RoutingProfile, len(profiles))
	for existing, p := range profiles {
		if existing != name {
			updated[existing] = p
		}
	}
	return s.persist(storage.KeyCustomProfiles, updated)
}

// SetHealthThresholds replaces the health gate thresholds.
func (s *Store) SetHealthThresholds(thresholds routing.HealthThresholds) error {
	if !thresholds.Valid() {
		return errors.ValidationError("health thresholds out of range")
	}
	return s.persist(storage.KeyHealthThresholds, thresholds)
}

func (s *Store) persist(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := s.storage.SetConfig(key, raw); err != nil {
		return err
	}
	return s.Refresh()
}
