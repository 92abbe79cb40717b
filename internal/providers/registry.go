package providers

import (
	"sync"

	"payment-router/internal/common/errors"
)

// Registry holds the fixed set of candidate providers for the process
// lifetime. Providers are registered once at startup and read-only during
// routing; registration order is preserved because it is the deterministic
// tie-breaker when composite scores are equal.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]Provider
	ordered []Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Provider),
	}
}

// Register adds a provider to the registry. Registering a duplicate name
// is a configuration error.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return errors.ValidationError("provider must not be nil")
	}
	if p.Name() == "" {
		return errors.ValidationError("provider name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[p.Name()]; exists {
		return errors.ValidationError("provider " + p.Name() + " is already registered")
	}

	r.byName[p.Name()] = p
	r.ordered = append(r.ordered, p)
	return nil
}

// Get returns the provider with the given name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.byName[name]
	if !exists {
		return nil, errors.NotFoundError("provider " + name)
	}
	return p, nil
}

// All returns every registered provider in registration order.
// The returned slice is a copy and safe to filter in place.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Names returns the registered provider names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.ordered))
	for i, p := range r.ordered {
		names[i] = p.Name()
	}
	return names
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}
