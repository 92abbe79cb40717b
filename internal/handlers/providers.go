package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"payment-router/internal/common/logging"
	"payment-router/internal/providers"
)

type providerView struct {
	Name         string                    `json:"name"`
	Health       *providers.HealthSnapshot `json:"health,omitempty"`
	HealthError  string                    `json:"health_error,omitempty"`
	BreakerState string                    `json:"breaker_state,omitempty"`
}

func (h *Handlers) providerView(r *http.Request, p providers.Provider) providerView {
	view := providerView{Name: p.Name()}

	health, err := p.HealthSnapshot(r.Context())
	if err != nil {
		view.HealthError = err.Error()
		h.logger.Debug("Provider health read failed",
			logging.String("provider", p.Name()),
			logging.Err(err),
		)
	} else {
		view.Health = &health
	}

	if guarded, ok := p.(*providers.GuardedProvider); ok {
		view.BreakerState = guarded.BreakerState()
	}
	return view
}

// GetProviders lists registered providers with their current health and
// circuit breaker state, in registration order.
func (h *Handlers) GetProviders(w http.ResponseWriter, r *http.Request) {
	all := h.registry.All()
	views := make([]providerView, 0, len(all))
	for _, p := range all {
		views = append(views, h.providerView(r, p))
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"providers": views,
		"count":     len(views),
	})
}

// GetProvider returns one provider by name.
func (h *Handlers) GetProvider(w http.ResponseWriter, r *http.Request) {
	p, err := h.registry.Get(mux.Vars(r)["name"])
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, h.providerView(r, p))
}

// GetProviderHealth returns one provider's health metrics alongside the
// gate thresholds currently applied to them.
func (h *Handlers) GetProviderHealth(w http.ResponseWriter, r *http.Request) {
	p, err := h.registry.Get(mux.Vars(r)["name"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	view := h.providerView(r, p)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":          view.Name,
		"health":        view.Health,
		"health_error":  view.HealthError,
		"breaker_state": view.BreakerState,
		"thresholds":    h.configStore.Snapshot().Health,
	})
}
