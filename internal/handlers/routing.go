package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"payment-router/internal/routing"
)

// Admin configuration endpoints. Every mutation validates, persists and
// refreshes the snapshot before responding, so a subsequent read reflects
// the change.

func (h *Handlers) GetRules(w http.ResponseWriter, r *http.Request) {
	snapshot := h.configStore.Snapshot()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"rules":    snapshot.Rules,
		"fallback": snapshot.RulesFallback,
		"version":  snapshot.Version,
	})
}

func (h *Handlers) UpdateRules(w http.ResponseWriter, r *http.Request) {
	var rules []routing.RoutingRule
	if err := h.decodeBody(r, &rules); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.configStore.SetRules(rules); err != nil {
		h.respondError(w, err)
		return
	}
	h.GetRules(w, r)
}

func (h *Handlers) GetProviderWeights(w http.ResponseWriter, r *http.Request) {
	snapshot := h.configStore.Snapshot()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"weights": snapshot.ProviderWeights,
		"version": snapshot.Version,
	})
}

func (h *Handlers) UpdateProviderWeights(w http.ResponseWriter, r *http.Request) {
	var weights map[string]interface{}
	if err := h.decodeBody(r, &weights); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.configStore.SetProviderWeights(weights); err != nil {
		h.respondError(w, err)
		return
	}
	h.GetProviderWeights(w, r)
}

func (h *Handlers) GetProfiles(w http.ResponseWriter, r *http.Request) {
	snapshot := h.configStore.Snapshot()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"active":  snapshot.ActiveProfile,
		"builtin": routing.BuiltinProfiles(),
		"custom":  snapshot.CustomProfiles,
	})
}

func (h *Handlers) SetActiveProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := h.decodeBody(r, &body); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.configStore.SetActiveProfile(body.Name); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"active": body.Name})
}

func (h *Handlers) UpsertCustomProfile(w http.ResponseWriter, r *http.Request) {
	var profile routing.RoutingProfile
	if err := h.decodeBody(r, &profile); err != nil {
		h.respondError(w, err)
		return
	}
	if name := mux.Vars(r)["name"]; name != "" {
		profile.Name = name
	}
	if err := h.configStore.SetCustomProfile(&profile); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, &profile)
}

func (h *Handlers) DeleteCustomProfile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.configStore.DeleteCustomProfile(name); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handlers) GetHealthThresholds(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.configStore.Snapshot().Health)
}

func (h *Handlers) UpdateHealthThresholds(w http.ResponseWriter, r *http.Request) {
	var thresholds routing.HealthThresholds
	if err := h.decodeBody(r, &thresholds); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.configStore.SetHealthThresholds(thresholds); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, thresholds)
}

// RefreshConfig forces an immediate reload from storage, outside the
// scheduled refresh cadence.
func (h *Handlers) RefreshConfig(w http.ResponseWriter, r *http.Request) {
	if err := h.configStore.Refresh(); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"version": h.configStore.Version(),
	})
}
