package handlers

import (
	"net/http"
)

// HealthCheck reports liveness of the service and its dependencies.
// A degraded dependency returns 503 so load balancers can drain the node.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := map[string]string{}

	if err := h.storage.Health(); err != nil {
		checks["storage"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Health(); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["redis"] = "ok"
		}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	body := map[string]interface{}{
		"status":         overall,
		"checks":         checks,
		"providers":      h.registry.Len(),
		"config_version": h.configStore.Version(),
		"active_profile": h.configStore.Snapshot().ActiveProfile,
	}
	if h.recorder != nil {
		if depth, err := h.recorder.StreamDepth(r.Context()); err == nil && depth >= 0 {
			body["decision_stream_depth"] = depth
		}
	}

	h.respondJSON(w, status, body)
}
