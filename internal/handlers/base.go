// Package handlers implements the HTTP API: the routing endpoint, the
// admin configuration surface and the decision audit queries.
package handlers

import (
	"encoding/json"
	"net/http"

	"payment-router/internal/audit"
	"payment-router/internal/auth"
	"payment-router/internal/common/errors"
	"payment-router/internal/common/logging"
	"payment-router/internal/config"
	"payment-router/internal/configstore"
	"payment-router/internal/idempotency"
	"payment-router/internal/providers"
	"payment-router/internal/redis"
	"payment-router/internal/routing"
	"payment-router/internal/storage"
)

type Handlers struct {
	storage     storage.Storage
	config      *config.Config
	auth        *auth.Auth
	engine      *routing.Engine
	configStore *configstore.Store
	registry    *providers.Registry
	idempotency *idempotency.Store
	recorder    *audit.Recorder
	redis       *redis.Client
	logger      logging.Logger
}

// Deps bundles the handler dependencies. Idempotency and recorder may be
// nil when Redis is not configured.
type Deps struct {
	Storage     storage.Storage
	Config      *config.Config
	Auth        *auth.Auth
	Engine      *routing.Engine
	ConfigStore *configstore.Store
	Registry    *providers.Registry
	Idempotency *idempotency.Store
	Recorder    *audit.Recorder
	Redis       *redis.Client
	Logger      logging.Logger
}

func New(deps Deps) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Handlers{
		storage:     deps.Storage,
		config:      deps.Config,
		auth:        deps.Auth,
		engine:      deps.Engine,
		configStore: deps.ConfigStore,
		registry:    deps.Registry,
		idempotency: deps.Idempotency,
		recorder:    deps.Recorder,
		redis:       deps.Redis,
		logger:      logger,
	}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			h.logger.Error("Failed to encode response", err)
		}
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	if appErr, ok := err.(*errors.AppError); ok {
		message = appErr.Message
		switch appErr.Type {
		case errors.ErrTypeValidation:
			status = http.StatusBadRequest
		case errors.ErrTypeAuth:
			status = http.StatusUnauthorized
		case errors.ErrTypeNotFound:
			status = http.StatusNotFound
		case errors.ErrTypeUnavailable:
			status = http.StatusServiceUnavailable
		case errors.ErrTypeTimeout:
			status = http.StatusGatewayTimeout
		}
	} else if err == storage.ErrNotFound {
		status = http.StatusNotFound
		message = "not found"
	}

	if status >= 500 {
		h.logger.Error("Request failed", err)
	}
	h.respondJSON(w, status, map[string]string{"error": message})
}

func (h *Handlers) decodeBody(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return errors.ValidationError("invalid request body: " + err.Error())
	}
	return nil
}
