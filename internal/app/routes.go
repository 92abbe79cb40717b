package app

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"payment-router/internal/handlers"
	"payment-router/internal/middleware"
)

// SetupRoutes configures all HTTP routes for the application.
func SetupRoutes(router *mux.Router, h *handlers.Handlers, authMiddleware func(http.Handler) http.Handler, limiter *middleware.RateLimiter) {
	router.Use(middleware.Logging)

	// Health check (no auth required)
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	// Login (no auth required)
	router.HandleFunc("/api/auth/login", h.Login).Methods("POST")

	// Routing endpoint, rate limited per merchant when Redis is available
	if limiter != nil {
		router.Handle("/api/route", limiter.Middleware(http.HandlerFunc(h.HandleRoute))).Methods("POST")
	} else {
		router.HandleFunc("/api/route", h.HandleRoute).Methods("POST")
	}

	// Admin API, requires authentication
	api := router.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware)

	api.HandleFunc("/auth/logout", h.Logout).Methods("POST")
	api.HandleFunc("/auth/credentials", h.ChangeCredentials).Methods("PUT")

	api.HandleFunc("/routing/rules", h.GetRules).Methods("GET")
	api.HandleFunc("/routing/rules", h.UpdateRules).Methods("PUT")
	api.HandleFunc("/routing/weights", h.GetProviderWeights).Methods("GET")
	api.HandleFunc("/routing/weights", h.UpdateProviderWeights).Methods("PUT")
	api.HandleFunc("/routing/profiles", h.GetProfiles).Methods("GET")
	api.HandleFunc("/routing/profiles/active", h.SetActiveProfile).Methods("PUT")
	api.HandleFunc("/routing/profiles/custom/{name}", h.UpsertCustomProfile).Methods("PUT")
	api.HandleFunc("/routing/profiles/custom/{name}", h.DeleteCustomProfile).Methods("DELETE")
	api.HandleFunc("/routing/health-thresholds", h.GetHealthThresholds).Methods("GET")
	api.HandleFunc("/routing/health-thresholds", h.UpdateHealthThresholds).Methods("PUT")
	api.HandleFunc("/routing/refresh", h.RefreshConfig).Methods("POST")

	api.HandleFunc("/providers", h.GetProviders).Methods("GET")
	api.HandleFunc("/providers/{name}", h.GetProvider).Methods("GET")
	api.HandleFunc("/providers/{name}/health", h.GetProviderHealth).Methods("GET")

	api.HandleFunc("/decisions", h.ListDecisions).Methods("GET")
	api.HandleFunc("/decisions/{id}", h.GetDecision).Methods("GET")
}

// buildRateLimiter creates the per-merchant limiter when Redis is available.
func (app *App) buildRateLimiter() *middleware.RateLimiter {
	if app.RedisClient == nil {
		return nil
	}

	limit, _ := strconv.Atoi(app.Config.RateLimitDefault)
	if limit == 0 {
		limit = 100
	}
	window, _ := time.ParseDuration(app.Config.RateLimitWindow)
	if window == 0 {
		window = time.Minute
	}

	return middleware.NewRateLimiter(app.RedisClient, limit, window, app.Logger)
}
