package app

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"payment-router/internal/handlers"
	"payment-router/internal/server"
)

// RunServer builds the handler graph and returns the configured HTTP server.
func (app *App) RunServer() (*server.Server, http.Handler) {
	h := handlers.New(handlers.Deps{
		Storage:     app.Storage,
		Config:      app.Config,
		Auth:        app.Auth,
		Engine:      app.Engine,
		ConfigStore: app.ConfigStore,
		Registry:    app.Registry,
		Idempotency: app.Idempotency,
		Recorder:    app.Recorder,
		Redis:       app.RedisClient,
		Logger:      app.Logger,
	})

	router := mux.NewRouter()
	SetupRoutes(router, h, app.Auth.RequireAuth, app.buildRateLimiter())

	srv := server.New(router, app.Config.Port, "", "")
	return srv, router
}

// Shutdown stops background work before the HTTP server drains.
func (app *App) Shutdown(ctx context.Context) error {
	close(app.shutdownCh)

	if app.scheduler != nil {
		stopCtx := app.scheduler.Stop()
		select {
		case <-stopCtx.Done():
			app.Logger.Info("Scheduler stopped")
		case <-ctx.Done():
			app.Logger.Warn("Scheduler jobs still running at shutdown deadline")
		}
		app.scheduler = nil
	}

	return nil
}
