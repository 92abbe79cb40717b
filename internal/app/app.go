package app

import (
	"payment-router/internal/audit"
	"payment-router/internal/auth"
	"payment-router/internal/common/logging"
	"payment-router/internal/config"
	"payment-router/internal/configstore"
	"payment-router/internal/idempotency"
	"payment-router/internal/locks"
	"payment-router/internal/providers"
	"payment-router/internal/redis"
	"payment-router/internal/routing"
	"payment-router/internal/storage"

	"github.com/robfig/cron/v3"
)

// App holds all the application dependencies.
type App struct {
	Config      *config.Config
	Storage     storage.Storage
	RedisClient *redis.Client
	Auth        *auth.Auth
	Registry    *providers.Registry
	ConfigStore *configstore.Store
	Engine      *routing.Engine
	Idempotency *idempotency.Store
	Recorder    *audit.Recorder
	Locks       *locks.Manager
	Logger      logging.Logger

	scheduler  *cron.Cron
	shutdownCh chan struct{}
}

// New creates a new application instance with all dependencies wired in
// dependency order. Redis is optional; without it idempotent replays, the
// decision stream and rate limiting are disabled.
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config:     cfg,
		Logger:     logging.GetGlobalLogger().WithFields(logging.String("component", "app")),
		shutdownCh: make(chan struct{}),
	}

	if err := app.initializeStorage(); err != nil {
		return nil, err
	}

	if err := app.initializeRedis(); err != nil {
		app.Logger.Warn("Redis initialization failed, continuing without Redis",
			logging.Err(err))
		app.RedisClient = nil
	}

	if err := app.initializeAuth(); err != nil {
		return nil, err
	}

	if err := app.initializeRouting(); err != nil {
		return nil, err
	}

	if err := app.startScheduler(); err != nil {
		return nil, err
	}

	return app, nil
}

// Cleanup releases all resources.
func (app *App) Cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	if app.Locks != nil {
		app.Locks.Close()
	}
	if app.Storage != nil {
		app.Storage.Close()
	}
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
