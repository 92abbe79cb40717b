package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"payment-router/internal/audit"
	"payment-router/internal/common/logging"
	"payment-router/internal/configstore"
	"payment-router/internal/idempotency"
	"payment-router/internal/locks"
	"payment-router/internal/providers"
	"payment-router/internal/providers/mock"
	"payment-router/internal/routing"
	"payment-router/internal/storage"
)

const retentionLockKey = "decision-retention"

func (app *App) initializeRouting() error {
	registry := providers.NewRegistry()
	for _, p := range mock.DefaultProviders() {
		guarded := providers.Guard(p, app.Config.ProviderTimeout(), app.Logger)
		if err := registry.Register(guarded); err != nil {
			return err
		}
	}
	app.Registry = registry
	app.Logger.Info("Providers registered", logging.Int("count", registry.Len()))

	store := configstore.New(app.Storage, app.Logger)
	if err := store.Refresh(); err != nil {
		return err
	}
	app.ConfigStore = store

	if err := app.seedActiveProfile(store); err != nil {
		return err
	}

	app.Engine = routing.NewEngine(registry, store, app.Logger)

	if app.RedisClient != nil {
		app.Idempotency = idempotency.New(app.RedisClient, app.Config.IdempotencyWindow(), app.Logger)

		lockManager, err := locks.NewManager(app.RedisClient, app.Logger)
		if err != nil {
			return err
		}
		app.Locks = lockManager
	}
	app.Recorder = audit.New(app.Storage, app.RedisClient, app.Logger)

	app.Logger.Info("Routing engine initialized",
		logging.String("active_profile", store.Snapshot().ActiveProfile),
	)
	return nil
}

// seedActiveProfile persists the configured bootstrap profile, but only
// when storage has never held one. A profile chosen through the admin API
// always wins over the environment.
func (app *App) seedActiveProfile(store *configstore.Store) error {
	configured := app.Config.ActiveProfile
	if configured == "" || configured == store.Snapshot().ActiveProfile {
		return nil
	}

	if _, err := app.Storage.GetConfig(storage.KeyActiveProfile); err != storage.ErrNotFound {
		return nil
	}

	if err := store.SetActiveProfile(configured); err != nil {
		app.Logger.Warn("Configured bootstrap profile rejected, using balanced",
			logging.String("profile", configured), logging.Err(err))
		return nil
	}
	app.Logger.Info("Bootstrap profile set", logging.String("profile", configured))
	return nil
}

// startScheduler runs the periodic configuration refresh and, when Redis is
// available, daily decision retention pruning guarded by a distributed lock
// so only one node prunes.
func (app *App) startScheduler() error {
	scheduler := cron.New()

	if _, err := scheduler.AddFunc(app.Config.RefreshSchedule, func() {
		if err := app.ConfigStore.Refresh(); err != nil {
			app.Logger.Warn("Scheduled configuration refresh failed", logging.Err(err))
		}
	}); err != nil {
		return err
	}

	if _, err := scheduler.AddFunc("@daily", app.pruneDecisions); err != nil {
		return err
	}

	scheduler.Start()
	app.scheduler = scheduler
	app.Logger.Info("Scheduler started",
		logging.String("refresh_schedule", app.Config.RefreshSchedule),
	)
	return nil
}

func (app *App) pruneDecisions() {
	if app.Locks != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		lock, acquired, err := app.Locks.Acquire(ctx, retentionLockKey, time.Hour)
		if err != nil {
			app.Logger.Warn("Retention lock unavailable, skipping prune", logging.Err(err))
			return
		}
		if !acquired {
			return
		}
		defer lock.Release()
	}

	cutoff := time.Now().Add(-app.Config.RetentionWindow())
	deleted, err := app.Storage.DeleteOldDecisions(cutoff)
	if err != nil {
		app.Logger.Error("Decision retention prune failed", err)
		return
	}
	if deleted > 0 {
		app.Logger.Info("Pruned old decisions",
			logging.Int64("deleted", deleted),
			logging.String("cutoff", cutoff.Format(time.RFC3339)),
		)
	}
}
