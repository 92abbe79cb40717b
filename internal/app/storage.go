package app

import (
	"fmt"
	"strconv"

	"payment-router/internal/common/logging"
	"payment-router/internal/storage"
	"payment-router/internal/storage/postgres"
	"payment-router/internal/storage/sqlite"
)

func (app *App) initializeStorage() error {
	var storageConfig storage.StorageConfig

	switch app.Config.DatabaseType {
	case "postgres", "postgresql":
		app.Logger.Info("Database: PostgreSQL",
			logging.String("host", app.Config.PostgresHost),
			logging.String("port", app.Config.PostgresPort),
			logging.String("database", app.Config.PostgresDB),
		)
		port, _ := strconv.Atoi(app.Config.PostgresPort)
		storageConfig = &postgres.Config{
			Host:     app.Config.PostgresHost,
			Port:     port,
			Database: app.Config.PostgresDB,
			Username: app.Config.PostgresUser,
			Password: app.Config.PostgresPassword,
			SSLMode:  app.Config.PostgresSSLMode,
		}
	default:
		dbPath := app.Config.DatabasePath
		if dbPath == "" {
			dbPath = "./payment_router.db"
		}
		app.Logger.Info("Database: SQLite", logging.String("path", dbPath))
		storageConfig = &sqlite.Config{DatabasePath: dbPath}
	}

	store, err := storage.Create(storageConfig.GetType(), storageConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	app.Storage = store
	return nil
}
