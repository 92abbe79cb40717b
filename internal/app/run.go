package app

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"payment-router/internal/common/logging"
	"payment-router/internal/config"
)

// Run is the main entry point for the application.
func Run() error {
	_ = godotenv.Load()

	runtime.GOMAXPROCS(runtime.NumCPU())

	logging.InitGlobalLogger()
	defer logging.MustSync()

	logging.Info("Starting payment router",
		logging.Int("cpus", runtime.NumCPU()),
		logging.String("version", "1.0.0"),
	)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logging.Error("Configuration validation failed", err)
		return err
	}

	app, err := New(cfg)
	if err != nil {
		logging.Error("Failed to initialize application", err)
		return err
	}
	defer app.Cleanup()

	srv, _ := app.RunServer()
	if err := srv.Start(); err != nil {
		logging.Error("Server failed to start", err)
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logging.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Shutdown(ctx); err != nil {
		logging.Warn("Error during app shutdown", logging.Err(err))
	}

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", err)
		return err
	}

	logging.Info("Server exited")
	return nil
}
