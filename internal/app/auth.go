package app

import (
	"payment-router/internal/auth"
)

func (app *App) initializeAuth() error {
	authInstance, err := auth.New(app.Storage, app.Config, app.RedisClient)
	if err != nil {
		return err
	}
	app.Auth = authInstance
	return nil
}
