package app

import (
	"strconv"

	"payment-router/internal/common/logging"
	"payment-router/internal/redis"
)

func (app *App) initializeRedis() error {
	if app.Config.RedisAddress == "" {
		app.Logger.Info("Redis: Not configured (idempotency, decision stream and rate limiting disabled)")
		return nil
	}

	redisDB, _ := strconv.Atoi(app.Config.RedisDB)
	redisPoolSize, _ := strconv.Atoi(app.Config.RedisPoolSize)

	redisClient, err := redis.NewClient(&redis.Config{
		Address:  app.Config.RedisAddress,
		Password: app.Config.RedisPassword,
		DB:       redisDB,
		PoolSize: redisPoolSize,
	})
	if err != nil {
		return err
	}

	app.RedisClient = redisClient
	app.Logger.Info("Redis: Connected", logging.String("address", app.Config.RedisAddress))
	return nil
}
