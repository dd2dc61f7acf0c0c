package main

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/deviflow/deviflow/internal/db"
	"github.com/deviflow/deviflow/internal/events"
	"github.com/deviflow/deviflow/internal/redis"
)

func main() {
	env := LoadEnvironment()

	if err := db.Init(env.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init failed")
	}
	if err := db.RunMigrations(env.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}
	store := db.NewStore()

	redis.InitRedis(env.RedisAddress, env.RedisUsername, env.RedisPassword)

	if err := events.Init(env.MQTTBrokerURL, "deviflow-server"); err != nil {
		log.Fatal().Err(err).Msg("mqtt init failed")
	}
	defer events.Shutdown()

	storageSystem := InitStorage(env)

	if env.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	RegisterRoutes(r, env, store, storageSystem)

	log.Info().Str("address", env.ServerAddress).Msg("server listening")
	if err := r.Run(env.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
