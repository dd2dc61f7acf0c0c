package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/deviflow/deviflow/internal/db"
	"github.com/deviflow/deviflow/internal/deviantart"
	"github.com/deviflow/deviflow/internal/events"
	"github.com/deviflow/deviflow/internal/worker"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}
	apiURL := os.Getenv("DEVIANTART_API_URL")
	if apiURL == "" {
		log.Fatal().Msg("DEVIANTART_API_URL is required")
	}

	tick := 30 * time.Second
	if raw := os.Getenv("WORKER_TICK_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 1 {
			log.Fatal().Str("value", raw).Msg("invalid WORKER_TICK_SECONDS")
		}
		tick = time.Duration(secs) * time.Second
	}

	if err := db.Init(databaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init failed")
	}
	store := db.NewStore()

	if err := events.Init(os.Getenv("MQTT_BROKER_URL"), "deviflow-worker"); err != nil {
		log.Fatal().Err(err).Msg("mqtt init failed")
	}
	defer events.Shutdown()

	cleaner := worker.StartCleaner(store)
	defer cleaner.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker.New(store, deviantart.NewClient(apiURL), tick).Run(ctx)
}
