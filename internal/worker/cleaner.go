package worker

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/deviflow/deviflow/internal/db"
)

// terminal queue rows are kept for a month for the history view
const terminalRetention = 30 * 24 * time.Hour

// StartCleaner schedules the nightly purge of old terminal sale-queue rows
// and returns the cron scheduler so the caller can stop it on shutdown.
func StartCleaner(store db.Store) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("15 3 * * *", func() {
		cutoff := time.Now().UTC().Add(-terminalRetention)
		purged, err := store.PurgeTerminalSaleItems(cutoff)
		if err != nil {
			log.Error().Err(err).Msg("sale queue purge failed")
			return
		}
		if purged > 0 {
			log.Info().Int64("purged", purged).Msg("purged old sale queue rows")
		}
	})
	if err != nil {
		log.Fatal().Err(err).Msg("could not schedule sale queue purge")
	}
	c.Start()
	return c
}
