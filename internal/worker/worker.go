// Package worker runs the background loops: publishing scheduled and
// automated deviations and draining the exclusive-sale queue.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/deviflow/deviflow/internal/db"
	"github.com/deviflow/deviflow/internal/deviantart"
	"github.com/deviflow/deviflow/internal/events"
	"github.com/deviflow/deviflow/internal/model"
	"github.com/deviflow/deviflow/internal/sales"
)

const (
	defaultTick    = 30 * time.Second
	saleClaimBatch = 10
	scheduledBatch = 20
)

type Service struct {
	store     db.Store
	publisher deviantart.Publisher
	tickEvery time.Duration
}

func New(store db.Store, publisher deviantart.Publisher, tickEvery time.Duration) *Service {
	if tickEvery <= 0 {
		tickEvery = defaultTick
	}
	return &Service{store: store, publisher: publisher, tickEvery: tickEvery}
}

// Run blocks until ctx is cancelled, ticking through the three loops.
func (s *Service) Run(ctx context.Context) {
	log.Info().Dur("tick", s.tickEvery).Msg("worker started")
	ticker := time.NewTicker(s.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	now := time.Now().UTC()
	s.drainScheduled(ctx, now)
	s.runAutomations(ctx, now)
	s.drainSaleQueue(ctx, now)
}

// drainScheduled publishes deviations whose scheduled_at has passed.
func (s *Service) drainScheduled(ctx context.Context, now time.Time) {
	due, err := s.store.ListDueScheduledDeviations(now, scheduledBatch)
	if err != nil {
		return
	}
	for _, deviation := range due {
		if err := s.publishOne(ctx, deviation, now); err != nil {
			log.Error().Err(err).Int("deviation_id", deviation.ID).Msg("scheduled publish failed")
		}
	}
}

func (s *Service) publishOne(ctx context.Context, deviation model.Deviation, now time.Time) error {
	if err := s.publisher.PublishDeviation(ctx, deviation.UserID, deviation.URL, deviation.Title); err != nil {
		return err
	}
	if err := s.store.PublishDeviation(deviation.ID, now); err != nil {
		return err
	}
	events.Publish(deviation.UserID, "deviation.published", map[string]any{
		"deviation_id": deviation.ID,
	})
	return nil
}

// runAutomations fires at most one rule per automation per tick: the first
// due rule in (priority, created_at) order wins.
func (s *Service) runAutomations(ctx context.Context, now time.Time) {
	automations, err := s.store.ListEnabledAutomations()
	if err != nil {
		return
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, automation := range automations {
		ruleList, err := s.store.ListScheduleRules(automation.ID)
		if err != nil {
			continue
		}

		postsToday, err := s.store.CountAutomationPostsSince(automation.ID, midnight)
		if err != nil {
			continue
		}

		rule, batch, ok := FirstDueRule(ruleList, now, postsToday)
		if !ok {
			continue
		}

		drafts, err := s.store.NextDraftDeviations(automation.GalleryID, batch)
		if err != nil {
			continue
		}
		if len(drafts) == 0 {
			// nothing to post; don't burn the slot
			continue
		}

		posted := 0
		for _, draft := range drafts {
			if err := s.publishOne(ctx, draft, now); err != nil {
				log.Error().Err(err).
					Int("automation_id", automation.ID).
					Int("deviation_id", draft.ID).
					Msg("automation publish failed")
				continue
			}
			if err := s.store.RecordAutomationPost(automation.ID, rule.ID, draft.ID, now); err != nil {
				log.Error().Err(err).Int("automation_id", automation.ID).Msg("failed to record automation post")
			}
			posted++
		}

		if posted > 0 {
			if err := s.store.MarkRuleRun(rule.ID, now); err != nil {
				log.Error().Err(err).Int("rule_id", rule.ID).Msg("failed to mark rule run")
			}
			events.Publish(automation.UserID, "automation.posted", map[string]any{
				"automation_id": automation.ID,
				"rule_id":       rule.ID,
				"posted":        posted,
			})
		}
	}
}

// drainSaleQueue claims pending items and runs each sale to completion or
// failure. Claiming already bumps attempts and stamps last_attempt_at.
func (s *Service) drainSaleQueue(ctx context.Context, now time.Time) {
	items, err := s.store.ClaimPendingSaleItems(saleClaimBatch)
	if err != nil {
		return
	}

	for _, item := range items {
		if err := s.processSaleItem(ctx, item, now); err != nil {
			retry := item.Attempts < sales.MaxAttempts
			if failErr := s.store.FailSaleItem(item.ID, err.Error(), retry); failErr != nil {
				log.Error().Err(failErr).Int("item_id", item.ID).Msg("failed to record sale failure")
				continue
			}
			log.Error().Err(err).
				Int("item_id", item.ID).
				Int("attempts", item.Attempts).
				Bool("retry", retry).
				Msg("sale attempt failed")
			if !retry {
				s.notifySaleOutcome(item, "sale.failed", map[string]any{
					"item_id": item.ID,
					"error":   err.Error(),
				})
			}
		}
	}
}

func (s *Service) processSaleItem(ctx context.Context, item model.SaleQueueItem, now time.Time) error {
	deviation, err := s.store.GetDeviationByID(item.DeviationID)
	if err != nil {
		return err
	}
	preset, err := s.store.GetPricePresetByID(item.PricePresetID)
	if err != nil {
		return err
	}

	// range presets are priced at processing time, one fresh draw per attempt
	price, err := sales.ResolvePrice(sales.Preset{
		PricingMode: preset.PricingMode,
		Price:       preset.Price,
		MinPrice:    preset.MinPrice,
		MaxPrice:    preset.MaxPrice,
	})
	if err != nil {
		return err
	}

	if err := s.publisher.CreateSale(ctx, deviation.UserID, deviation.ID, price, preset.Currency); err != nil {
		return err
	}
	if err := s.store.CompleteSaleItem(item.ID, now); err != nil {
		return err
	}
	events.Publish(deviation.UserID, "sale.completed", map[string]any{
		"item_id":      item.ID,
		"deviation_id": deviation.ID,
		"price":        price,
		"currency":     preset.Currency,
	})
	return nil
}

func (s *Service) notifySaleOutcome(item model.SaleQueueItem, eventType string, payload map[string]any) {
	deviation, err := s.store.GetDeviationByID(item.DeviationID)
	if err != nil {
		return
	}
	events.Publish(deviation.UserID, eventType, payload)
}
