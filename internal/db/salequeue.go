package db

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/deviflow/deviflow/internal/model"
	"github.com/deviflow/deviflow/internal/sales"
)

const saleItemColumns = `
	id, deviation_id, price_preset_id, status, attempts, last_attempt_at,
	completed_at, error_message, created_at, updated_at`

func (s *pgStore) EnqueueSaleItem(deviationID, pricePresetID int) (model.SaleQueueItem, error) {
	var item model.SaleQueueItem
	const q = `
	INSERT INTO sale_queue_items
	  (deviation_id, price_preset_id, status, attempts, created_at, updated_at)
	VALUES ($1, $2, 'pending', 0, now(), now())
	RETURNING ` + saleItemColumns + `;`
	if err := s.db.Get(&item, q, deviationID, pricePresetID); err != nil {
		log.Error().Err(err).Int("deviation_id", deviationID).Msg("EnqueueSaleItem failed")
		return model.SaleQueueItem{}, err
	}
	return item, nil
}

func (s *pgStore) HasActiveSaleItem(deviationID int) (bool, error) {
	var exists bool
	err := s.db.Get(&exists, `
	SELECT EXISTS (
	  SELECT 1 FROM sale_queue_items
	   WHERE deviation_id = $1 AND status IN ('pending', 'processing'));`, deviationID)
	if err != nil {
		log.Error().Err(err).Int("deviation_id", deviationID).Msg("HasActiveSaleItem failed")
		return false, err
	}
	return exists, nil
}

// GetSaleQueueItemWithOwner returns the item plus the owning user id of the
// joined deviation, for ownership checks.
func (s *pgStore) GetSaleQueueItemWithOwner(id int) (model.SaleQueueItem, int, error) {
	var row struct {
		model.SaleQueueItem
		OwnerID int `db:"owner_id"`
	}
	const q = `
	SELECT q.id, q.deviation_id, q.price_preset_id, q.status, q.attempts,
	       q.last_attempt_at, q.completed_at, q.error_message, q.created_at,
	       q.updated_at, d.user_id AS owner_id
	  FROM sale_queue_items q
	  JOIN deviations d ON d.id = q.deviation_id
	 WHERE q.id = $1;`
	if err := s.db.Get(&row, q, id); err != nil {
		log.Error().Err(err).Int("item_id", id).Msg("GetSaleQueueItemWithOwner failed")
		return model.SaleQueueItem{}, 0, err
	}
	return row.SaleQueueItem, row.OwnerID, nil
}

func (s *pgStore) ListSaleQueue(userID int, status *string, limit, offset int) ([]model.SaleQueueEntry, int, error) {
	var total int
	if err := s.db.Get(&total, `
	SELECT count(*)
	  FROM sale_queue_items q
	  JOIN deviations d ON d.id = q.deviation_id
	 WHERE d.user_id = $1
	   AND ($2::text IS NULL OR q.status = $2);`, userID, status); err != nil {
		log.Error().Err(err).Msg("ListSaleQueue count failed")
		return nil, 0, err
	}

	var out []model.SaleQueueEntry
	const q = `
	SELECT q.id, q.deviation_id, q.price_preset_id, q.status, q.attempts,
	       q.last_attempt_at, q.completed_at, q.error_message, q.created_at,
	       q.updated_at,
	       d.title AS deviation_title, d.url AS deviation_url, d.thumbnail_url,
	       p.name AS preset_name, p.currency, p.pricing_mode, p.price,
	       p.min_price, p.max_price
	  FROM sale_queue_items q
	  JOIN deviations d ON d.id = q.deviation_id
	  JOIN price_presets p ON p.id = q.price_preset_id
	 WHERE d.user_id = $1
	   AND ($2::text IS NULL OR q.status = $2)
	 ORDER BY q.created_at DESC, q.id DESC
	 LIMIT $3 OFFSET $4;`
	if err := s.db.Select(&out, q, userID, status, limit, offset); err != nil {
		log.Error().Err(err).Msg("ListSaleQueue failed")
		return nil, 0, err
	}
	return out, total, nil
}

func (s *pgStore) DeleteSaleQueueItem(id int) error {
	_, err := s.db.Exec(`DELETE FROM sale_queue_items WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("item_id", id).Msg("DeleteSaleQueueItem failed")
	}
	return err
}

// SkipSaleItem marks a pending item skipped. Returns false when the item
// was not pending, so processing or terminal rows are left alone.
func (s *pgStore) SkipSaleItem(id int) (bool, error) {
	res, err := s.db.Exec(`
	UPDATE sale_queue_items
	   SET status = 'skipped', updated_at = now()
	 WHERE id = $1 AND status = 'pending';`, id)
	if err != nil {
		log.Error().Err(err).Int("item_id", id).Msg("SkipSaleItem failed")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ClaimPendingSaleItems atomically moves up to limit pending items to
// processing and returns them. FOR UPDATE SKIP LOCKED keeps concurrent
// workers from claiming the same row.
func (s *pgStore) ClaimPendingSaleItems(limit int) ([]model.SaleQueueItem, error) {
	var out []model.SaleQueueItem
	const q = `
	UPDATE sale_queue_items
	   SET status = 'processing',
	       attempts = attempts + 1,
	       last_attempt_at = now(),
	       updated_at = now()
	 WHERE id IN (
	       SELECT id FROM sale_queue_items
	        WHERE status = 'pending'
	        ORDER BY created_at
	        LIMIT $1
	        FOR UPDATE SKIP LOCKED)
	RETURNING ` + saleItemColumns + `;`
	if err := s.db.Select(&out, q, limit); err != nil {
		log.Error().Err(err).Msg("ClaimPendingSaleItems failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) CompleteSaleItem(id int, at time.Time) error {
	_, err := s.db.Exec(`
	UPDATE sale_queue_items
	   SET status = 'completed', completed_at = $2, error_message = NULL, updated_at = now()
	 WHERE id = $1 AND status = 'processing';`, id, at)
	if err != nil {
		log.Error().Err(err).Int("item_id", id).Msg("CompleteSaleItem failed")
	}
	return err
}

// FailSaleItem records a failed attempt: back to pending when retry is
// true, terminally failed otherwise.
func (s *pgStore) FailSaleItem(id int, errMsg string, retry bool) error {
	next := sales.StatusFailed
	if retry {
		next = sales.StatusPending
	}
	_, err := s.db.Exec(`
	UPDATE sale_queue_items
	   SET status = $2, error_message = $3, updated_at = now()
	 WHERE id = $1 AND status = 'processing';`, id, next, errMsg)
	if err != nil {
		log.Error().Err(err).Int("item_id", id).Msg("FailSaleItem failed")
	}
	return err
}

func (s *pgStore) PurgeTerminalSaleItems(olderThan time.Time) (int64, error) {
	res, err := s.db.Exec(`
	DELETE FROM sale_queue_items
	 WHERE status IN ('completed', 'failed', 'skipped')
	   AND updated_at < $1;`, olderThan)
	if err != nil {
		log.Error().Err(err).Msg("PurgeTerminalSaleItems failed")
		return 0, err
	}
	return res.RowsAffected()
}
