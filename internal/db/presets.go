package db

import (
	"database/sql"

	"github.com/rs/zerolog/log"

	"github.com/deviflow/deviflow/internal/model"
)

const presetColumns = `
	id, user_id, name, currency, description, is_default, sort_order,
	pricing_mode, price, min_price, max_price, created_at, updated_at`

func (s *pgStore) CreatePricePreset(p model.PricePreset) (model.PricePreset, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return model.PricePreset{}, err
	}
	defer tx.Rollback()

	// only one default per user
	if p.IsDefault {
		if _, err := tx.Exec(`UPDATE price_presets SET is_default = false WHERE user_id = $1;`, p.UserID); err != nil {
			return model.PricePreset{}, err
		}
	}

	var out model.PricePreset
	const q = `
	INSERT INTO price_presets
	  (user_id, name, currency, description, is_default, sort_order,
	   pricing_mode, price, min_price, max_price, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5,
	        COALESCE((SELECT max(sort_order) + 1 FROM price_presets WHERE user_id = $1), 0),
	        $6, $7, $8, $9, now(), now())
	RETURNING ` + presetColumns + `;`
	if err := tx.Get(&out, q,
		p.UserID, p.Name, p.Currency, p.Description, p.IsDefault,
		p.PricingMode, p.Price, p.MinPrice, p.MaxPrice); err != nil {
		log.Error().Err(err).Msg("CreatePricePreset failed")
		return model.PricePreset{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.PricePreset{}, err
	}
	return out, nil
}

func (s *pgStore) GetPricePresetByID(id int) (model.PricePreset, error) {
	var p model.PricePreset
	err := s.db.Get(&p, `SELECT `+presetColumns+` FROM price_presets WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("preset_id", id).Msg("GetPricePresetByID failed")
	}
	return p, err
}

func (s *pgStore) ListPricePresets(userID int) ([]model.PricePreset, error) {
	var out []model.PricePreset
	const q = `
	SELECT ` + presetColumns + `
	  FROM price_presets
	 WHERE user_id = $1
	 ORDER BY sort_order, id;`
	if err := s.db.Select(&out, q, userID); err != nil {
		log.Error().Err(err).Msg("ListPricePresets failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) UpdatePricePreset(id int, upd PricePresetUpdate) (model.PricePreset, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return model.PricePreset{}, err
	}
	defer tx.Rollback()

	if upd.IsDefault != nil && *upd.IsDefault {
		if _, err := tx.Exec(`
		UPDATE price_presets SET is_default = false
		 WHERE user_id = (SELECT user_id FROM price_presets WHERE id = $1);`, id); err != nil {
			return model.PricePreset{}, err
		}
	}

	var p model.PricePreset
	const q = `
	UPDATE price_presets
	   SET name         = COALESCE($2, name),
	       currency     = COALESCE($3, currency),
	       description  = COALESCE($4, description),
	       is_default   = COALESCE($5, is_default),
	       sort_order   = COALESCE($6, sort_order),
	       pricing_mode = COALESCE($7, pricing_mode),
	       price        = $8,
	       min_price    = $9,
	       max_price    = $10,
	       updated_at   = now()
	 WHERE id = $1
	RETURNING ` + presetColumns + `;`
	if err := tx.Get(&p, q, id,
		upd.Name, upd.Currency, upd.Description, upd.IsDefault, upd.SortOrder,
		upd.PricingMode, upd.Price, upd.MinPrice, upd.MaxPrice); err != nil {
		log.Error().Err(err).Int("preset_id", id).Msg("UpdatePricePreset failed")
		return model.PricePreset{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.PricePreset{}, err
	}
	return p, nil
}

// DeletePricePresetGuarded refuses to remove a preset that a pending or
// processing queue item still references. A row that no longer exists
// surfaces as sql.ErrNoRows, not as the guard error.
func (s *pgStore) DeletePricePresetGuarded(id int) error {
	res, err := s.db.Exec(`
	DELETE FROM price_presets p
	 WHERE p.id = $1
	   AND NOT EXISTS (
	         SELECT 1 FROM sale_queue_items q
	          WHERE q.price_preset_id = p.id
	            AND q.status IN ('pending', 'processing'));`, id)
	if err != nil {
		log.Error().Err(err).Int("preset_id", id).Msg("DeletePricePresetGuarded failed")
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := s.db.Get(&exists, `SELECT EXISTS (SELECT 1 FROM price_presets WHERE id = $1);`, id); err != nil {
			return err
		}
		if !exists {
			return sql.ErrNoRows
		}
		return ErrPresetInUse
	}
	return nil
}
