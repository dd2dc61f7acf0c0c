package db

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/deviflow/deviflow/internal/model"
)

const deviationColumns = `
	id, user_id, gallery_id, position, title, description, url, thumbnail_url,
	status, scheduled_at, published_at, created_at, updated_at`

func (s *pgStore) CreateDeviation(d model.Deviation) (model.Deviation, error) {
	var out model.Deviation
	const q = `
	INSERT INTO deviations
	  (user_id, gallery_id, position, title, description, url, thumbnail_url, status, created_at, updated_at)
	VALUES
	  ($1, $2,
	   COALESCE((SELECT max(position) + 1 FROM deviations WHERE gallery_id = $2), 0),
	   $3, $4, $5, $6, $7, now(), now())
	RETURNING ` + deviationColumns + `;`
	if err := s.db.Get(&out, q, d.UserID, d.GalleryID, d.Title, d.Description, d.URL, d.ThumbnailURL, d.Status); err != nil {
		log.Error().Err(err).Msg("CreateDeviation failed")
		return model.Deviation{}, err
	}
	return out, nil
}

func (s *pgStore) GetDeviationByID(id int) (model.Deviation, error) {
	var d model.Deviation
	err := s.db.Get(&d, `SELECT `+deviationColumns+` FROM deviations WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("deviation_id", id).Msg("GetDeviationByID failed")
	}
	return d, err
}

func (s *pgStore) ListDeviations(userID int, status *string, galleryID *int) ([]model.Deviation, error) {
	var out []model.Deviation
	const q = `
	SELECT ` + deviationColumns + `
	  FROM deviations
	 WHERE user_id = $1
	   AND ($2::text IS NULL OR status = $2)
	   AND ($3::int  IS NULL OR gallery_id = $3)
	 ORDER BY created_at DESC;`
	if err := s.db.Select(&out, q, userID, status, galleryID); err != nil {
		log.Error().Err(err).Msg("ListDeviations failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) UpdateDeviation(id int, title, description *string, galleryID *int) (model.Deviation, error) {
	var d model.Deviation
	const q = `
	UPDATE deviations
	   SET title       = COALESCE($2, title),
	       description = COALESCE($3, description),
	       gallery_id  = COALESCE($4, gallery_id),
	       updated_at  = now()
	 WHERE id = $1
	RETURNING ` + deviationColumns + `;`
	if err := s.db.Get(&d, q, id, title, description, galleryID); err != nil {
		log.Error().Err(err).Int("deviation_id", id).Msg("UpdateDeviation failed")
		return model.Deviation{}, err
	}
	return d, nil
}

func (s *pgStore) DeleteDeviation(id int) error {
	_, err := s.db.Exec(`DELETE FROM deviations WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("deviation_id", id).Msg("DeleteDeviation failed")
	}
	return err
}

func (s *pgStore) PublishDeviation(id int, at time.Time) error {
	_, err := s.db.Exec(`
	UPDATE deviations
	   SET status = 'published', published_at = $2, scheduled_at = NULL, updated_at = now()
	 WHERE id = $1;`, id, at)
	if err != nil {
		log.Error().Err(err).Int("deviation_id", id).Msg("PublishDeviation failed")
	}
	return err
}

func (s *pgStore) ScheduleDeviation(id int, at time.Time) error {
	_, err := s.db.Exec(`
	UPDATE deviations
	   SET status = 'scheduled', scheduled_at = $2, updated_at = now()
	 WHERE id = $1;`, id, at)
	if err != nil {
		log.Error().Err(err).Int("deviation_id", id).Msg("ScheduleDeviation failed")
	}
	return err
}

func (s *pgStore) ListDueScheduledDeviations(now time.Time, limit int) ([]model.Deviation, error) {
	var out []model.Deviation
	const q = `
	SELECT ` + deviationColumns + `
	  FROM deviations
	 WHERE status = 'scheduled' AND scheduled_at <= $1
	 ORDER BY scheduled_at
	 LIMIT $2;`
	if err := s.db.Select(&out, q, now, limit); err != nil {
		log.Error().Err(err).Msg("ListDueScheduledDeviations failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) NextDraftDeviations(galleryID, limit int) ([]model.Deviation, error) {
	var out []model.Deviation
	const q = `
	SELECT ` + deviationColumns + `
	  FROM deviations
	 WHERE gallery_id = $1 AND status = 'draft'
	 ORDER BY position, id
	 LIMIT $2;`
	if err := s.db.Select(&out, q, galleryID, limit); err != nil {
		log.Error().Err(err).Int("gallery_id", galleryID).Msg("NextDraftDeviations failed")
		return nil, err
	}
	return out, nil
}
