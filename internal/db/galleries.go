package db

import (
	"github.com/rs/zerolog/log"

	"github.com/deviflow/deviflow/internal/model"
)

func (s *pgStore) CreateGallery(userID int, name string, description *string) (model.Gallery, error) {
	var g model.Gallery
	const q = `
	INSERT INTO galleries (user_id, name, description, sort_order, created_at, updated_at)
	VALUES ($1, $2, $3,
	        COALESCE((SELECT max(sort_order) + 1 FROM galleries WHERE user_id = $1), 0),
	        now(), now())
	RETURNING id, user_id, name, description, sort_order, created_at, updated_at;`
	if err := s.db.Get(&g, q, userID, name, description); err != nil {
		log.Error().Err(err).Msg("CreateGallery failed")
		return model.Gallery{}, err
	}
	return g, nil
}

func (s *pgStore) GetGalleryByID(id int) (model.Gallery, error) {
	var g model.Gallery
	const q = `
	SELECT id, user_id, name, description, sort_order, created_at, updated_at
	  FROM galleries
	 WHERE id = $1;`
	if err := s.db.Get(&g, q, id); err != nil {
		log.Error().Err(err).Int("gallery_id", id).Msg("GetGalleryByID failed")
		return model.Gallery{}, err
	}

	items, err := s.listGalleryItems(id)
	if err != nil {
		return g, err
	}
	g.Items = items
	return g, nil
}

func (s *pgStore) listGalleryItems(galleryID int) ([]model.Deviation, error) {
	var out []model.Deviation
	const q = `
	SELECT ` + deviationColumns + `
	  FROM deviations
	 WHERE gallery_id = $1
	 ORDER BY position, id;`
	if err := s.db.Select(&out, q, galleryID); err != nil {
		log.Error().Err(err).Int("gallery_id", galleryID).Msg("listGalleryItems failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) ListGalleries(userID int) ([]model.Gallery, error) {
	var out []model.Gallery
	const q = `
	SELECT id, user_id, name, description, sort_order, created_at, updated_at
	  FROM galleries
	 WHERE user_id = $1
	 ORDER BY sort_order, id;`
	if err := s.db.Select(&out, q, userID); err != nil {
		log.Error().Err(err).Msg("ListGalleries failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) UpdateGallery(id int, name, description *string, sortOrder *int) (model.Gallery, error) {
	var g model.Gallery
	const q = `
	UPDATE galleries
	   SET name        = COALESCE($2, name),
	       description = COALESCE($3, description),
	       sort_order  = COALESCE($4, sort_order),
	       updated_at  = now()
	 WHERE id = $1
	RETURNING id, user_id, name, description, sort_order, created_at, updated_at;`
	if err := s.db.Get(&g, q, id, name, description, sortOrder); err != nil {
		log.Error().Err(err).Int("gallery_id", id).Msg("UpdateGallery failed")
		return model.Gallery{}, err
	}
	return g, nil
}

func (s *pgStore) DeleteGallery(id int) error {
	_, err := s.db.Exec(`DELETE FROM galleries WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("gallery_id", id).Msg("DeleteGallery failed")
	}
	return err
}

func (s *pgStore) AddDeviationToGallery(galleryID, deviationID int) error {
	_, err := s.db.Exec(`
	UPDATE deviations
	   SET gallery_id = $1,
	       position   = COALESCE((SELECT max(position) + 1 FROM deviations WHERE gallery_id = $1), 0),
	       updated_at = now()
	 WHERE id = $2;`, galleryID, deviationID)
	if err != nil {
		log.Error().Err(err).Int("gallery_id", galleryID).Int("deviation_id", deviationID).Msg("AddDeviationToGallery failed")
	}
	return err
}

func (s *pgStore) RemoveDeviationFromGallery(galleryID, deviationID int) error {
	_, err := s.db.Exec(`
	UPDATE deviations
	   SET gallery_id = NULL, position = 0, updated_at = now()
	 WHERE id = $1 AND gallery_id = $2;`, deviationID, galleryID)
	if err != nil {
		log.Error().Err(err).Int("gallery_id", galleryID).Int("deviation_id", deviationID).Msg("RemoveDeviationFromGallery failed")
	}
	return err
}

// ReorderGalleryItems rewrites positions from the caller's ordered id list.
// Ids not in the gallery are ignored by the WHERE clause.
func (s *pgStore) ReorderGalleryItems(galleryID int, deviationIDs []int) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for pos, id := range deviationIDs {
		if _, err := tx.Exec(`
		UPDATE deviations SET position = $1, updated_at = now()
		 WHERE id = $2 AND gallery_id = $3;`, pos, id, galleryID); err != nil {
			log.Error().Err(err).Int("gallery_id", galleryID).Msg("ReorderGalleryItems failed")
			return err
		}
	}
	return tx.Commit()
}
