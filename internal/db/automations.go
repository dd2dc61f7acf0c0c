package db

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/deviflow/deviflow/internal/model"
)

func (s *pgStore) CreateAutomation(userID, galleryID int, name string, enabled bool) (model.Automation, error) {
	var a model.Automation
	const q = `
	INSERT INTO automations (user_id, gallery_id, name, enabled, created_at, updated_at)
	VALUES ($1, $2, $3, $4, now(), now())
	RETURNING id, user_id, gallery_id, name, enabled, created_at, updated_at;`
	if err := s.db.Get(&a, q, userID, galleryID, name, enabled); err != nil {
		log.Error().Err(err).Msg("CreateAutomation failed")
		return model.Automation{}, err
	}
	return a, nil
}

func (s *pgStore) GetAutomationByID(id int) (model.Automation, error) {
	var a model.Automation
	err := s.db.Get(&a, `
	SELECT id, user_id, gallery_id, name, enabled, created_at, updated_at
	  FROM automations WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("automation_id", id).Msg("GetAutomationByID failed")
	}
	return a, err
}

func (s *pgStore) ListAutomations(userID int) ([]model.Automation, error) {
	var out []model.Automation
	const q = `
	SELECT id, user_id, gallery_id, name, enabled, created_at, updated_at
	  FROM automations
	 WHERE user_id = $1
	 ORDER BY id;`
	if err := s.db.Select(&out, q, userID); err != nil {
		log.Error().Err(err).Msg("ListAutomations failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) UpdateAutomation(id int, name *string, galleryID *int, enabled *bool) (model.Automation, error) {
	var a model.Automation
	const q = `
	UPDATE automations
	   SET name       = COALESCE($2, name),
	       gallery_id = COALESCE($3, gallery_id),
	       enabled    = COALESCE($4, enabled),
	       updated_at = now()
	 WHERE id = $1
	RETURNING id, user_id, gallery_id, name, enabled, created_at, updated_at;`
	if err := s.db.Get(&a, q, id, name, galleryID, enabled); err != nil {
		log.Error().Err(err).Int("automation_id", id).Msg("UpdateAutomation failed")
		return model.Automation{}, err
	}
	return a, nil
}

func (s *pgStore) DeleteAutomation(id int) error {
	// rules cascade via FK
	_, err := s.db.Exec(`DELETE FROM automations WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("automation_id", id).Msg("DeleteAutomation failed")
	}
	return err
}

func (s *pgStore) ListEnabledAutomations() ([]model.Automation, error) {
	var out []model.Automation
	const q = `
	SELECT id, user_id, gallery_id, name, enabled, created_at, updated_at
	  FROM automations
	 WHERE enabled = true
	 ORDER BY id;`
	if err := s.db.Select(&out, q); err != nil {
		log.Error().Err(err).Msg("ListEnabledAutomations failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) CountAutomationPostsSince(automationID int, since time.Time) (int, error) {
	var n int
	err := s.db.Get(&n, `
	SELECT count(*) FROM automation_posts
	 WHERE automation_id = $1 AND posted_at >= $2;`, automationID, since)
	if err != nil {
		log.Error().Err(err).Int("automation_id", automationID).Msg("CountAutomationPostsSince failed")
		return 0, err
	}
	return n, nil
}

func (s *pgStore) RecordAutomationPost(automationID, ruleID, deviationID int, at time.Time) error {
	_, err := s.db.Exec(`
	INSERT INTO automation_posts (automation_id, rule_id, deviation_id, posted_at)
	VALUES ($1, $2, $3, $4);`, automationID, ruleID, deviationID, at)
	if err != nil {
		log.Error().Err(err).Int("automation_id", automationID).Msg("RecordAutomationPost failed")
	}
	return err
}
