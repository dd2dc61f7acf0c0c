package db

import (
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/deviflow/deviflow/internal/model"
)

const ruleColumns = `
	id, automation_id, type, time_of_day, days_of_week, interval_minutes,
	deviations_per_interval, daily_quota, priority, enabled, last_run_at,
	created_at, updated_at`

func (s *pgStore) CreateScheduleRule(r model.AutomationScheduleRule) (model.AutomationScheduleRule, error) {
	var out model.AutomationScheduleRule
	const q = `
	INSERT INTO automation_schedule_rules
	  (automation_id, type, time_of_day, days_of_week, interval_minutes,
	   deviations_per_interval, daily_quota, priority, enabled, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
	RETURNING ` + ruleColumns + `;`
	if err := s.db.Get(&out, q,
		r.AutomationID, r.Type, r.TimeOfDay, r.DaysOfWeek,
		r.IntervalMinutes, r.DeviationsPerInterval, r.DailyQuota,
		r.Priority, r.Enabled); err != nil {
		log.Error().Err(err).Msg("CreateScheduleRule failed")
		return model.AutomationScheduleRule{}, err
	}
	return out, nil
}

func (s *pgStore) GetScheduleRuleByID(id int) (model.AutomationScheduleRule, error) {
	var r model.AutomationScheduleRule
	err := s.db.Get(&r, `SELECT `+ruleColumns+` FROM automation_schedule_rules WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("rule_id", id).Msg("GetScheduleRuleByID failed")
	}
	return r, err
}

// ListScheduleRules returns rules in scheduler tie-break order: lower
// priority number first, ties broken by earliest creation.
func (s *pgStore) ListScheduleRules(automationID int) ([]model.AutomationScheduleRule, error) {
	var out []model.AutomationScheduleRule
	const q = `
	SELECT ` + ruleColumns + `
	  FROM automation_schedule_rules
	 WHERE automation_id = $1
	 ORDER BY priority, created_at;`
	if err := s.db.Select(&out, q, automationID); err != nil {
		log.Error().Err(err).Int("automation_id", automationID).Msg("ListScheduleRules failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) UpdateScheduleRule(id int, upd ScheduleRuleUpdate) (model.AutomationScheduleRule, error) {
	var r model.AutomationScheduleRule
	const q = `
	UPDATE automation_schedule_rules
	   SET time_of_day             = COALESCE($2, time_of_day),
	       days_of_week            = COALESCE($3, days_of_week),
	       interval_minutes        = COALESCE($4, interval_minutes),
	       deviations_per_interval = COALESCE($5, deviations_per_interval),
	       daily_quota             = COALESCE($6, daily_quota),
	       priority                = COALESCE($7, priority),
	       enabled                 = COALESCE($8, enabled),
	       updated_at              = now()
	 WHERE id = $1
	RETURNING ` + ruleColumns + `;`
	if err := s.db.Get(&r, q, id,
		upd.TimeOfDay, pq.StringArray(upd.DaysOfWeek),
		upd.IntervalMinutes, upd.DeviationsPerInterval, upd.DailyQuota,
		upd.Priority, upd.Enabled); err != nil {
		log.Error().Err(err).Int("rule_id", id).Msg("UpdateScheduleRule failed")
		return model.AutomationScheduleRule{}, err
	}
	return r, nil
}

// DeleteScheduleRuleGuarded removes a rule unless it is the last enabled
// rule of an enabled automation. Check and delete run inside one
// transaction with the rule row locked, so two concurrent deletes cannot
// both pass the count.
func (s *pgStore) DeleteScheduleRuleGuarded(id int) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var guard struct {
		RuleEnabled       bool `db:"rule_enabled"`
		AutomationEnabled bool `db:"automation_enabled"`
		AutomationID      int  `db:"automation_id"`
	}
	if err := tx.Get(&guard, `
	SELECT r.enabled AS rule_enabled, a.enabled AS automation_enabled, a.id AS automation_id
	  FROM automation_schedule_rules r
	  JOIN automations a ON a.id = r.automation_id
	 WHERE r.id = $1
	 FOR UPDATE;`, id); err != nil {
		return err
	}

	if guard.RuleEnabled && guard.AutomationEnabled {
		var enabledCount int
		if err := tx.Get(&enabledCount, `
		SELECT count(*) FROM automation_schedule_rules
		 WHERE automation_id = $1 AND enabled = true;`, guard.AutomationID); err != nil {
			return err
		}
		if enabledCount <= 1 {
			return ErrLastEnabledRule
		}
	}

	if _, err := tx.Exec(`DELETE FROM automation_schedule_rules WHERE id = $1;`, id); err != nil {
		log.Error().Err(err).Int("rule_id", id).Msg("DeleteScheduleRuleGuarded failed")
		return err
	}
	return tx.Commit()
}

func (s *pgStore) MarkRuleRun(id int, at time.Time) error {
	_, err := s.db.Exec(`
	UPDATE automation_schedule_rules SET last_run_at = $2, updated_at = now() WHERE id = $1;`, id, at)
	if err != nil {
		log.Error().Err(err).Int("rule_id", id).Msg("MarkRuleRun failed")
	}
	return err
}
