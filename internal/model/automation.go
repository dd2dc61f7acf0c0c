package model

import (
	"time"

	"github.com/lib/pq"
)

type Automation struct {
	ID        int       `db:"id"         json:"id"`
	UserID    int       `db:"user_id"    json:"user_id"`
	GalleryID int       `db:"gallery_id" json:"gallery_id"`
	Name      string    `db:"name"       json:"name"`
	Enabled   bool      `db:"enabled"    json:"enabled"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AutomationScheduleRule configures when an automation posts. The rule type
// discriminates which of the optional columns are meaningful; the rules
// package owns that validation.
type AutomationScheduleRule struct {
	ID                    int            `db:"id"                      json:"id"`
	AutomationID          int            `db:"automation_id"           json:"automation_id"`
	Type                  string         `db:"type"                    json:"type"`
	TimeOfDay             *string        `db:"time_of_day"             json:"time_of_day,omitempty"`
	DaysOfWeek            pq.StringArray `db:"days_of_week"            json:"days_of_week,omitempty"`
	IntervalMinutes       *int           `db:"interval_minutes"        json:"interval_minutes,omitempty"`
	DeviationsPerInterval *int           `db:"deviations_per_interval" json:"deviations_per_interval,omitempty"`
	DailyQuota            *int           `db:"daily_quota"             json:"daily_quota,omitempty"`
	Priority              int            `db:"priority"                json:"priority"`
	Enabled               bool           `db:"enabled"                 json:"enabled"`
	LastRunAt             *time.Time     `db:"last_run_at"             json:"last_run_at,omitempty"`
	CreatedAt             time.Time      `db:"created_at"              json:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at"              json:"updated_at"`
}

// AutomationPost is the audit row the worker writes for every publication
// an automation performs.
type AutomationPost struct {
	ID           int       `db:"id"            json:"id"`
	AutomationID int       `db:"automation_id" json:"automation_id"`
	RuleID       int       `db:"rule_id"       json:"rule_id"`
	DeviationID  int       `db:"deviation_id"  json:"deviation_id"`
	PostedAt     time.Time `db:"posted_at"     json:"posted_at"`
}
