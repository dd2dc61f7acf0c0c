package packets

import "github.com/deviflow/deviflow/internal/model"

// AutomationResponse flattens times to RFC3339.
type AutomationResponse struct {
	ID        int    `json:"id"`
	GalleryID int    `json:"gallery_id"`
	Name      string `json:"name"`
	Enabled   bool   `json:"enabled"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ScheduleRuleResponse struct {
	ID                    int      `json:"id"`
	AutomationID          int      `json:"automation_id"`
	Type                  string   `json:"type"`
	TimeOfDay             *string  `json:"time_of_day,omitempty"`
	DaysOfWeek            []string `json:"days_of_week,omitempty"`
	IntervalMinutes       *int     `json:"interval_minutes,omitempty"`
	DeviationsPerInterval *int     `json:"deviations_per_interval,omitempty"`
	DailyQuota            *int     `json:"daily_quota,omitempty"`
	Priority              int      `json:"priority"`
	Enabled               bool     `json:"enabled"`
	LastRunAt             *string  `json:"last_run_at,omitempty"`
	CreatedAt             string   `json:"created_at"`
	UpdatedAt             string   `json:"updated_at"`
}

// EnqueueResult reports the outcome of one deviation in a batch enqueue.
type EnqueueResult struct {
	DeviationID int    `json:"deviation_id"`
	Outcome     string `json:"outcome"` // created | skipped | error
	Error       string `json:"error,omitempty"`
}

type EnqueueResponse struct {
	Created int             `json:"created"`
	Skipped int             `json:"skipped"`
	Results []EnqueueResult `json:"results"`
}

type SaleQueueListResponse struct {
	Items    []model.SaleQueueEntry `json:"items"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

// BatchResult reports the outcome of one item in a batch operation.
type BatchResult struct {
	DeviationID int    `json:"deviation_id"`
	OK          bool   `json:"ok"`
	Error       string `json:"error,omitempty"`
}

type UploadHandshakeResponse struct {
	Token     string `json:"token"`
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
}
