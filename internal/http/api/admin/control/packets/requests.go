package packets

import "time"

// gallery requests

type CreateGalleryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

type UpdateGalleryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sort_order"`
}

type AddGalleryItemRequest struct {
	DeviationID int `json:"deviation_id" binding:"required"`
}

type ReorderGalleryItemsRequest struct {
	DeviationIDs []int `json:"deviation_ids" binding:"required"`
}

// deviation requests

type UpdateDeviationRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	GalleryID   *int    `json:"gallery_id"`
}

type ScheduleDeviationRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"` // RFC3339
}

type BatchDeleteRequest struct {
	DeviationIDs []int `json:"deviation_ids" binding:"required"`
}

type BatchScheduleRequest struct {
	DeviationIDs []int     `json:"deviation_ids" binding:"required"`
	ScheduledAt  time.Time `json:"scheduled_at" binding:"required"`
}

// automation requests

type CreateAutomationRequest struct {
	Name      string `json:"name" binding:"required"`
	GalleryID int    `json:"gallery_id" binding:"required"`
	Enabled   *bool  `json:"enabled"`
}

type UpdateAutomationRequest struct {
	Name      *string `json:"name"`
	GalleryID *int    `json:"gallery_id"`
	Enabled   *bool   `json:"enabled"`
}

// schedule rule requests

type CreateScheduleRuleRequest struct {
	AutomationID          int      `json:"automation_id" binding:"required"`
	Type                  string   `json:"type" binding:"required,oneof=fixed_time fixed_interval daily_quota"`
	TimeOfDay             *string  `json:"time_of_day"`
	DaysOfWeek            []string `json:"days_of_week"`
	IntervalMinutes       *int     `json:"interval_minutes"`
	DeviationsPerInterval *int     `json:"deviations_per_interval"`
	DailyQuota            *int     `json:"daily_quota"`
	Priority              *int     `json:"priority"`
	Enabled               *bool    `json:"enabled"`
}

// UpdateScheduleRuleRequest is a partial update; the rule's type is
// immutable after creation.
type UpdateScheduleRuleRequest struct {
	TimeOfDay             *string  `json:"time_of_day"`
	DaysOfWeek            []string `json:"days_of_week"`
	IntervalMinutes       *int     `json:"interval_minutes"`
	DeviationsPerInterval *int     `json:"deviations_per_interval"`
	DailyQuota            *int     `json:"daily_quota"`
	Priority              *int     `json:"priority"`
	Enabled               *bool    `json:"enabled"`
}

// price preset requests

type CreatePricePresetRequest struct {
	Name        string  `json:"name" binding:"required"`
	Currency    string  `json:"currency" binding:"required"`
	Description *string `json:"description"`
	IsDefault   bool    `json:"is_default"`
	PricingMode string  `json:"pricing_mode" binding:"required,oneof=fixed range"`
	Price       *int    `json:"price"`
	MinPrice    *int    `json:"min_price"`
	MaxPrice    *int    `json:"max_price"`
}

type UpdatePricePresetRequest struct {
	Name        *string `json:"name"`
	Currency    *string `json:"currency"`
	Description *string `json:"description"`
	IsDefault   *bool   `json:"is_default"`
	SortOrder   *int    `json:"sort_order"`
	PricingMode *string `json:"pricing_mode" binding:"omitempty,oneof=fixed range"`
	Price       *int    `json:"price"`
	MinPrice    *int    `json:"min_price"`
	MaxPrice    *int    `json:"max_price"`
}

// sale queue requests

type AddToSaleQueueRequest struct {
	DeviationIDs  []int `json:"deviation_ids" binding:"required"`
	PricePresetID int   `json:"price_preset_id" binding:"required"`
}

// upload requests

type CreateUploadRequest struct {
	FileName string `json:"file_name" binding:"required"`
}

type CompleteUploadRequest struct {
	Token       string  `json:"token" binding:"required"`
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	GalleryID   *int    `json:"gallery_id"`
}
