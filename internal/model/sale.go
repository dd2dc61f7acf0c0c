package model

import "time"

type PricePreset struct {
	ID          int       `db:"id"           json:"id"`
	UserID      int       `db:"user_id"      json:"user_id"`
	Name        string    `db:"name"         json:"name"`
	Currency    string    `db:"currency"     json:"currency"`
	Description *string   `db:"description"  json:"description,omitempty"`
	IsDefault   bool      `db:"is_default"   json:"is_default"`
	SortOrder   int       `db:"sort_order"   json:"sort_order"`
	PricingMode string    `db:"pricing_mode" json:"pricing_mode"`
	Price       *int      `db:"price"        json:"price,omitempty"`
	MinPrice    *int      `db:"min_price"    json:"min_price,omitempty"`
	MaxPrice    *int      `db:"max_price"    json:"max_price,omitempty"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"   json:"updated_at"`
}

type SaleQueueItem struct {
	ID            int        `db:"id"              json:"id"`
	DeviationID   int        `db:"deviation_id"    json:"deviation_id"`
	PricePresetID int        `db:"price_preset_id" json:"price_preset_id"`
	Status        string     `db:"status"          json:"status"`
	Attempts      int        `db:"attempts"        json:"attempts"`
	LastAttemptAt *time.Time `db:"last_attempt_at" json:"last_attempt_at,omitempty"`
	CompletedAt   *time.Time `db:"completed_at"    json:"completed_at,omitempty"`
	ErrorMessage  *string    `db:"error_message"   json:"error_message,omitempty"`
	CreatedAt     time.Time  `db:"created_at"      json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"      json:"updated_at"`
}

// SaleQueueEntry is a queue item joined with its deviation and preset for
// list views.
type SaleQueueEntry struct {
	SaleQueueItem
	DeviationTitle string  `db:"deviation_title" json:"deviation_title"`
	DeviationURL   string  `db:"deviation_url"   json:"deviation_url"`
	ThumbnailURL   *string `db:"thumbnail_url"   json:"thumbnail_url,omitempty"`
	PresetName     string  `db:"preset_name"     json:"preset_name"`
	Currency       string  `db:"currency"        json:"currency"`
	PricingMode    string  `db:"pricing_mode"    json:"pricing_mode"`
	Price          *int    `db:"price"           json:"price,omitempty"`
	MinPrice       *int    `db:"min_price"       json:"min_price,omitempty"`
	MaxPrice       *int    `db:"max_price"       json:"max_price,omitempty"`
}
