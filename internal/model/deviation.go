package model

import "time"

// Deviation statuses. A deviation is created as a draft, may be scheduled
// for a future publish time, and ends up published.
const (
	DeviationDraft     = "draft"
	DeviationScheduled = "scheduled"
	DeviationPublished = "published"
)

type Deviation struct {
	ID           int        `db:"id"            json:"id"`
	UserID       int        `db:"user_id"       json:"user_id"`
	GalleryID    *int       `db:"gallery_id"    json:"gallery_id,omitempty"`
	Position     int        `db:"position"      json:"position"`
	Title        string     `db:"title"         json:"title"`
	Description  *string    `db:"description"   json:"description,omitempty"`
	URL          string     `db:"url"           json:"url"`
	ThumbnailURL *string    `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	Status       string     `db:"status"        json:"status"`
	ScheduledAt  *time.Time `db:"scheduled_at"  json:"scheduled_at,omitempty"`
	PublishedAt  *time.Time `db:"published_at"  json:"published_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
}
