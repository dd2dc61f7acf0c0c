package model

import "time"

type Gallery struct {
	ID          int         `db:"id"          json:"id"`
	UserID      int         `db:"user_id"     json:"user_id"`
	Name        string      `db:"name"        json:"name"`
	Description *string     `db:"description" json:"description,omitempty"`
	SortOrder   int         `db:"sort_order"  json:"sort_order"`
	CreatedAt   time.Time   `db:"created_at"  json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"  json:"updated_at"`
	Items       []Deviation `db:"-"           json:"items,omitempty"`
}
