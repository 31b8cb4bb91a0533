package entities

import "time"

// Timestamps: служебные колонки created_at/updated_at, заполняются базой.
type Timestamps struct {
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}
