package models

import "time"

// SavedStation is a station the user bookmarked for quick access
type SavedStation struct {
	ID        int64     `json:"id"`         // Database Primary Key (0 if not saved)
	StationID string    `json:"station_id"` // NDBC station ID (e.g. "44013")
	Label     string    `json:"label"`      // User-friendly name
	Dataset   string    `json:"dataset"`    // Dataset to open, defaults to "standard"
	CreatedAt time.Time `json:"created_at"`
}
