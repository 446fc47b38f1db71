package models

import "time"

// LatestObservation is the most recent report from a station's RSS feed
type LatestObservation struct {
	StationID string            `json:"station_id"`
	Title     string            `json:"title"`
	Published time.Time         `json:"published"`
	Link      string            `json:"link"`
	Fields    map[string]string `json:"fields"` // e.g. "Wind Speed" -> "11.7 knots"
}
