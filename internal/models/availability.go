package models

import (
	"fmt"
	"strings"
	"time"
)

// DataGroup is one of the three retrieval timeframes NDBC publishes
type DataGroup string

const (
	RealTime    DataGroup = "real_time"    // last ~45 days, data/realtime2
	CurrentYear DataGroup = "current_year" // monthly files for this year
	Historical  DataGroup = "historical"   // yearly archives
)

// DataGroups lists the groups in fetch precedence order
var DataGroups = []DataGroup{RealTime, CurrentYear, Historical}

// Timeframe selects one data group or all of them
type Timeframe string

const TimeframeAll Timeframe = "all"

// ParseTimeframe validates a timeframe name
func ParseTimeframe(s string) (Timeframe, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TimeframeAll, nil
	}
	switch Timeframe(s) {
	case TimeframeAll, Timeframe(RealTime), Timeframe(CurrentYear), Timeframe(Historical):
		return Timeframe(s), nil
	}
	return "", fmt.Errorf("timeframe must be 'all', 'real_time', 'current_year', or 'historical', got %q", s)
}

// Groups expands the timeframe into the data groups it covers
func (tf Timeframe) Groups() []DataGroup {
	if tf == TimeframeAll {
		return DataGroups
	}
	return []DataGroup{DataGroup(tf)}
}

// Availability describes one fetchable file for a station and dataset
type Availability struct {
	StationID    string    `json:"station_id"`
	Dataset      string    `json:"dataset"`
	DataGroup    DataGroup `json:"data_group"`
	FileName     string    `json:"file_name"`
	Year         int       `json:"year,omitempty"`
	Month        int       `json:"month,omitempty"`
	LastModified time.Time `json:"last_modified"`
	Size         uint64    `json:"size"`
	Description  string    `json:"description,omitempty"`
	URL          string    `json:"url"`     // path under /data/
	TxtURL       string    `json:"txt_url"` // plain text URL
}
