package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/ngmaloney/buoy-terminal/internal/models"
	"github.com/ngmaloney/buoy-terminal/internal/ndbc"
)

// stationItem wraps a Station for use in a list
type stationItem struct {
	station models.Station
}

// FilterValue implements list.Item
func (s stationItem) FilterValue() string {
	return s.station.ID + " " + s.station.Name
}

// Title implements list.DefaultItem
func (s stationItem) Title() string {
	if s.station.Name == "" {
		return s.station.ID
	}
	return fmt.Sprintf("%s - %s", s.station.ID, s.station.Name)
}

// Description implements list.DefaultItem
func (s stationItem) Description() string {
	desc := fmt.Sprintf("%.1f miles away", s.station.Distance)
	if s.station.Type != "" {
		desc += " • " + s.station.Type
	}
	if s.station.ClosestCity != "" {
		desc += fmt.Sprintf(" • near %s, %s", s.station.ClosestCity, s.station.ClosestState)
	}
	return desc
}

// createStationList creates a list.Model from nearby stations
func createStationList(stations []models.Station, width, height int) list.Model {
	items := make([]list.Item, len(stations))
	for i, s := range stations {
		items[i] = stationItem{station: s}
	}

	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = "Select a Buoy Station"
	l.SetShowHelp(true)
	l.SetFilteringEnabled(false)

	return l
}

type datasetItem struct {
	dataset ndbc.Dataset
}

func (d datasetItem) FilterValue() string { return d.dataset.Name }
func (d datasetItem) Title() string       { return d.dataset.Name }
func (d datasetItem) Description() string { return d.dataset.Description }

// createDatasetList lists every catalog dataset
func createDatasetList(width, height int) list.Model {
	datasets := ndbc.Datasets()
	items := make([]list.Item, len(datasets))
	for i, ds := range datasets {
		items[i] = datasetItem{dataset: ds}
	}

	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = "Select a Dataset"
	l.SetShowHelp(true)
	l.SetFilteringEnabled(true)

	return l
}

// savedItem wraps a SavedStation for use in a list
type savedItem struct {
	saved models.SavedStation
}

func (s savedItem) FilterValue() string { return s.saved.Label }
func (s savedItem) Title() string       { return s.saved.Label }

func (s savedItem) Description() string {
	return fmt.Sprintf("%s • %s", s.saved.StationID, s.saved.Dataset)
}

func createSavedList(saved []models.SavedStation, width, height int) list.Model {
	items := make([]list.Item, len(saved))
	for i, s := range saved {
		items[i] = savedItem{saved: s}
	}

	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = "Saved Stations"
	l.SetShowHelp(true)
	l.SetFilteringEnabled(true)

	return l
}
