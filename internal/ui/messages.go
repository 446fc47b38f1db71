package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ngmaloney/buoy-terminal/internal/geocoding"
	"github.com/ngmaloney/buoy-terminal/internal/models"
	"github.com/ngmaloney/buoy-terminal/internal/ndbc"
	"github.com/ngmaloney/buoy-terminal/internal/stations"
	"github.com/ngmaloney/buoy-terminal/internal/watchlist"
)

const searchRadiusMiles = 100.0

// errMsg is a message type for errors
type errMsg struct {
	err error
}

// geocodeMsg is sent when geocoding completes
type geocodeMsg struct {
	location *geocoding.Location
	err      error
}

// stationsFoundMsg is sent when nearby stations are found
type stationsFoundMsg struct {
	stations []models.Station
	err      error
}

// stationLoadedMsg is sent when a station named on the command line or in
// the watchlist has been looked up
type stationLoadedMsg struct {
	station *models.Station
	dataset string
	err     error
}

// dataFetchedMsg is sent when a station's dataset has been fetched
type dataFetchedMsg struct {
	table *models.Table
	err   error
}

// latestFetchedMsg is sent when the latest observation feed has been read
type latestFetchedMsg struct {
	latest *models.LatestObservation
	err    error
}

type savedListMsg struct {
	saved []models.SavedStation
	err   error
}

type stationSavedMsg struct {
	saved *models.SavedStation
	err   error
}

type savedDeletedMsg struct {
	label string
	err   error
}

// geocodeLocation performs geocoding in the background
func geocodeLocation(geocoder *geocoding.Geocoder, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		location, err := geocoder.Geocode(ctx, query)
		return geocodeMsg{location: location, err: err}
	}
}

// findNearbyStations finds buoy stations near a location
func findNearbyStations(dbPath string, lat, lon float64) tea.Cmd {
	return func() tea.Msg {
		found, err := stations.FindNearbyStations(dbPath, lat, lon, searchRadiusMiles)
		return stationsFoundMsg{stations: found, err: err}
	}
}

// loadStation looks a station up in the local table. Stations that were
// never provisioned still load, with only their ID known.
func loadStation(dbPath, stationID, dataset string) tea.Cmd {
	return func() tea.Msg {
		s, err := stations.GetStationByID(dbPath, stationID)
		if err != nil {
			s = &models.Station{ID: stationID}
		}
		return stationLoadedMsg{station: s, dataset: dataset}
	}
}

// loadSavedStation resolves a watchlist label into its station
func loadSavedStation(repo *watchlist.Repository, dbPath, label string) tea.Cmd {
	return func() tea.Msg {
		saved, err := repo.GetByLabel(label)
		if err != nil {
			return stationLoadedMsg{err: err}
		}
		return loadStation(dbPath, saved.StationID, saved.Dataset)()
	}
}

// fetchStationData fetches and merges every file of a station's dataset
func fetchStationData(n *ndbc.NDBC, stationID, dataset string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		tbl, err := n.GetStation(ctx, stationID, dataset, ndbc.DefaultStationOptions())
		return dataFetchedMsg{table: tbl, err: err}
	}
}

// fetchLatest fetches the station's latest observation
func fetchLatest(n *ndbc.NDBC, stationID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		latest, err := n.Latest(ctx, stationID)
		return latestFetchedMsg{latest: latest, err: err}
	}
}

func fetchSavedStations(repo *watchlist.Repository) tea.Cmd {
	return func() tea.Msg {
		saved, err := repo.List()
		return savedListMsg{saved: saved, err: err}
	}
}

func saveStation(repo *watchlist.Repository, stationID, label, dataset string) tea.Cmd {
	return func() tea.Msg {
		s := &models.SavedStation{StationID: stationID, Label: label, Dataset: dataset}
		if err := repo.Save(s); err != nil {
			return stationSavedMsg{err: err}
		}
		return stationSavedMsg{saved: s}
	}
}

func deleteSavedStation(repo *watchlist.Repository, label string) tea.Cmd {
	return func() tea.Msg {
		return savedDeletedMsg{label: label, err: repo.Delete(label)}
	}
}
