package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ngmaloney/buoy-terminal/internal/cities"
	"github.com/ngmaloney/buoy-terminal/internal/database"
	"github.com/ngmaloney/buoy-terminal/internal/geocoding"
	"github.com/ngmaloney/buoy-terminal/internal/ndbc"
	"github.com/ngmaloney/buoy-terminal/internal/stations"
	"github.com/rs/zerolog/log"
)

// provisioningStartedMsg carries the channels of a running provisioning job
type provisioningStartedMsg struct {
	progressChan <-chan string
	resultChan   <-chan error
}

// provisionStatusMsg is one progress line
type provisionStatusMsg string

// provisionResultMsg is sent once provisioning finishes
type provisionResultMsg struct {
	err error
}

// needsProvisioning reports whether any reference table is missing
func needsProvisioning(dbPath string) (bool, error) {
	checks := []func(string) (bool, error){
		cities.NeedsProvisioning,
		stations.NeedsProvisioning,
		geocoding.NeedsProvisioning,
	}
	for _, needs := range checks {
		ok, err := needs(dbPath)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// initiateProvisioning starts building the reference tables in the
// background and hands the channels to Update
func initiateProvisioning(client *ndbc.Client, dbPath string) tea.Cmd {
	return func() tea.Msg {
		progressChan := make(chan string, 16)
		resultChan := make(chan error, 1)

		go func() {
			defer close(progressChan)
			resultChan <- provisionAll(context.Background(), client, dbPath, progressChan)
		}()

		return provisioningStartedMsg{progressChan: progressChan, resultChan: resultChan}
	}
}

// provisionAll builds cities first so stations can be tagged with their
// closest city
func provisionAll(ctx context.Context, client *ndbc.Client, dbPath string, progressChan chan<- string) error {
	if err := cities.ProvisionCitiesDatabase(ctx, dbPath, progressChan); err != nil {
		return fmt.Errorf("cities: %w", err)
	}

	var locator ndbc.CityLocator
	db, err := database.Open(dbPath)
	if err != nil {
		return err
	}
	index, err := cities.LoadIndex(db)
	db.Close()
	if err != nil {
		log.Warn().Err(err).Msg("closest cities unavailable")
	} else if index.Len() > 0 {
		locator = index
	}

	if err := stations.ProvisionStationsDatabase(ctx, dbPath, client, locator, progressChan); err != nil {
		return fmt.Errorf("stations: %w", err)
	}
	if err := geocoding.ProvisionZipcodeDatabase(ctx, dbPath, progressChan); err != nil {
		return fmt.Errorf("zipcodes: %w", err)
	}
	return nil
}

func waitForProvisionStatus(progressChan <-chan string) tea.Cmd {
	return func() tea.Msg {
		status, ok := <-progressChan
		if !ok {
			return nil
		}
		return provisionStatusMsg(status)
	}
}

func waitForProvisionResult(resultChan <-chan error) tea.Cmd {
	return func() tea.Msg {
		return provisionResultMsg{err: <-resultChan}
	}
}
