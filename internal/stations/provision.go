package stations

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/ngmaloney/buoy-terminal/internal/database"
	"github.com/ngmaloney/buoy-terminal/internal/models"
	"github.com/ngmaloney/buoy-terminal/internal/ndbc"
	"github.com/rs/zerolog/log"
)

var provisionMu sync.Mutex

// Source supplies station metadata, normally *ndbc.Client
type Source interface {
	StationTable(ctx context.Context, cities ndbc.CityLocator) ([]models.Station, error)
}

// NeedsProvisioning checks if the buoy stations table needs to be provisioned
func NeedsProvisioning(dbPath string) (bool, error) {
	// If file doesn't exist, we need to provision
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return true, nil
	}

	db, err := database.Open(dbPath)
	if err != nil {
		return false, err
	}
	defer db.Close()

	ok, err := database.TableExists(db, "buoy_stations")
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// ProvisionStationsDatabase fetches the NDBC station table and stores it
// in the SQLite database. cities may be nil.
func ProvisionStationsDatabase(ctx context.Context, dbPath string, source Source, cities ndbc.CityLocator, progressChan chan<- string) error {
	provisionMu.Lock()
	defer provisionMu.Unlock()

	needs, err := NeedsProvisioning(dbPath)
	if err != nil {
		return err
	}
	if !needs {
		return nil
	}

	sendProgress := func(msg string) {
		if progressChan != nil {
			progressChan <- msg
		} else {
			log.Info().Msg(msg)
		}
	}

	sendProgress("Buoy stations table not found, provisioning...")
	sendProgress("Downloading NDBC station table...")
	stations, err := source.StationTable(ctx, cities)
	if err != nil {
		return fmt.Errorf("fetching station table: %w", err)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database for building: %w", err)
	}
	defer db.Close()

	sendProgress("Building buoy stations database...")
	if err = BuildStationsDatabase(db, stations, progressChan); err != nil {
		return fmt.Errorf("building database: %w", err)
	}

	sendProgress(fmt.Sprintf("Successfully provisioned buoy stations database at %s", dbPath))
	return nil
}

// CreateSchema creates the buoy_stations table
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS buoy_stations (
			id TEXT PRIMARY KEY,
			owner TEXT,
			owner_name TEXT,
			owner_country TEXT,
			ttype TEXT,
			hull TEXT,
			name TEXT NOT NULL,
			payload TEXT,
			location TEXT,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			timezone TEXT,
			forecast TEXT,
			note TEXT,
			closest_city TEXT,
			closest_state TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_buoy_stations_coords ON buoy_stations(latitude, longitude);
	`)
	if err != nil {
		return fmt.Errorf("creating buoy_stations table: %w", err)
	}
	return nil
}

// BuildStationsDatabase creates the buoy_stations table and inserts stations
func BuildStationsDatabase(db *sql.DB, stations []models.Station, progressChan chan<- string) error {
	if err := CreateSchema(db); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() // Rollback on error

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO buoy_stations (
		id, owner, owner_name, owner_country, ttype, hull, name, payload, location,
		latitude, longitude, timezone, forecast, note, closest_city, closest_state
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	count := 0
	for _, s := range stations {
		_, err = stmt.Exec(s.ID, s.Owner, s.OwnerName, s.OwnerCountry, s.Type, s.Hull, s.Name, s.Payload, s.Location,
			s.Latitude, s.Longitude, s.Timezone, s.Forecast, s.Note, s.ClosestCity, s.ClosestState)
		if err != nil {
			log.Warn().Err(err).Str("station", s.ID).Msg("inserting station")
			continue
		}
		count++
		if count%500 == 0 && progressChan != nil {
			progressChan <- fmt.Sprintf("Inserted %d buoy stations...", count)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	if progressChan != nil {
		progressChan <- fmt.Sprintf("Successfully inserted %d buoy stations", count)
	}
	return nil
}
