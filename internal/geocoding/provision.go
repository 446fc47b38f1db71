package geocoding

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ngmaloney/buoy-terminal/internal/database"
	"github.com/ngmaloney/buoy-terminal/internal/download"
	"github.com/rs/zerolog/log"
)

var zipcodeCSVURL = "https://raw.githubusercontent.com/midwire/free_zipcode_data/develop/all_us_zipcodes.csv"

// NeedsProvisioning reports whether the zipcodes table is missing
func NeedsProvisioning(dbPath string) (bool, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return true, nil
	}
	db, err := database.Open(dbPath)
	if err != nil {
		return false, err
	}
	defer db.Close()

	ok, err := database.TableExists(db, "zipcodes")
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// ProvisionZipcodeDatabase downloads and builds the zipcode table
func ProvisionZipcodeDatabase(ctx context.Context, dbPath string, progressChan chan<- string) error {
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

	sendProgress("Zipcode table not found, provisioning...")

	csvPath := filepath.Join(filepath.Dir(dbPath), "all_us_zipcodes.csv")
	sendProgress(fmt.Sprintf("Downloading zipcode data from %s...", zipcodeCSVURL))
	if err := download.File(ctx, csvPath, zipcodeCSVURL); err != nil {
		return fmt.Errorf("downloading zipcode CSV: %w", err)
	}
	defer os.Remove(csvPath) // Clean up after import

	f, err := os.Open(csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	db, err := database.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	sendProgress("Building zipcode database...")
	count, err := BuildZipcodeDatabase(db, f)
	if err != nil {
		return fmt.Errorf("building database: %w", err)
	}

	sendProgress(fmt.Sprintf("Successfully provisioned %d zipcodes at %s", count, dbPath))
	return nil
}

// BuildZipcodeDatabase loads the free_zipcode_data CSV
// (Zipcode,ZipCodeType,City,State,LocationType,Lat,Long,...) into the
// zipcodes table. Rows that do not parse are skipped.
func BuildZipcodeDatabase(db *sql.DB, r io.Reader) (int, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS zipcodes (
			zipcode TEXT PRIMARY KEY,
			city TEXT NOT NULL,
			state TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_state ON zipcodes(state);
	`)
	if err != nil {
		return 0, fmt.Errorf("creating table: %w", err)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		return 0, err
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR IGNORE INTO zipcodes (zipcode, city, state, latitude, longitude) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(record) < 7 {
			continue
		}

		lat, err := strconv.ParseFloat(record[5], 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(record[6], 64)
		if err != nil {
			continue
		}

		if _, err := stmt.Exec(record[0], record[2], record[3], lat, lon); err != nil {
			continue
		}

		count++
		if count%5000 == 0 {
			log.Debug().Int("count", count).Msg("processed zipcodes")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}
