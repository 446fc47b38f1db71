package cities

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/jonas-p/go-shp"
	"github.com/ngmaloney/buoy-terminal/internal/database"
	"github.com/ngmaloney/buoy-terminal/internal/download"
	"github.com/rs/zerolog/log"
)

var (
	// Natural Earth 1:10m populated places
	populatedPlacesURL = "https://naciscdn.org/naturalearth/10m/cultural/ne_10m_populated_places_simple.zip"
	shapefileBase      = "ne_10m_populated_places_simple"
	provisionMu        sync.Mutex
)

// NeedsProvisioning checks if the cities table needs to be provisioned
func NeedsProvisioning(dbPath string) (bool, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return true, nil
	}

	db, err := database.Open(dbPath)
	if err != nil {
		return false, err
	}
	defer db.Close()

	ok, err := database.TableExists(db, "cities")
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// ProvisionCitiesDatabase downloads the populated places shapefile and
// loads it into the cities table
func ProvisionCitiesDatabase(ctx context.Context, dbPath string, progressChan chan<- string) error {
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

	sendProgress("Cities table not found, provisioning...")

	dataDir := filepath.Dir(dbPath)
	zipPath := filepath.Join(dataDir, shapefileBase+".zip")
	sendProgress(fmt.Sprintf("Downloading populated places from %s...", populatedPlacesURL))
	if err := download.File(ctx, zipPath, populatedPlacesURL); err != nil {
		return fmt.Errorf("downloading shapefile: %w", err)
	}
	defer os.Remove(zipPath)

	sendProgress("Extracting shapefile...")
	if err := download.Unzip(zipPath, dataDir); err != nil {
		return fmt.Errorf("extracting shapefile: %w", err)
	}
	defer download.Cleanup(dataDir, shapefileBase, download.ShapefileExtensions...)

	db, err := database.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	sendProgress("Building cities database...")
	count, err := BuildDatabase(db, filepath.Join(dataDir, shapefileBase+".shp"))
	if err != nil {
		return fmt.Errorf("building database: %w", err)
	}

	sendProgress(fmt.Sprintf("Successfully provisioned %d cities at %s", count, dbPath))
	return nil
}

// BuildDatabase loads a populated places shapefile into the cities table.
// Attribute names are matched case-insensitively; the point geometry is
// used when latitude/longitude attributes are absent.
func BuildDatabase(db *sql.DB, shapefilePath string) (int, error) {
	shape, err := shp.Open(shapefilePath)
	if err != nil {
		return 0, fmt.Errorf("opening shapefile: %w", err)
	}
	defer shape.Close()

	fields := make(map[string]int)
	for i, f := range shape.Fields() {
		fields[strings.ToLower(f.String())] = i
	}
	nameIdx, ok := fields["name"]
	if !ok {
		return 0, fmt.Errorf("shapefile %s has no NAME field", shapefilePath)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS cities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			state TEXT,
			country TEXT,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			population INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_cities_coords ON cities(latitude, longitude);
	`)
	if err != nil {
		return 0, fmt.Errorf("creating cities table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO cities (name, state, country, latitude, longitude, population) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	attr := func(row int, name string) string {
		i, ok := fields[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(strings.Trim(shape.ReadAttribute(row, i), "\x00"))
	}
	float := func(row int, name string) (float64, bool) {
		v, err := strconv.ParseFloat(attr(row, name), 64)
		return v, err == nil
	}

	count := 0
	for shape.Next() {
		n, p := shape.Shape()

		name := strings.TrimSpace(strings.Trim(shape.ReadAttribute(n, nameIdx), "\x00"))
		if name == "" {
			continue
		}

		lat, okLat := float(n, "latitude")
		lon, okLon := float(n, "longitude")
		if !okLat || !okLon {
			pt, ok := p.(*shp.Point)
			if !ok {
				continue
			}
			lat, lon = pt.Y, pt.X
		}
		pop, _ := float(n, "pop_max")

		if _, err := stmt.Exec(name, attr(n, "adm1name"), attr(n, "adm0name"), lat, lon, int64(pop)); err != nil {
			log.Warn().Err(err).Str("city", name).Msg("inserting city")
			continue
		}
		count++
		if count%2000 == 0 {
			log.Debug().Int("count", count).Msg("processed cities")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return count, nil
}
