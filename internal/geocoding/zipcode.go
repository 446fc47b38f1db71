package geocoding

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/ngmaloney/buoy-terminal/internal/database"
)

var (
	zipMu  sync.Mutex
	zipDBs = map[string]*sql.DB{}
)

// getZipcodeDB returns a shared connection per database path
func getZipcodeDB(dbPath string) (*sql.DB, error) {
	zipMu.Lock()
	defer zipMu.Unlock()
	if db, ok := zipDBs[dbPath]; ok {
		return db, nil
	}

	db, err := database.Open(dbPath)
	if err != nil {
		return nil, err
	}
	ok, err := database.TableExists(db, "zipcodes")
	if err != nil {
		db.Close()
		return nil, err
	}
	if !ok {
		db.Close()
		return nil, fmt.Errorf("zipcodes table not provisioned in %s", dbPath)
	}
	zipDBs[dbPath] = db
	return db, nil
}

// lookupZipcode looks up a zipcode in the SQLite database and returns a Location
func lookupZipcode(dbPath, zipcode string) (*Location, error) {
	db, err := getZipcodeDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening zipcode database: %w", err)
	}
	return lookupZipcodeInDB(db, zipcode)
}

// lookupCityState looks up a city and state in the SQLite database.
// If multiple zipcodes match, returns the first one (by zipcode)
func lookupCityState(dbPath, city, state string) (*Location, error) {
	db, err := getZipcodeDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening zipcode database: %w", err)
	}
	return lookupCityStateInDB(db, city, state)
}

// lookupZipcodeInDB looks up a zipcode in the provided database connection
func lookupZipcodeInDB(db *sql.DB, zipcode string) (*Location, error) {
	var city, state string
	var lat, lon float64

	err := db.QueryRow(
		"SELECT city, state, latitude, longitude FROM zipcodes WHERE zipcode = ?",
		zipcode,
	).Scan(&city, &state, &lat, &lon)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("zipcode %s not found", zipcode)
	}
	if err != nil {
		return nil, fmt.Errorf("querying zipcode: %w", err)
	}

	return &Location{
		Latitude:  lat,
		Longitude: lon,
		Name:      fmt.Sprintf("%s, %s %s", city, state, zipcode),
	}, nil
}

// lookupCityStateInDB matches city and two letter state case-insensitively
func lookupCityStateInDB(db *sql.DB, city, state string) (*Location, error) {
	var zipcode, foundCity, foundState string
	var lat, lon float64

	err := db.QueryRow(
		"SELECT zipcode, city, state, latitude, longitude FROM zipcodes WHERE city = ? COLLATE NOCASE AND state = ? ORDER BY zipcode LIMIT 1",
		city, strings.ToUpper(state),
	).Scan(&zipcode, &foundCity, &foundState, &lat, &lon)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no location found for %s, %s", city, state)
	}
	if err != nil {
		return nil, fmt.Errorf("querying city/state: %w", err)
	}

	return &Location{
		Latitude:  lat,
		Longitude: lon,
		Name:      fmt.Sprintf("%s, %s %s", foundCity, foundState, zipcode),
	}, nil
}
