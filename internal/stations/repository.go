package stations

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/ngmaloney/buoy-terminal/internal/cities"
	"github.com/ngmaloney/buoy-terminal/internal/database"
	"github.com/ngmaloney/buoy-terminal/internal/models"
)

// ErrStationNotFound is returned when a station id is not in the table
var ErrStationNotFound = errors.New("station not found")

const stationColumns = `id, owner, owner_name, owner_country, ttype, hull, name, payload, location,
	latitude, longitude, timezone, forecast, note, closest_city, closest_state`

var (
	db      *sql.DB
	once    sync.Once
	initErr error

	// GetDB is a function variable to allow mocking in tests
	GetDB = func(dbPath string) (*sql.DB, error) {
		once.Do(func() {
			db, initErr = database.Open(dbPath)
		})
		return db, initErr
	}
)

type scanner interface {
	Scan(dest ...any) error
}

func scanStation(row scanner) (models.Station, error) {
	var (
		s    models.Station
		opts [12]sql.NullString
	)
	err := row.Scan(&s.ID, &opts[0], &opts[1], &opts[2], &opts[3], &opts[4], &s.Name, &opts[5], &opts[6],
		&s.Latitude, &s.Longitude, &opts[7], &opts[8], &opts[9], &opts[10], &opts[11])
	if err != nil {
		return s, err
	}
	s.Owner, s.OwnerName, s.OwnerCountry = opts[0].String, opts[1].String, opts[2].String
	s.Type, s.Hull, s.Payload, s.Location = opts[3].String, opts[4].String, opts[5].String, opts[6].String
	s.Timezone, s.Forecast, s.Note = opts[7].String, opts[8].String, opts[9].String
	s.ClosestCity, s.ClosestState = opts[10].String, opts[11].String
	return s, nil
}

// FindNearbyStations finds buoy stations within maxDistanceMiles of a
// point, closest first.
func FindNearbyStations(dbPath string, lat, lon float64, maxDistanceMiles float64) ([]models.Station, error) {
	db, err := GetDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Bounding box prefilter: 1 degree of latitude is about 69 miles,
	// padded 1.5x so stations near the edge are not missed.
	latDelta := (maxDistanceMiles / 69.0) * 1.5
	lonDelta := (maxDistanceMiles / (69.0 * math.Max(math.Cos(lat*math.Pi/180), 0.01))) * 1.5

	lonClause, lonArgs := longitudeRange(lon-lonDelta, lon+lonDelta)
	args := append([]any{lat - latDelta, lat + latDelta}, lonArgs...)

	rows, err := db.Query(`SELECT `+stationColumns+`
		FROM buoy_stations
		WHERE latitude BETWEEN ? AND ?
		  AND `+lonClause, args...)
	if err != nil {
		return nil, fmt.Errorf("querying stations: %w", err)
	}
	defer rows.Close()

	var nearby []models.Station
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			continue
		}
		s.Distance = cities.DistanceMiles(lat, lon, s.Latitude, s.Longitude)
		if s.Distance <= maxDistanceMiles {
			nearby = append(nearby, s)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading stations: %w", err)
	}

	if len(nearby) == 0 {
		return nil, fmt.Errorf("no buoy stations found near %.4f, %.4f within %.1f miles: %w", lat, lon, maxDistanceMiles, ErrStationNotFound)
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].Distance < nearby[j].Distance
	})
	return nearby, nil
}

// longitudeRange builds the longitude part of the bounding box, split in
// two when it crosses the antimeridian
func longitudeRange(min, max float64) (string, []any) {
	switch {
	case max-min >= 360:
		return "1 = 1", nil
	case min < -180:
		return "(longitude >= ? OR longitude <= ?)", []any{min + 360, max}
	case max > 180:
		return "(longitude >= ? OR longitude <= ?)", []any{min, max - 360}
	}
	return "longitude BETWEEN ? AND ?", []any{min, max}
}

// GetStationByID retrieves a single buoy station by its ID.
func GetStationByID(dbPath, stationID string) (*models.Station, error) {
	db, err := GetDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	row := db.QueryRow(`SELECT `+stationColumns+` FROM buoy_stations WHERE id = ?`, strings.ToUpper(stationID))
	s, err := scanStation(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("buoy station %s: %w", stationID, ErrStationNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying buoy station by ID: %w", err)
	}
	return &s, nil
}

// AllStations returns every station ordered by id
func AllStations(dbPath string) ([]models.Station, error) {
	return queryStations(dbPath, `SELECT `+stationColumns+` FROM buoy_stations ORDER BY id`)
}

// SearchStations matches id, name or closest city, case-insensitively
func SearchStations(dbPath, query string, limit int) ([]models.Station, error) {
	if limit <= 0 {
		limit = 50
	}
	like := "%" + strings.TrimSpace(query) + "%"
	return queryStations(dbPath, `SELECT `+stationColumns+` FROM buoy_stations
		WHERE id LIKE ? OR name LIKE ? OR closest_city LIKE ?
		ORDER BY id LIMIT ?`, like, like, like, limit)
}

func queryStations(dbPath, query string, args ...any) ([]models.Station, error) {
	db, err := GetDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying stations: %w", err)
	}
	defer rows.Close()

	var out []models.Station
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning station: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Store is the station table at one database path
type Store struct {
	dbPath string
}

// NewStore returns a Store on dbPath
func NewStore(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

// Nearby returns stations within radiusMiles, closest first
func (s *Store) Nearby(lat, lon, radiusMiles float64) ([]models.Station, error) {
	return FindNearbyStations(s.dbPath, lat, lon, radiusMiles)
}

// Get returns one station
func (s *Store) Get(id string) (*models.Station, error) {
	return GetStationByID(s.dbPath, id)
}

// All returns every station
func (s *Store) All() ([]models.Station, error) {
	return AllStations(s.dbPath)
}

// Search matches id, name or closest city
func (s *Store) Search(query string, limit int) ([]models.Station, error) {
	return SearchStations(s.dbPath, query, limit)
}
