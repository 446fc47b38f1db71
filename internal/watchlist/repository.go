// Package watchlist persists the stations a user bookmarked.
package watchlist

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/ngmaloney/buoy-terminal/internal/database"
	"github.com/ngmaloney/buoy-terminal/internal/models"
)

var (
	// ErrDuplicateLabel is returned when saving a label that is already used
	ErrDuplicateLabel = errors.New("label already saved")
	// ErrNotSaved is returned when a label has no saved station
	ErrNotSaved = errors.New("no saved station with that label")
)

// Repository handles persistence for saved stations
type Repository struct {
	dbPath string
	clock  clockwork.Clock
}

// NewRepository creates a repository on the given database. An empty
// path uses the shared database.
func NewRepository(dbPath string) *Repository {
	if dbPath == "" {
		dbPath = database.DBPath()
	}
	return &Repository{dbPath: dbPath, clock: clockwork.NewRealClock()}
}

func (r *Repository) open() (*sql.DB, error) {
	// Ensure schema exists (safe to call multiple times)
	if err := database.EnsureUserSchema(r.dbPath); err != nil {
		return nil, err
	}
	return database.Open(r.dbPath)
}

// Save stores a station under a unique label. The dataset defaults to
// "standard".
func (r *Repository) Save(s *models.SavedStation) error {
	s.Label = strings.TrimSpace(s.Label)
	s.StationID = strings.ToUpper(strings.TrimSpace(s.StationID))
	if s.Label == "" || s.StationID == "" {
		return fmt.Errorf("station id and label are required")
	}
	if s.Dataset == "" {
		s.Dataset = "standard"
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = r.clock.Now().UTC()
	}

	db, err := r.open()
	if err != nil {
		return err
	}
	defer db.Close()

	var exists int
	if err := db.QueryRow("SELECT COUNT(*) FROM saved_stations WHERE label = ?", s.Label).Scan(&exists); err != nil {
		return fmt.Errorf("checking label: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%q: %w", s.Label, ErrDuplicateLabel)
	}

	res, err := db.Exec(
		"INSERT INTO saved_stations (station_id, label, dataset, created_at) VALUES (?, ?, ?, ?)",
		s.StationID, s.Label, s.Dataset, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving station: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	s.ID = id
	return nil
}

// List retrieves all saved stations ordered by label
func (r *Repository) List() ([]models.SavedStation, error) {
	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query("SELECT id, station_id, label, dataset, created_at FROM saved_stations ORDER BY label")
	if err != nil {
		return nil, fmt.Errorf("querying saved stations: %w", err)
	}
	defer rows.Close()

	var saved []models.SavedStation
	for rows.Next() {
		var s models.SavedStation
		if err := rows.Scan(&s.ID, &s.StationID, &s.Label, &s.Dataset, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning saved station: %w", err)
		}
		saved = append(saved, s)
	}
	return saved, rows.Err()
}

// GetByLabel returns the station saved under label
func (r *Repository) GetByLabel(label string) (*models.SavedStation, error) {
	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var s models.SavedStation
	err = db.QueryRow(
		"SELECT id, station_id, label, dataset, created_at FROM saved_stations WHERE label = ?",
		strings.TrimSpace(label),
	).Scan(&s.ID, &s.StationID, &s.Label, &s.Dataset, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%q: %w", label, ErrNotSaved)
	}
	if err != nil {
		return nil, fmt.Errorf("querying saved station: %w", err)
	}
	return &s, nil
}

// Delete removes a saved station by label
func (r *Repository) Delete(label string) error {
	db, err := r.open()
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := db.Exec("DELETE FROM saved_stations WHERE label = ?", strings.TrimSpace(label))
	if err != nil {
		return fmt.Errorf("deleting saved station: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%q: %w", label, ErrNotSaved)
	}
	return nil
}
