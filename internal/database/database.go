package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

var (
	mu      sync.RWMutex
	dataDir = "data"
)

// SetDataDir changes the directory holding the database, logs and downloads
func SetDataDir(dir string) {
	if dir == "" {
		return
	}
	mu.Lock()
	dataDir = dir
	mu.Unlock()
}

// DataDir returns the directory holding the database, logs and downloads
func DataDir() string {
	mu.RLock()
	defer mu.RUnlock()
	return dataDir
}

// DBPath returns the path to the single shared database
func DBPath() string {
	return filepath.Join(DataDir(), "buoy-terminal.db")
}

// Open opens the sqlite database at dbPath, creating its directory
func Open(dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set pragmas for performance
	_, _ = db.Exec("PRAGMA journal_mode=WAL")
	_, _ = db.Exec("PRAGMA synchronous=NORMAL")
	_, _ = db.Exec("PRAGMA cache_size=10000")
	return db, nil
}

// TableExists reports whether a table has been created
func TableExists(db *sql.DB, name string) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking for %s table: %w", name, err)
	}
	return count > 0, nil
}

// EnsureUserSchema ensures that the user-specific tables (saved_stations) exist.
func EnsureUserSchema(dbPath string) error {
	db, err := Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database to ensure schema: %w", err)
	}
	defer db.Close()

	return CreateUserSchema(db)
}

// CreateUserSchema creates the user tables on an open connection
func CreateUserSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS saved_stations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			station_id TEXT NOT NULL,
			label TEXT NOT NULL,
			dataset TEXT NOT NULL DEFAULT 'standard',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_saved_stations_label ON saved_stations(label);
	`)
	if err != nil {
		return fmt.Errorf("creating saved_stations table: %w", err)
	}
	return nil
}
