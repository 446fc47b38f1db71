package database

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func TestEnsureUserSchema_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	// 1. Initialize schema, creating the directory
	if err := EnsureUserSchema(dbPath); err != nil {
		t.Fatalf("First EnsureUserSchema failed: %v", err)
	}

	// 2. Insert a record
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	_, err = db.Exec(`INSERT INTO saved_stations (station_id, label) VALUES ('41013', 'Frying Pan')`)
	db.Close()
	if err != nil {
		t.Fatalf("Failed to insert record: %v", err)
	}

	// 3. Initialize schema again (should not drop table)
	if err := EnsureUserSchema(dbPath); err != nil {
		t.Fatalf("Second EnsureUserSchema failed: %v", err)
	}

	// 4. Verify record exists with the default dataset
	db, err = sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	defer db.Close()

	var dataset string
	err = db.QueryRow("SELECT dataset FROM saved_stations WHERE label = 'Frying Pan'").Scan(&dataset)
	if err != nil {
		t.Fatalf("Failed to query record: %v", err)
	}
	if dataset != "standard" {
		t.Errorf("dataset = %q, want standard", dataset)
	}
}
