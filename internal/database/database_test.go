package database

import (
	"path/filepath"
	"testing"
)

func TestDBPath(t *testing.T) {
	expected := filepath.Join("data", "buoy-terminal.db")
	if got := DBPath(); got != expected {
		t.Errorf("DBPath() = %v, want %v", got, expected)
	}
}

func TestSetDataDir(t *testing.T) {
	defer SetDataDir("data")

	SetDataDir("/tmp/buoys")
	if got := DBPath(); got != filepath.Join("/tmp/buoys", "buoy-terminal.db") {
		t.Errorf("DBPath() = %v", got)
	}

	SetDataDir("")
	if got := DataDir(); got != "/tmp/buoys" {
		t.Errorf("empty dir should be ignored, DataDir() = %v", got)
	}
}

func TestTableExists(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	ok, err := TableExists(db, "saved_stations")
	if err != nil || ok {
		t.Fatalf("TableExists() before schema = %v, %v", ok, err)
	}
	if err := CreateUserSchema(db); err != nil {
		t.Fatalf("CreateUserSchema() error = %v", err)
	}
	ok, err = TableExists(db, "saved_stations")
	if err != nil || !ok {
		t.Errorf("TableExists() after schema = %v, %v", ok, err)
	}
}
