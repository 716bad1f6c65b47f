package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNew(t *testing.T) {
	db := newTestDB(t)

	if _, err := os.Stat(db.Path()); os.IsNotExist(err) {
		t.Errorf("Database file was not created: %s", db.Path())
	}
	if err := db.conn.Ping(); err != nil {
		t.Errorf("Database connection is not valid: %v", err)
	}
}

func TestMigrate(t *testing.T) {
	db := newTestDB(t)

	tables := []string{"employees", "tasks", "actions", "settings"}
	for _, table := range tables {
		var count int
		err := db.conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Errorf("Failed to query table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("Table %s does not exist after migration", table)
		}
	}

	version, dirty, err := db.Version()
	if err != nil {
		t.Fatalf("Failed to read version: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("Expected clean version 1, got %d (dirty=%v)", version, dirty)
	}

	// Running again is a no-op
	if err := db.Migrate(context.Background()); err != nil {
		t.Errorf("Second migration failed: %v", err)
	}
}

func TestReset(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.conn.Exec("INSERT INTO employees (id, name) VALUES ('emp_x', 'X')"); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if err := db.Reset(ctx); err != nil {
		t.Fatalf("Failed to reset: %v", err)
	}

	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM employees").Scan(&count); err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected empty employees after reset, got %d", count)
	}
}

func TestSettings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	key := "use_ai_guidance"
	if err := db.SetSetting(ctx, key, "true"); err != nil {
		t.Fatalf("Failed to set setting: %v", err)
	}

	retrieved, err := db.GetSetting(ctx, key)
	if err != nil {
		t.Fatalf("Failed to get setting: %v", err)
	}
	if retrieved != "true" {
		t.Errorf("Expected true, got %s", retrieved)
	}

	if err := db.SetSetting(ctx, key, "false"); err != nil {
		t.Fatalf("Failed to update setting: %v", err)
	}
	retrieved, err = db.GetSetting(ctx, key)
	if err != nil {
		t.Fatalf("Failed to get updated setting: %v", err)
	}
	if retrieved != "false" {
		t.Errorf("Expected false, got %s", retrieved)
	}

	retrieved, err = db.GetSetting(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("Unexpected error for non-existent key: %v", err)
	}
	if retrieved != "" {
		t.Errorf("Expected empty string for non-existent key, got %s", retrieved)
	}
}

func TestConcurrentAccess(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			if err := db.SetSetting(ctx, "concurrent_key", "value"); err != nil {
				t.Errorf("Concurrent write %d failed: %v", id, err)
			}
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
