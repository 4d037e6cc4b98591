// Package testing provides fixtures, mocks and database helpers for tests.
package testing

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aristath/meterwatch/internal/database"
	_ "github.com/mattn/go-sqlite3"
)

// NewTestDB creates a temporary file database with the production driver and
// applies the schema registered for name ("meterwatch" or "cache").
// Returns the database and a cleanup function.
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", fmt.Sprintf("test_%s_*.db", name))
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	profile := database.ProfileStandard
	if name == database.NameCache {
		profile = database.ProfileCache
	}

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: profile,
		Name:    name,
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	return db, func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
		for _, suffix := range []string{"", "-wal", "-shm"} {
			_ = os.Remove(tmpPath + suffix)
		}
	}
}

// NewMemoryDB opens an in-memory mattn/go-sqlite3 database and executes the
// given schema file from internal/database/schemas. The connection pool is
// limited to one connection so every query sees the same in-memory database.
func NewMemoryDB(t *testing.T, schemaFile string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)

	schema, err := LoadTestSchema(schemaFile)
	if err != nil {
		_ = db.Close()
		t.Fatalf("Failed to load schema %s: %v", schemaFile, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to apply schema %s: %v", schemaFile, err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// findSchemasDir locates internal/database/schemas relative to this source file
func findSchemasDir() (string, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to get caller information")
	}
	dir := filepath.Join(filepath.Dir(currentFile), "..", "database", "schemas")
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", fmt.Errorf("schemas directory not found at %s", dir)
	}
	return dir, nil
}

// LoadTestSchema loads a schema file and returns its contents
func LoadTestSchema(schemaFile string) (string, error) {
	dir, err := findSchemasDir()
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(filepath.Join(dir, schemaFile))
	if err != nil {
		return "", fmt.Errorf("failed to read schema file %s: %w", schemaFile, err)
	}
	return string(content), nil
}
