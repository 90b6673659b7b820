package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id                   TEXT PRIMARY KEY,
	query                TEXT NOT NULL,
	caller               TEXT NOT NULL,
	status               TEXT NOT NULL,
	results_count        INTEGER NOT NULL DEFAULT 0,
	total_processed      INTEGER NOT NULL DEFAULT 0,
	items_without_emails INTEGER NOT NULL DEFAULT 0,
	started_at           TIMESTAMP NOT NULL,
	duration_ms          INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at);
`

// InitDB opens (creating if needed) the sqlite database at path and
// applies the schema. ":memory:" is accepted for tests.
func InitDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
	}

	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite3 db %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases alive and serialises writes.
	database.SetMaxOpenConns(1)

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("pinging db: %w", err)
	}
	if _, err := database.Exec(schema); err != nil {
		database.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return database, nil
}

// OpenReadOnly opens an existing database without creating the file,
// its directory or the schema. A missing file yields an error wrapping
// fs.ErrNotExist.
func OpenReadOnly(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening sqlite3 db %s: %w", path, err)
	}

	database, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite3 db %s: %w", path, err)
	}
	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("pinging db: %w", err)
	}
	return database, nil
}
