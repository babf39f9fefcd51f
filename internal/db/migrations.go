package db

import "fmt"

// migrate runs all database migrations
func (db *DB) migrate() error {
	migrations := []string{
		migrationCreateDocuments,
	}
	if db.Dialect == Postgres {
		migrations = []string{
			migrationCreateDocumentsPostgres,
		}
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// The deployment holds exactly one document, stored as a single row.
const migrationCreateDocuments = `
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    version TEXT NOT NULL,
    body TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

const migrationCreateDocumentsPostgres = `
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    version TEXT NOT NULL,
    body TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
