package db

import (
	"path/filepath"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestOpenSQLiteRunsMigrations(t *testing.T) {
	database, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "wbs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()

	var name string
	err = database.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'documents'`).Scan(&name)
	assert.Equal(t, err, nil)
	assert.Equal(t, name, "documents")
}

func TestOpenSQLiteIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wbs.db")
	for i := 0; i < 2; i++ {
		database, err := OpenSQLite(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		database.Close()
	}
}

func TestSingleRowConstraint(t *testing.T) {
	database, err := OpenSQLite(filepath.Join(t.TempDir(), "wbs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()

	_, err = database.Exec(`INSERT INTO documents (id, version, body, updated_at) VALUES (2, 'v', '{}', 'now')`)
	assert.NotEqual(t, err, nil)
}

func TestBind(t *testing.T) {
	pg := &DB{Dialect: Postgres}
	lite := &DB{Dialect: SQLite}
	q := `UPDATE documents SET version = ?, body = ? WHERE id = ?`

	assert.Equal(t, pg.Bind(q), `UPDATE documents SET version = $1, body = $2 WHERE id = $3`)
	assert.Equal(t, lite.Bind(q), q)
}
