package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/existflow/wbsync/internal/db"
	"github.com/existflow/wbsync/internal/model"
)

// SQL stores the document as one row of the documents table. Update runs in
// a transaction that holds the row (PostgreSQL) or database (SQLite) write
// lock until commit.
type SQL struct {
	db       *db.DB
	location string
}

// NewSQLite opens a SQLite-backed store at path
func NewSQLite(path string) (*SQL, error) {
	database, err := db.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	return &SQL{db: database, location: path}, nil
}

// NewPostgres opens a PostgreSQL-backed store
func NewPostgres(dbURL string) (*SQL, error) {
	database, err := db.OpenPostgres(dbURL)
	if err != nil {
		return nil, err
	}
	return &SQL{db: database, location: "postgres"}, nil
}

// Location describes where the document lives
func (s *SQL) Location() string {
	return s.location
}

// Load reads the current document
func (s *SQL) Load(ctx context.Context) (*model.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return decode(body)
}

// Update runs fn inside a write transaction and persists its result
func (s *SQL) Update(ctx context.Context, fn UpdateFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLocked, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT body FROM documents WHERE id = 1`
	if s.db.Dialect == db.Postgres {
		query += ` FOR UPDATE`
	}

	var current *model.Document
	var body string
	err = tx.QueryRowContext(ctx, query).Scan(&body)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("failed to load document: %w", err)
	default:
		if current, err = decode(body); err != nil {
			return err
		}
	}

	next, err := fn(current)
	if err != nil || next == nil {
		return err
	}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	if current == nil {
		// Two writers can both see an empty table; only one insert wins.
		res, err := tx.ExecContext(ctx, s.db.Bind(`
			INSERT INTO documents (id, version, body, updated_at)
			VALUES (1, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING`),
			next.Meta.Version, string(data), now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert document: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrChanged
		}
	} else {
		_, err := tx.ExecContext(ctx, s.db.Bind(`
			UPDATE documents SET version = ?, body = ?, updated_at = ?
			WHERE id = 1`),
			next.Meta.Version, string(data), now,
		)
		if err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQL) Close() error {
	return s.db.Close()
}

func decode(body string) (*model.Document, error) {
	var doc model.Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	doc.Normalize()
	return &doc, nil
}
