package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour of a connection
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DB wraps a SQL connection together with its dialect
type DB struct {
	*sql.DB
	Dialect Dialect
}

// OpenSQLite opens or creates the SQLite database at dbPath
func OpenSQLite(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Immediate transactions take the write lock up front, so two processes
	// cannot both read the same version and then race to write.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_txlock=immediate", dbPath)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return finishOpen(sqlDB, SQLite)
}

// OpenPostgres connects to the PostgreSQL database at dbURL
func OpenPostgres(dbURL string) (*DB, error) {
	sqlDB, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return finishOpen(sqlDB, Postgres)
}

func finishOpen(sqlDB *sql.DB, dialect Dialect) (*DB, error) {
	// Test connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: sqlDB, Dialect: dialect}

	// Run migrations
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Bind rewrites ? placeholders into the connection's native form
func (db *DB) Bind(query string) string {
	if db.Dialect != Postgres {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, fmt.Sprintf("$%d", n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}
