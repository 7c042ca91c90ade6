package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// ErrIndexNotFound indicates a read-only open of a database that was never built.
var ErrIndexNotFound = errors.New("index not found")

// OpenIndex opens (and in write mode creates) the index database at dbPath.
// Write mode creates the schema, rebuilding it when the stored binding
// format differs. Read-only mode fails with ErrFormatMismatch instead.
func OpenIndex(dbPath string, readOnly bool) (*sql.DB, error) {
	if readOnly {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s, run 'cakevars index' first", ErrIndexNotFound, dbPath)
		}
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_foreign_keys=on&_busy_timeout=5000"
	if readOnly {
		dsn += "&mode=ro"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; one connection also keeps per-connection
	// pragmas in effect for every statement.
	db.SetMaxOpenConns(1)

	if readOnly {
		version, err := GetFormatVersion(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		if version != FormatVersion {
			db.Close()
			return nil, fmt.Errorf("%w: index has %q, want %q", ErrFormatMismatch, version, FormatVersion)
		}
		return db, nil
	}

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return db, nil
}
