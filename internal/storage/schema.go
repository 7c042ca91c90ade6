package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateSchema creates the index tables if they do not exist and records the
// binding format version. If the database was written with a different
// format version, every index table is dropped and recreated empty so the
// caller rebuilds the index from scratch.
func CreateSchema(db *sql.DB) error {
	version, err := GetFormatVersion(db)
	if err != nil {
		return err
	}
	if version != "" && version != FormatVersion {
		if err := DropSchema(db); err != nil {
			return err
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"files", createFilesTable},
		{"actions", createActionsTable},
		{"binding_names", createBindingNamesTable},
		{"index_metadata", createIndexMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(upsertMetadataSQL, MetaFormatVersion, FormatVersion, now); err != nil {
		return fmt.Errorf("failed to record format version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// DropSchema removes every index table.
func DropSchema(db *sql.DB) error {
	for _, table := range []string{"binding_names", "actions", "files", "index_metadata"} {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}
	return nil
}

// GetFormatVersion returns the binding format version stored in the
// database, or "" for a new database.
func GetFormatVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='index_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check index_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "", nil
	}

	value, err := GetMetadata(db, MetaFormatVersion)
	if err != nil {
		return "", fmt.Errorf("failed to query format version: %w", err)
	}
	return value, nil
}

// Metadata keys.
const (
	MetaFormatVersion = "format_version"
	MetaLastRunID     = "last_run_id"
	MetaLastIndexedAt = "last_indexed_at"
)

// GetMetadata returns the value stored under key, or "" when absent.
func GetMetadata(db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM index_metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read metadata %s: %w", key, err)
	}
	return value, nil
}

// SetMetadata stores value under key.
func SetMetadata(db *sql.DB, key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := db.Exec(upsertMetadataSQL, key, value, now); err != nil {
		return fmt.Errorf("failed to write metadata %s: %w", key, err)
	}
	return nil
}

const upsertMetadataSQL = `
INSERT INTO index_metadata (key, value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
    value = excluded.value,
    updated_at = excluded.updated_at
`

// Table DDL constants

const createFilesTable = `
CREATE TABLE IF NOT EXISTS files (
    file_path TEXT PRIMARY KEY,          -- Path relative to the project root
    content_hash TEXT NOT NULL,          -- xxh3 of file content for change detection
    controller TEXT NOT NULL,            -- Identity half of canonical keys (e.g. Admin:Users)
    size_bytes INTEGER NOT NULL DEFAULT 0,
    indexed_at TEXT NOT NULL             -- ISO 8601 when this file was indexed
)
`

const createActionsTable = `
CREATE TABLE IF NOT EXISTS actions (
    canonical_key TEXT NOT NULL,         -- Controller:action
    file_path TEXT NOT NULL REFERENCES files(file_path) ON DELETE CASCADE,
    bindings BLOB NOT NULL,              -- Encoded BindingSet
    PRIMARY KEY (canonical_key, file_path)
)
`

const createBindingNamesTable = `
CREATE TABLE IF NOT EXISTS binding_names (
    variable_name TEXT NOT NULL,
    canonical_key TEXT NOT NULL,
    file_path TEXT NOT NULL REFERENCES files(file_path) ON DELETE CASCADE,
    var_kind INTEGER NOT NULL,
    PRIMARY KEY (variable_name, canonical_key, file_path)
)
`

const createIndexMetadataTable = `
CREATE TABLE IF NOT EXISTS index_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_actions_file ON actions(file_path)",
	"CREATE INDEX IF NOT EXISTS idx_binding_names_key ON binding_names(canonical_key)",
	"CREATE INDEX IF NOT EXISTS idx_binding_names_file ON binding_names(file_path)",
}
