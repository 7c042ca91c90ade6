package storage

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
)

// FileWriter replaces the indexed bindings of individual controller files.
type FileWriter struct {
	db *sql.DB
}

// FileRecord describes one indexed controller file.
type FileRecord struct {
	FilePath    string
	ContentHash string
	Controller  string
	SizeBytes   int64
	IndexedAt   time.Time
}

// NewFileWriter creates a FileWriter instance.
// DB must have schema already created via CreateSchema().
func NewFileWriter(db *sql.DB) *FileWriter {
	return &FileWriter{db: db}
}

// ReplaceFile atomically replaces everything stored for one file with the
// given extraction result. Nothing from the previous version of the file
// survives.
func (w *FileWriter) ReplaceFile(record *FileRecord, entries extraction.FileBindings) error {
	return w.ReplaceFileWithNames(record, entries, entries)
}

// ReplaceFileWithNames is ReplaceFile with the reverse-lookup names taken
// from names instead of entries, so that resolved placeholder bindings can
// be found by the names they produce. The stored binding sets are always
// entries.
func (w *FileWriter) ReplaceFileWithNames(record *FileRecord, entries, names extraction.FileBindings) error {
	encoded, err := EncodeFileBindings(entries)
	if err != nil {
		return fmt.Errorf("failed to encode bindings for %s: %w", record.FilePath, err)
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	if err := deleteFileRows(tx, record.FilePath); err != nil {
		return err
	}

	indexedAt := record.IndexedAt
	if indexedAt.IsZero() {
		indexedAt = time.Now()
	}
	_, err = sq.Insert("files").
		Columns("file_path", "content_hash", "controller", "size_bytes", "indexed_at").
		Values(record.FilePath, record.ContentHash, record.Controller, record.SizeBytes, indexedAt.UTC().Format(time.RFC3339)).
		RunWith(tx).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", record.FilePath, err)
	}

	if len(encoded) > 0 {
		actions := sq.Insert("actions").Columns("canonical_key", "file_path", "bindings")
		for key, data := range encoded {
			actions = actions.Values(string(key), record.FilePath, data)
		}
		if _, err := actions.RunWith(tx).Exec(); err != nil {
			return fmt.Errorf("failed to write actions for %s: %w", record.FilePath, err)
		}
	}

	nameRows := sq.Insert("binding_names").Columns("variable_name", "canonical_key", "file_path", "var_kind")
	nameCount := 0
	for key, set := range names {
		for name, b := range set {
			nameRows = nameRows.Values(name, string(key), record.FilePath, int32(b.VarKind))
			nameCount++
		}
	}
	if nameCount > 0 {
		if _, err := nameRows.RunWith(tx).Exec(); err != nil {
			return fmt.Errorf("failed to write binding names for %s: %w", record.FilePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", record.FilePath, err)
	}
	return nil
}

// DeleteFile removes a file and everything indexed from it.
func (w *FileWriter) DeleteFile(filePath string) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteFileRows(tx, filePath); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete of %s: %w", filePath, err)
	}
	return nil
}

// SetRunMetadata records the id and completion time of an indexing run.
func (w *FileWriter) SetRunMetadata(runID string, at time.Time) error {
	if err := SetMetadata(w.db, MetaLastRunID, runID); err != nil {
		return err
	}
	return SetMetadata(w.db, MetaLastIndexedAt, at.UTC().Format(time.RFC3339))
}

// deleteFileRows removes child rows explicitly so cleanup does not depend on
// the connection having foreign keys enabled.
func deleteFileRows(tx *sql.Tx, filePath string) error {
	for _, table := range []string{"binding_names", "actions", "files"} {
		_, err := sq.Delete(table).
			Where(sq.Eq{"file_path": filePath}).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to delete %s rows for %s: %w", table, filePath, err)
		}
	}
	return nil
}
