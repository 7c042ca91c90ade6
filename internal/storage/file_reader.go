package storage

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
)

// FileReader answers queries against the persistent index.
type FileReader struct {
	db *sql.DB
}

// NewFileReader creates a FileReader instance.
// DB should have schema already created.
func NewFileReader(db *sql.DB) *FileReader {
	return &FileReader{db: db}
}

// FileHashes returns the stored content hash of every indexed file.
func (r *FileReader) FileHashes() (map[string]string, error) {
	rows, err := sq.Select("file_path", "content_hash").
		From("files").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query file hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan file hash: %w", err)
		}
		hashes[path] = hash
	}
	return hashes, rows.Err()
}

// GetFile returns the record of one indexed file.
// Returns (nil, nil) if file not found.
func (r *FileReader) GetFile(filePath string) (*FileRecord, error) {
	record := &FileRecord{}
	var indexedAt string

	err := sq.Select("file_path", "content_hash", "controller", "size_bytes", "indexed_at").
		From("files").
		Where(sq.Eq{"file_path": filePath}).
		RunWith(r.db).
		QueryRow().
		Scan(&record.FilePath, &record.ContentHash, &record.Controller, &record.SizeBytes, &indexedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", filePath, err)
	}

	record.IndexedAt, _ = time.Parse(time.RFC3339, indexedAt)
	return record, nil
}

// ActionRecord is one action's decoded bindings and the file defining it.
type ActionRecord struct {
	Key      extraction.CanonicalKey
	FilePath string
	Bindings extraction.BindingSet
}

// Lookup returns every stored entry for key. The same key can come from
// more than one file, for example a controller duplicated in a plugin.
// Returns nil if the action is unknown.
func (r *FileReader) Lookup(key extraction.CanonicalKey) ([]ActionRecord, error) {
	rows, err := sq.Select("canonical_key", "file_path", "bindings").
		From("actions").
		Where(sq.Eq{"canonical_key": string(key)}).
		OrderBy("file_path").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", key, err)
	}
	defer rows.Close()
	return scanActions(rows)
}

// FileEntries returns every action stored for one file.
func (r *FileReader) FileEntries(filePath string) (extraction.FileBindings, error) {
	rows, err := sq.Select("canonical_key", "file_path", "bindings").
		From("actions").
		Where(sq.Eq{"file_path": filePath}).
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query actions of %s: %w", filePath, err)
	}
	defer rows.Close()

	records, err := scanActions(rows)
	if err != nil {
		return nil, err
	}
	out := make(extraction.FileBindings, len(records))
	for _, rec := range records {
		out[rec.Key] = rec.Bindings
	}
	return out, nil
}

// KeysForVariable returns the actions that bind name, sorted by key.
func (r *FileReader) KeysForVariable(name string) ([]extraction.CanonicalKey, error) {
	rows, err := sq.Select("DISTINCT canonical_key").
		From("binding_names").
		Where(sq.Eq{"variable_name": name}).
		OrderBy("canonical_key").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query keys for %s: %w", name, err)
	}
	defer rows.Close()

	var keys []extraction.CanonicalKey
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, extraction.CanonicalKey(key))
	}
	return keys, rows.Err()
}

// IndexStats summarizes the index contents.
type IndexStats struct {
	Files       int
	Actions     int
	Bindings    int
	LastRunID   string
	LastIndexed string
}

// Stats counts files, actions and bindings in the index.
func (r *FileReader) Stats() (*IndexStats, error) {
	stats := &IndexStats{}
	counts := []struct {
		table string
		dest  *int
	}{
		{"files", &stats.Files},
		{"actions", &stats.Actions},
		{"binding_names", &stats.Bindings},
	}
	for _, c := range counts {
		if err := sq.Select("COUNT(*)").From(c.table).RunWith(r.db).QueryRow().Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}

	var err error
	if stats.LastRunID, err = GetMetadata(r.db, MetaLastRunID); err != nil {
		return nil, err
	}
	if stats.LastIndexed, err = GetMetadata(r.db, MetaLastIndexedAt); err != nil {
		return nil, err
	}
	return stats, nil
}

func scanActions(rows *sql.Rows) ([]ActionRecord, error) {
	var out []ActionRecord
	for rows.Next() {
		var key, path string
		var data []byte
		if err := rows.Scan(&key, &path, &data); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		set, err := DecodeBindingSet(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s from %s: %w", key, path, err)
		}
		out = append(out, ActionRecord{Key: extraction.CanonicalKey(key), FilePath: path, Bindings: set})
	}
	return out, rows.Err()
}
