package indexer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/zeebo/xxh3"

	"github.com/mvp-joe/cakevars/internal/storage"
)

// ChangeSet contains the result of change detection. Paths are
// root-relative with forward slashes.
type ChangeSet struct {
	Added     []string // New files not in the index
	Modified  []string // Files whose content hash differs from the index
	Deleted   []string // Files in the index but not on disk
	Unchanged []string
}

// Changed returns the files needing extraction, added first.
func (c *ChangeSet) Changed() []string {
	out := make([]string, 0, len(c.Added)+len(c.Modified))
	out = append(out, c.Added...)
	return append(out, c.Modified...)
}

// Empty reports whether nothing needs to be written.
func (c *ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0
}

// ChangeDetector compares controller files on disk to the index.
type ChangeDetector struct {
	discovery *FileDiscovery
	reader    *storage.FileReader
}

// NewChangeDetector creates a new change detector.
func NewChangeDetector(db *sql.DB, discovery *FileDiscovery) *ChangeDetector {
	return &ChangeDetector{
		discovery: discovery,
		reader:    storage.NewFileReader(db),
	}
}

// DetectChanges compares disk to the index and returns what changed.
//
// With an empty hint every file is discovered and indexed files missing
// from disk are reported deleted. With a hint only the hinted files are
// checked; a hinted file that is gone from disk is deleted, and hinted
// files that do not match discovery are ignored.
func (cd *ChangeDetector) DetectChanges(ctx context.Context, hint []string) (*ChangeSet, error) {
	changes := &ChangeSet{
		Added:     []string{},
		Modified:  []string{},
		Deleted:   []string{},
		Unchanged: []string{},
	}

	indexed, err := cd.reader.FileHashes()
	if err != nil {
		return nil, fmt.Errorf("failed to read indexed files: %w", err)
	}

	var candidates []string
	if len(hint) == 0 {
		candidates, err = cd.discovery.DiscoverFiles()
		if err != nil {
			return nil, fmt.Errorf("failed to discover files: %w", err)
		}
	} else {
		candidates, err = cd.relativeHint(hint)
		if err != nil {
			return nil, err
		}
	}

	seen := make(map[string]bool, len(candidates))
	for _, relPath := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seen[relPath] = true

		storedHash, inIndex := indexed[relPath]
		diskHash, err := HashFile(filepath.Join(cd.discovery.RootDir(), filepath.FromSlash(relPath)))
		if errors.Is(err, fs.ErrNotExist) {
			if inIndex {
				changes.Deleted = append(changes.Deleted, relPath)
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to hash %s: %w", relPath, err)
		}

		switch {
		case !inIndex:
			changes.Added = append(changes.Added, relPath)
		case storedHash != diskHash:
			changes.Modified = append(changes.Modified, relPath)
		default:
			changes.Unchanged = append(changes.Unchanged, relPath)
		}
	}

	if len(hint) == 0 {
		for relPath := range indexed {
			if !seen[relPath] {
				changes.Deleted = append(changes.Deleted, relPath)
			}
		}
	}
	sort.Strings(changes.Deleted)

	return changes, nil
}

// relativeHint normalizes hinted paths and keeps those discovery would
// return.
func (cd *ChangeDetector) relativeHint(hint []string) ([]string, error) {
	out := make([]string, 0, len(hint))
	dedup := make(map[string]bool, len(hint))
	for _, file := range hint {
		relPath := file
		if filepath.IsAbs(file) {
			rel, err := filepath.Rel(cd.discovery.RootDir(), file)
			if err != nil {
				return nil, fmt.Errorf("failed to get relative path for %s: %w", file, err)
			}
			relPath = rel
		}
		relPath = filepath.ToSlash(filepath.Clean(relPath))
		if dedup[relPath] || !cd.discovery.Matches(relPath) {
			continue
		}
		dedup[relPath] = true
		out = append(out, relPath)
	}
	sort.Strings(out)
	return out, nil
}

// HashContent returns the content hash stored for indexed files.
func HashContent(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}

// HashFile reads and hashes a file.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashContent(data), nil
}
