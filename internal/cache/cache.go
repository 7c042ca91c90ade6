// Package cache memoizes per-file lookups and locates the on-disk index.
package cache

import (
	"fmt"
	"sync"

	"github.com/maypok86/otter"
)

// DefaultMaxFiles bounds how many per-file tables a ResolutionCache keeps.
const DefaultMaxFiles = 1024

// Signal reports whether cached answers can be trusted and a version that
// advances on every relevant project modification.
type Signal interface {
	IsArmed() bool
	Version() uint64
}

// File identifies the file a lookup is made for. Stamp changes whenever
// the file's identity or content changes (e.g. a content hash).
type File struct {
	Path  string
	Stamp string
}

// LookupFunc computes an answer for one variable of one file. It must be
// deterministic for a given project state.
type LookupFunc[V any] func(filenameKey, variableName string) V

// ResolutionCache memoizes LookupFunc results per file. A file's table is
// discarded as a whole when the file's stamp changes or the signal version
// advances. The cache is owned by its caller; there is no shared instance.
type ResolutionCache[V any] struct {
	tables otter.Cache[string, *fileTable[V]]
}

type fileTable[V any] struct {
	stamp   string
	version uint64

	mu     sync.Mutex
	values map[string]V
}

// NewResolutionCache creates a cache holding tables for at most maxFiles
// files. Zero or negative uses DefaultMaxFiles.
func NewResolutionCache[V any](maxFiles int) (*ResolutionCache[V], error) {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	tables, err := otter.MustBuilder[string, *fileTable[V]](maxFiles).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build resolution cache: %w", err)
	}
	return &ResolutionCache[V]{tables: tables}, nil
}

// Key is the memo key of one variable within a file's table.
func Key(filenameKey, variableName string) string {
	return filenameKey + "::" + variableName
}

// Lookup returns fn(filenameKey, variableName), memoized under
// Key(filenameKey, variableName) in file's table. When signal is nil or not
// armed the cache is bypassed: fn runs on every call and nothing is stored.
//
// fn runs without holding any lock, so two concurrent misses on the same
// key may both call it; the later result is kept.
func (c *ResolutionCache[V]) Lookup(file File, filenameKey, variableName string, signal Signal, fn LookupFunc[V]) V {
	if signal == nil || !signal.IsArmed() {
		return fn(filenameKey, variableName)
	}

	table := c.table(file, signal.Version())
	key := Key(filenameKey, variableName)
	if v, ok := table.get(key); ok {
		return v
	}

	v := fn(filenameKey, variableName)
	table.put(key, v)
	return v
}

// table returns the current table of file, replacing one built for another
// stamp or version.
func (c *ResolutionCache[V]) table(file File, version uint64) *fileTable[V] {
	if t, ok := c.tables.Get(file.Path); ok && t.stamp == file.Stamp && t.version == version {
		return t
	}
	t := &fileTable[V]{
		stamp:   file.Stamp,
		version: version,
		values:  make(map[string]V),
	}
	c.tables.Set(file.Path, t)
	return t
}

// Invalidate drops the table of one file.
func (c *ResolutionCache[V]) Invalidate(path string) {
	c.tables.Delete(path)
}

// Clear drops every table.
func (c *ResolutionCache[V]) Clear() {
	c.tables.Clear()
}

// Files returns the number of per-file tables currently held.
func (c *ResolutionCache[V]) Files() int {
	return c.tables.Size()
}

// Close releases the cache's background resources.
func (c *ResolutionCache[V]) Close() {
	c.tables.Close()
}

func (t *fileTable[V]) get(key string) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.values[key]
	return v, ok
}

func (t *fileTable[V]) put(key string, v V) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values[key] = v
}
