package cli

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mvp-joe/cakevars/internal/cache"
	"github.com/mvp-joe/cakevars/internal/config"
	"github.com/mvp-joe/cakevars/internal/indexer"
	"github.com/mvp-joe/cakevars/internal/lookup"
	"github.com/mvp-joe/cakevars/internal/storage"
)

// project ties a project root to its configuration and index location.
type project struct {
	root   string
	cfg    *config.Config
	dbPath string
}

// loadProject resolves dir (the working directory when empty) and loads
// its configuration.
func loadProject(dir string) (*project, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	cfg, err := config.LoadConfigFromDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	dbPath, err := cache.IndexLocation(root, cfg.Storage.CacheLocation)
	if err != nil {
		return nil, err
	}

	return &project{root: root, cfg: cfg, dbPath: dbPath}, nil
}

func (p *project) open(readOnly bool) (*sql.DB, error) {
	return storage.OpenIndex(p.dbPath, readOnly)
}

func (p *project) newIndexer(db *sql.DB, progress indexer.ProgressReporter, notifier indexer.ChangeNotifier) (*indexer.Indexer, error) {
	discovery, err := indexer.NewFileDiscovery(p.root, p.cfg.Paths.Controllers, p.cfg.Paths.Ignore)
	if err != nil {
		return nil, fmt.Errorf("failed to create file discovery: %w", err)
	}
	return indexer.New(db, discovery, indexer.Options{
		Workers:    p.cfg.Index.Workers,
		TestSuffix: p.cfg.Index.TestSuffix,
		Progress:   progress,
		Notifier:   notifier,
	}), nil
}

// newTracker returns the modification tracker gating the resolution
// cache, or nil when caching is disabled.
func (p *project) newTracker() *cache.ModificationTracker {
	if !p.cfg.Cache.Enabled {
		return nil
	}
	return cache.NewModificationTracker(cache.ControllerDirArm(p.root))
}

func (p *project) newService(db *sql.DB, tracker *cache.ModificationTracker) (*lookup.Service, error) {
	opts := lookup.Options{MaxFiles: p.cfg.Cache.MaxFiles}
	if tracker != nil {
		opts.Signal = tracker
	}
	return lookup.NewService(p.root, db, opts)
}

func (p *project) debounce() time.Duration {
	return time.Duration(p.cfg.Watch.DebounceMs) * time.Millisecond
}
