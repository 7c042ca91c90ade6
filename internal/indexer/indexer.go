// Package indexer keeps the view-binding index in step with the controller
// files of a project.
package indexer

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
	"github.com/mvp-joe/cakevars/internal/indexer/parsers"
	"github.com/mvp-joe/cakevars/internal/indexer/viewvars"
	"github.com/mvp-joe/cakevars/internal/storage"
)

// ChangeNotifier is told about every index modification.
type ChangeNotifier interface {
	Increment()
}

// Options configures an Indexer.
type Options struct {
	// Workers bounds parallel extraction. Zero uses GOMAXPROCS.
	Workers int
	// TestSuffix marks test files. Empty uses viewvars.DefaultTestSuffix.
	TestSuffix string
	Progress   ProgressReporter
	Notifier   ChangeNotifier
}

// Stats describes one indexing run.
type Stats struct {
	RunID          string
	FilesAdded     int
	FilesModified  int
	FilesDeleted   int
	FilesUnchanged int
	FilesFailed    int
	Actions        int
	Bindings       int
	Duration       time.Duration
}

// Indexer orchestrates change detection, extraction and index writes.
// Extraction runs in parallel; writes are sequential.
type Indexer struct {
	rootDir   string
	discovery *FileDiscovery
	detector  *ChangeDetector
	parser    *parsers.PhpParser
	extractor *viewvars.Extractor
	writer    *storage.FileWriter
	workers   int
	progress  ProgressReporter
	notifier  ChangeNotifier
}

// New creates an indexer writing to db.
func New(db *sql.DB, discovery *FileDiscovery, opts Options) *Indexer {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	progress := opts.Progress
	if progress == nil {
		progress = &NoOpProgressReporter{}
	}
	return &Indexer{
		rootDir:   discovery.RootDir(),
		discovery: discovery,
		detector:  NewChangeDetector(db, discovery),
		parser:    parsers.NewPhpParser(),
		extractor: viewvars.NewExtractor(opts.TestSuffix),
		writer:    storage.NewFileWriter(db),
		workers:   workers,
		progress:  progress,
		notifier:  opts.Notifier,
	}
}

// Discovery returns the file discovery the indexer uses.
func (idx *Indexer) Discovery() *FileDiscovery {
	return idx.discovery
}

type extractResult struct {
	record  *storage.FileRecord
	entries extraction.FileBindings
	names   extraction.FileBindings // entries with placeholders resolved
	err     error
}

// Index detects changes and brings the index up to date.
// hint: optional list of changed files (from the watcher). If empty, full
// discovery.
//
// A file that cannot be read or parsed is logged and skipped; its previous
// entries stay in the index. Cancelling ctx stops the run between files.
func (idx *Indexer) Index(ctx context.Context, hint []string) (*Stats, error) {
	start := time.Now()

	changes, err := idx.detector.DetectChanges(ctx, hint)
	if err != nil {
		return nil, fmt.Errorf("change detection failed: %w", err)
	}
	idx.progress.OnDiscoveryComplete(changes)

	stats := &Stats{
		RunID:          uuid.NewString(),
		FilesAdded:     len(changes.Added),
		FilesModified:  len(changes.Modified),
		FilesDeleted:   len(changes.Deleted),
		FilesUnchanged: len(changes.Unchanged),
	}

	for _, deleted := range changes.Deleted {
		if err := idx.writer.DeleteFile(deleted); err != nil {
			return nil, fmt.Errorf("failed to delete %s: %w", deleted, err)
		}
	}

	toProcess := changes.Changed()
	idx.progress.OnFileProcessingStart(len(toProcess))

	results, err := idx.extractAll(ctx, toProcess)
	if err != nil {
		return nil, err
	}

	for i, res := range results {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if res.err != nil {
			log.Printf("[indexer] Warning: skipping %s: %v\n", toProcess[i], res.err)
			stats.FilesFailed++
			continue
		}
		if err := idx.writer.ReplaceFileWithNames(res.record, res.entries, res.names); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", res.record.FilePath, err)
		}
		stats.Actions += len(res.entries)
		for _, set := range res.entries {
			stats.Bindings += len(set)
		}
		idx.progress.OnFileProcessed(res.record.FilePath)
	}

	if err := idx.writer.SetRunMetadata(stats.RunID, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	if !changes.Empty() && idx.notifier != nil {
		idx.notifier.Increment()
	}

	stats.Duration = time.Since(start)
	if changes.Empty() {
		log.Printf("[indexer] No changes detected\n")
	} else {
		log.Printf("[indexer] Run %s: %d added, %d modified, %d deleted, %d failed in %v\n",
			stats.RunID, stats.FilesAdded, stats.FilesModified, stats.FilesDeleted, stats.FilesFailed, stats.Duration)
	}
	idx.progress.OnComplete(stats)
	return stats, nil
}

// extractAll extracts files in parallel. Results keep the input order.
func (idx *Indexer) extractAll(ctx context.Context, files []string) ([]extractResult, error) {
	results := make([]extractResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)
	for i, relPath := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = idx.extractFile(relPath)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// extractFile reads, parses and extracts one file. It touches no shared
// state.
func (idx *Indexer) extractFile(relPath string) extractResult {
	source, err := os.ReadFile(filepath.Join(idx.rootDir, filepath.FromSlash(relPath)))
	if err != nil {
		return extractResult{err: err}
	}

	record := &storage.FileRecord{
		FilePath:    relPath,
		ContentHash: HashContent(source),
		SizeBytes:   int64(len(source)),
	}

	id, ok := viewvars.Identify(relPath)
	if !ok {
		empty := extraction.FileBindings{}
		return extractResult{record: record, entries: empty, names: empty}
	}
	record.Controller = id.Controller.String()

	tree, err := idx.parser.Parse(source)
	if err != nil {
		return extractResult{err: err}
	}
	entries := idx.extractor.ExtractFile(tree, id)
	names := make(extraction.FileBindings, len(entries))
	for key, set := range entries {
		names[key] = viewvars.ResolveSet(tree, set)
	}
	return extractResult{record: record, entries: entries, names: names}
}
