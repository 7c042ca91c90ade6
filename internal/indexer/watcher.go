package indexer

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 500 * time.Millisecond

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	Debounce time.Duration
	// Notifier is incremented on every PHP file event, before the reindex.
	Notifier ChangeNotifier
	// OnReindex, when set, receives the outcome of every reindex.
	OnReindex func(stats *Stats, err error)
}

// Watcher watches the project for PHP file changes and triggers incremental
// reindexing.
type Watcher struct {
	indexer      *Indexer
	rootDir      string
	watcher      *fsnotify.Watcher
	debounceTime time.Duration
	notifier     ChangeNotifier
	onReindex    func(*Stats, error)
	stopCh       chan struct{}
	doneCh       chan struct{}
	startOnce    sync.Once
	stopOnce     sync.Once

	mu      sync.Mutex
	watched map[string]bool // absolute paths of directories added to the watcher
}

// NewWatcher creates a new file watcher for the indexer.
func NewWatcher(idx *Indexer, opts WatcherOptions) (*Watcher, error) {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		indexer:      idx,
		rootDir:      idx.rootDir,
		watcher:      watcher,
		debounceTime: debounce,
		notifier:     opts.Notifier,
		onReindex:    opts.OnReindex,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
		watched:      make(map[string]bool),
	}

	if err := w.addDirectoriesRecursively(w.rootDir); err != nil {
		watcher.Close()
		return nil, err
	}

	return w, nil
}

// Start begins watching for file changes.
func (w *Watcher) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		go w.watch(ctx)
	})
}

// Stop stops the watcher and waits for a running reindex to finish.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.startOnce.Do(func() { close(w.doneCh) })
		<-w.doneCh
		w.watcher.Close()
	})
}

// watch is the main event loop with debouncing logic.
func (w *Watcher) watch(ctx context.Context) {
	defer close(w.doneCh)

	var debounceTimer *time.Timer
	reindexCh := make(chan struct{}, 1)
	changedFiles := make(map[string]bool)
	fullReindex := false

	stopTimer := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return

		case <-w.stopCh:
			stopTimer()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			relPath, err := filepath.Rel(w.rootDir, event.Name)
			if err != nil {
				continue
			}
			relPath = filepath.ToSlash(relPath)

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if w.indexer.discovery.ShouldWatchDir(relPath) {
						if err := w.addDirectoriesRecursively(event.Name); err != nil {
							log.Printf("[watcher] Warning: failed to watch new directory %s: %v", event.Name, err)
						}
						// Files may have landed before the watch was added.
						fullReindex = true
					}
					continue
				}
			}

			switch {
			case isPHPEvent(event):
				if w.notifier != nil {
					w.notifier.Increment()
				}
				changedFiles[relPath] = true
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && w.forgetDir(event.Name):
				// A watched directory went away; its files are only found by a full pass.
				fullReindex = true
			default:
				continue
			}

			stopTimer()
			debounceTimer = time.AfterFunc(w.debounceTime, func() {
				select {
				case reindexCh <- struct{}{}:
				default:
				}
			})

		case <-reindexCh:
			w.triggerReindex(ctx, changedFiles, fullReindex)
			changedFiles = make(map[string]bool)
			fullReindex = false

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] File watcher error: %v", err)
		}
	}
}

// triggerReindex executes an incremental reindex.
func (w *Watcher) triggerReindex(ctx context.Context, changedFiles map[string]bool, full bool) {
	var hint []string
	if !full {
		for file := range changedFiles {
			if w.indexer.discovery.Matches(file) {
				hint = append(hint, file)
			}
		}
		if len(hint) == 0 {
			return
		}
		sort.Strings(hint)
	}

	log.Printf("[watcher] Reindexing due to changes in %d file(s)...", len(changedFiles))
	stats, err := w.indexer.Index(ctx, hint)
	if err != nil {
		log.Printf("[watcher] Error during incremental reindex: %v", err)
	}
	if w.onReindex != nil {
		w.onReindex(stats, err)
	}
}

func isPHPEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), ".php")
}

// addDirectoriesRecursively adds all directories in the tree to the watcher.
func (w *Watcher) addDirectoriesRecursively(rootPath string) error {
	return filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Log but continue - don't fail the entire watch for one directory
			log.Printf("[watcher] Warning: error accessing %s: %v", path, err)
			return nil
		}

		if !info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(w.rootDir, path)
		if err != nil || !w.indexer.discovery.ShouldWatchDir(relPath) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			log.Printf("[watcher] Warning: failed to watch directory %s: %v", path, err)
			return nil
		}
		w.mu.Lock()
		w.watched[filepath.Clean(path)] = true
		w.mu.Unlock()
		return nil
	})
}

// forgetDir drops path and everything below it from the watched set. It
// reports whether path was a watched directory.
func (w *Watcher) forgetDir(path string) bool {
	path = filepath.Clean(path)
	prefix := path + string(filepath.Separator)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.watched[path] {
		return false
	}
	for dir := range w.watched {
		if dir == path || strings.HasPrefix(dir, prefix) {
			delete(w.watched, dir)
		}
	}
	return true
}
