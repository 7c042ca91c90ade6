package indexer

// Test Plan for Indexer:
// - A full run indexes every eligible action of every controller, and nothing for test files
// - A second run with no edits changes nothing and keeps the rows
// - Editing a controller re-extracts only that file
// - Deleting a controller removes its actions
// - A run records its run id in index metadata and notifies the change notifier
// - A cancelled context aborts the run
// - Worker count does not change the result

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
	"github.com/mvp-joe/cakevars/internal/storage"
)

const fixtureRoot = "../../testdata/cake"

// copyFixture copies the fixture application into a temp directory so
// tests can edit it.
func copyFixture(t *testing.T) string {
	t.Helper()
	dst := t.TempDir()
	err := filepath.WalkDir(fixtureRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(fixtureRoot, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	require.NoError(t, err)
	return dst
}

type countingNotifier struct {
	count atomic.Int32
}

func (n *countingNotifier) Increment() { n.count.Add(1) }

func newTestIndexer(t *testing.T, root string, opts Options) (*Indexer, *sql.DB) {
	t.Helper()
	db := storage.NewTestDB(t)
	discovery, err := NewFileDiscovery(root, nil, nil)
	require.NoError(t, err)
	return New(db, discovery, opts), db
}

func TestIndexer_FullRun(t *testing.T) {
	t.Parallel()

	notifier := &countingNotifier{}
	idx, db := newTestIndexer(t, fixtureRoot, Options{Notifier: notifier})

	stats, err := idx.Index(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.FilesAdded)
	assert.Equal(t, 0, stats.FilesFailed)
	assert.Equal(t, 14, stats.Actions)
	assert.Greater(t, stats.Bindings, 0)
	assert.NotEmpty(t, stats.RunID)
	assert.Equal(t, int32(1), notifier.count.Load())

	reader := storage.NewFileReader(db)

	records, err := reader.Lookup("Admin:Users:edit")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "src/Controller/Admin/UsersController.php", records[0].FilePath)
	assert.ElementsMatch(t, []string{"user", "roles"}, records[0].Bindings.Names())

	app, err := reader.GetFile("src/Controller/AppController.php")
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, "App", app.Controller)

	keys, err := reader.KeysForVariable("users")
	require.NoError(t, err)
	assert.Equal(t, []extraction.CanonicalKey{"Admin:Users:index"}, keys)

	runID, err := storage.GetMetadata(db, storage.MetaLastRunID)
	require.NoError(t, err)
	assert.Equal(t, stats.RunID, runID)
}

func TestIndexer_NoChangesSecondRun(t *testing.T) {
	t.Parallel()

	notifier := &countingNotifier{}
	idx, db := newTestIndexer(t, fixtureRoot, Options{Notifier: notifier})

	_, err := idx.Index(context.Background(), nil)
	require.NoError(t, err)
	stats, err := idx.Index(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.FilesAdded+stats.FilesModified+stats.FilesDeleted)
	assert.Equal(t, 3, stats.FilesUnchanged)
	assert.Equal(t, int32(1), notifier.count.Load())

	indexStats, err := storage.NewFileReader(db).Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, indexStats.Files)
	assert.Equal(t, 14, indexStats.Actions)
}

func TestIndexer_EditAndDelete(t *testing.T) {
	t.Parallel()

	root := copyFixture(t)
	idx, db := newTestIndexer(t, root, Options{})
	_, err := idx.Index(context.Background(), nil)
	require.NoError(t, err)

	users := filepath.Join(root, "src", "Controller", "Admin", "UsersController.php")
	require.NoError(t, os.WriteFile(users, []byte(`<?php
class UsersController extends AppController
{
    public function view()
    {
        $this->set('profile', $this->Users->get(1));
    }
}
`), 0o644))
	require.NoError(t, os.Remove(filepath.Join(root, "src", "Controller", "MovieController.php")))

	stats, err := idx.Index(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesModified)
	assert.Equal(t, 1, stats.FilesDeleted)
	assert.Equal(t, 1, stats.FilesUnchanged)

	reader := storage.NewFileReader(db)

	edit, err := reader.Lookup("Admin:Users:edit")
	require.NoError(t, err)
	assert.Empty(t, edit)

	view, err := reader.Lookup("Admin:Users:view")
	require.NoError(t, err)
	require.Len(t, view, 1)
	profile := view[0].Bindings["profile"]
	assert.Equal(t, extraction.VarKindPair, profile.VarKind)
	assert.Equal(t, extraction.SourceKindCall, profile.Handle.SourceKind)

	movie, err := reader.Lookup("Movie:index")
	require.NoError(t, err)
	assert.Empty(t, movie)
}

func TestIndexer_Hint(t *testing.T) {
	t.Parallel()

	root := copyFixture(t)
	idx, db := newTestIndexer(t, root, Options{})
	_, err := idx.Index(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "src", "Controller", "MovieController.php")))
	require.NoError(t, os.Remove(filepath.Join(root, "src", "Controller", "AppController.php")))

	stats, err := idx.Index(context.Background(), []string{"src/Controller/MovieController.php", "README.md"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesDeleted)

	hashes, err := storage.NewFileReader(db).FileHashes()
	require.NoError(t, err)
	assert.Contains(t, hashes, "src/Controller/AppController.php")
	assert.NotContains(t, hashes, "src/Controller/MovieController.php")
}

func TestIndexer_Cancelled(t *testing.T) {
	t.Parallel()

	idx, db := newTestIndexer(t, fixtureRoot, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.Index(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)

	hashes, err := storage.NewFileReader(db).FileHashes()
	require.NoError(t, err)
	assert.Empty(t, hashes)
}

func TestIndexer_WorkerCountIndependent(t *testing.T) {
	t.Parallel()

	single, singleDB := newTestIndexer(t, fixtureRoot, Options{Workers: 1})
	parallel, parallelDB := newTestIndexer(t, fixtureRoot, Options{Workers: 8})

	_, err := single.Index(context.Background(), nil)
	require.NoError(t, err)
	_, err = parallel.Index(context.Background(), nil)
	require.NoError(t, err)

	for _, path := range []string{"src/Controller/MovieController.php", "src/Controller/Admin/UsersController.php"} {
		a, err := storage.NewFileReader(singleDB).FileEntries(path)
		require.NoError(t, err)
		b, err := storage.NewFileReader(parallelDB).FileEntries(path)
		require.NoError(t, err)
		assert.Equal(t, a, b, path)
	}
}
