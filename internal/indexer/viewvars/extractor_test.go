package viewvars

import (
	"context"
	"sync"
	"testing"

	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
	"github.com/mvp-joe/cakevars/internal/indexer/parsers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Extractor:
// - Every eligible method of the fixture controller gets an entry, including empty ones
// - Lifecycle hooks (any case) produce no entry even when they call set()
// - Private and protected methods are skipped; methods without a modifier are public
// - Canonical keys carry the directory prefix below Controller
// - Files whose base name ends in the test suffix are skipped entirely
// - Extraction is repeatable and safe to run concurrently on a shared tree

const movieController = "../../../testdata/cake/src/Controller/MovieController.php"
const usersController = "../../../testdata/cake/src/Controller/Admin/UsersController.php"

func extractFixture(t *testing.T, path string) extraction.FileBindings {
	t.Helper()
	tree, err := parsers.NewPhpParser().ParseFile(context.Background(), path)
	require.NoError(t, err)
	id, ok := Identify(path)
	require.True(t, ok)
	return NewExtractor("").ExtractFile(tree, id)
}

func TestExtractFile_MovieController(t *testing.T) {
	t.Parallel()

	entries := extractFixture(t, movieController)

	var keys []string
	for k := range entries {
		keys = append(keys, string(k))
	}
	assert.ElementsMatch(t, []string{
		"Movie:index",
		"Movie:artist",
		"Movie:meta",
		"Movie:directCall",
		"Movie:arrayVariety",
		"Movie:tuple",
		"Movie:variableArray",
		"Movie:variableCompact",
		"Movie:variablePair",
		"Movie:mixedTuple",
		"Movie:reassigned",
		"Movie:implicitPublic",
	}, keys)

	assert.Empty(t, entries["Movie:meta"])
	assert.NotNil(t, entries["Movie:meta"])

	index := entries["Movie:index"]
	assert.Equal(t, extraction.SourceKindLocal, index["movies"].Handle.SourceKind)
	assert.Equal(t, "All Movies", index["title"].Handle.SymbolName)

	assert.ElementsMatch(t, []string{"moviesTable", "metadata"}, entries["Movie:artist"].Names())

	direct := entries["Movie:directCall"]
	assert.Equal(t, extraction.SourceKindCall, direct["moviesTable"].Handle.SourceKind)
	assert.Equal(t, extraction.SourceKindProperty, direct["message"].Handle.SourceKind)
	assert.Equal(t, "statusMessage", direct["message"].Handle.SymbolName)
	assert.Equal(t, extraction.SourceKindLiteral, direct["total"].Handle.SourceKind)

	variety := entries["Movie:arrayVariety"]
	assert.ElementsMatch(t, []string{"title", "count", "total", "singleVar"}, variety.Names())
	assert.Equal(t, "count", variety["total"].Handle.SymbolName)

	assert.ElementsMatch(t, []string{"first", "second"}, entries["Movie:tuple"].Names())
	assert.Equal(t, extraction.VarKindVariableArray, entries["Movie:variableArray"]["vars"].VarKind)
	assert.Equal(t, extraction.VarKindMixedTuple, entries["Movie:variablePair"]["key_val_mixed_tuple"].VarKind)
	assert.Equal(t, extraction.VarKindMixedTuple, entries["Movie:mixedTuple"]["array_values_mixed_tuple"].VarKind)
	assert.Equal(t, "s", entries["Movie:reassigned"]["x"].Handle.SymbolName)
	assert.Equal(t, "Loud", entries["Movie:implicitPublic"]["shout"].Handle.SymbolName)

	for _, set := range entries {
		assert.NotContains(t, set, "ignoredInInitialize")
		assert.NotContains(t, set, "hidden")
	}
}

func TestExtractFile_PrefixedController(t *testing.T) {
	t.Parallel()

	entries := extractFixture(t, usersController)

	require.Contains(t, entries, extraction.CanonicalKey("Admin:Users:index"))
	require.Contains(t, entries, extraction.CanonicalKey("Admin:Users:edit"))
	assert.NotContains(t, entries, extraction.CanonicalKey("Admin:Users:beforeFilter"))

	edit := entries["Admin:Users:edit"]
	assert.Equal(t, extraction.SourceKindLocal, edit["user"].Handle.SourceKind)
	assert.Equal(t, extraction.SourceKindUnknown, edit["roles"].Handle.SourceKind)
	assert.Equal(t, extraction.VarKindCompact, entries["Admin:Users:index"]["users"].VarKind)
}

func TestExtractFile_LifecycleDenylist(t *testing.T) {
	t.Parallel()

	source := `<?php
class MovieController {
    public function BeforeRender() { $this->set('a', 1); }
    public function PAGINATE() { $this->set('b', 1); }
    public function redirect() { $this->set('c', 1); }
    public function view() { $this->set('d', 1); }
}`
	tree, err := parsers.NewPhpParser().Parse([]byte(source))
	require.NoError(t, err)

	entries := NewExtractor("").ExtractFile(tree, FileIdentity{
		Path:       "src/Controller/MovieController.php",
		Controller: extraction.ControllerPath{Name: "Movie"},
	})

	require.Len(t, entries, 1)
	assert.Contains(t, entries["Movie:view"], "d")
}

func TestExtractFile_SkipsTestFiles(t *testing.T) {
	t.Parallel()

	path := "../../../testdata/cake/tests/TestCase/Controller/MovieControllerTest.php"
	tree, err := parsers.NewPhpParser().ParseFile(context.Background(), path)
	require.NoError(t, err)

	entries := NewExtractor("").ExtractFile(tree, FileIdentity{
		Path:       path,
		Controller: extraction.ControllerPath{Name: "MovieControllerTest"},
	})
	assert.Empty(t, entries)

	custom := NewExtractor("Cest")
	assert.True(t, custom.IsTestFile("src/Controller/MovieCest.php"))
	assert.False(t, custom.IsTestFile("src/Controller/MovieControllerTest.php"))
}

func TestExtractFile_ConcurrentAndRepeatable(t *testing.T) {
	t.Parallel()

	tree, err := parsers.NewPhpParser().ParseFile(context.Background(), movieController)
	require.NoError(t, err)
	id, _ := Identify(movieController)
	extractor := NewExtractor("")
	want := extractor.ExtractFile(tree, id)

	var wg sync.WaitGroup
	results := make([]extraction.FileBindings, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = extractor.ExtractFile(tree, id)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestIsLifecycleMethod(t *testing.T) {
	t.Parallel()

	assert.True(t, IsLifecycleMethod("beforeFilter"))
	assert.True(t, IsLifecycleMethod("INITIALIZE"))
	assert.True(t, IsLifecycleMethod("setRequest"))
	assert.False(t, IsLifecycleMethod("index"))
	assert.False(t, IsLifecycleMethod("set"))
}
