package viewvars

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
	"github.com/mvp-joe/cakevars/internal/indexer/parsers"
)

// DefaultTestSuffix marks test case files, which are never indexed.
const DefaultTestSuffix = "Test"

// lifecycleMethods are framework hooks and helpers that never act as
// actions. Names are lower-case.
var lifecycleMethods = map[string]struct{}{
	"beforefilter":      {},
	"beforerender":      {},
	"afterfilter":       {},
	"initialize":        {},
	"implementedevents": {},
	"constructclasses":  {},
	"invokeaction":      {},
	"startupprocess":    {},
	"shutdownprocess":   {},
	"redirect":          {},
	"setaction":         {},
	"render":            {},
	"viewclasses":       {},
	"paginate":          {},
	"isaction":          {},
	"loadcomponent":     {},
	"setrequest":        {},
}

// IsLifecycleMethod reports whether name (any case) is a framework hook.
func IsLifecycleMethod(name string) bool {
	_, ok := lifecycleMethods[strings.ToLower(name)]
	return ok
}

// FileIdentity names the file being extracted and the controller it defines.
type FileIdentity struct {
	Path       string
	Controller extraction.ControllerPath
}

// Extractor turns a parsed controller file into per-action binding sets.
// It holds configuration only and is safe for concurrent use.
type Extractor struct {
	testSuffix string
}

// NewExtractor creates an extractor that skips files whose base name ends
// in testSuffix. An empty suffix uses DefaultTestSuffix.
func NewExtractor(testSuffix string) *Extractor {
	if testSuffix == "" {
		testSuffix = DefaultTestSuffix
	}
	return &Extractor{testSuffix: testSuffix}
}

// IsTestFile reports whether the file name, without extension, ends in the
// configured test suffix.
func (e *Extractor) IsTestFile(filePath string) bool {
	base := path.Base(filepath.ToSlash(filePath))
	return strings.HasSuffix(strings.TrimSuffix(base, path.Ext(base)), e.testSuffix)
}

// ExtractFile returns the bindings of every eligible action method in tree,
// keyed by canonical key. Each eligible method gets an entry even when it
// binds nothing.
func (e *Extractor) ExtractFile(tree *parsers.Tree, id FileIdentity) extraction.FileBindings {
	out := extraction.FileBindings{}
	if tree == nil || e.IsTestFile(id.Path) {
		return out
	}

	tree.Walk(tree.Root(), func(node parsers.NodeID) bool {
		if tree.Kind(node) != parsers.KindMethod {
			return true
		}
		name := tree.Text(tree.FieldChild(node, "name"))
		if name != "" && IsEligibleMethod(tree, node) {
			out[id.Controller.Key(name)] = ClassifyMethod(tree, node)
		}
		return false
	})
	return out
}

// IsEligibleMethod reports whether method is public, explicitly or by
// default, and not a lifecycle hook.
func IsEligibleMethod(tree *parsers.Tree, method parsers.NodeID) bool {
	if IsLifecycleMethod(tree.Text(tree.FieldChild(method, "name"))) {
		return false
	}
	for _, c := range tree.Children(method) {
		if tree.Kind(c) != parsers.KindVisibility {
			continue
		}
		switch strings.ToLower(tree.Text(c)) {
		case "private", "protected":
			return false
		}
	}
	return true
}
