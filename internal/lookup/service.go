// Package lookup answers view-variable questions from the index.
package lookup

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/mvp-joe/cakevars/internal/cache"
	"github.com/mvp-joe/cakevars/internal/indexer"
	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
	"github.com/mvp-joe/cakevars/internal/indexer/parsers"
	"github.com/mvp-joe/cakevars/internal/indexer/viewvars"
	"github.com/mvp-joe/cakevars/internal/storage"
)

// Variable is one view variable as seen by a template.
type Variable struct {
	Name       string         `json:"name"`
	VarKind    string         `json:"var_kind"`
	SourceKind string         `json:"source_kind"`
	Symbol     string         `json:"symbol,omitempty"`
	Type       TypeDescriptor `json:"type"`
	File       string         `json:"file"`
	Offset     int            `json:"offset"`
	// Deferred marks a placeholder left unexpanded because its controller
	// changed since indexing. Its name is not a template variable.
	Deferred bool `json:"deferred,omitempty"`
}

// Service answers lookups for one project.
type Service struct {
	rootDir  string
	reader   *storage.FileReader
	parser   *parsers.PhpParser
	resolver TypeResolver
	exists   *cache.ResolutionCache[bool]
	signal   cache.Signal
}

// Options configures a Service. Zero values are usable.
type Options struct {
	Resolver TypeResolver
	// Signal gates the existence cache; nil disables caching.
	Signal   cache.Signal
	MaxFiles int
}

// NewService creates a lookup service over the index in db for the
// project at rootDir.
func NewService(rootDir string, db *sql.DB, opts Options) (*Service, error) {
	exists, err := cache.NewResolutionCache[bool](opts.MaxFiles)
	if err != nil {
		return nil, err
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = SyntacticResolver{}
	}
	return &Service{
		rootDir:  rootDir,
		reader:   storage.NewFileReader(db),
		parser:   parsers.NewPhpParser(),
		resolver: resolver,
		exists:   exists,
		signal:   opts.Signal,
	}, nil
}

// Close releases the service's cache.
func (s *Service) Close() {
	s.exists.Close()
}

// Variables returns the variables action key binds, sorted by name.
// Placeholder bindings are expanded by re-reading the controller; when the
// controller changed since it was indexed the placeholders are returned
// as they are. When several controller files define the key, the first
// file (by path) wins for a name bound by both.
func (s *Service) Variables(ctx context.Context, key extraction.CanonicalKey) ([]Variable, error) {
	records, err := s.reader.Lookup(key)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []Variable
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		set, err := s.resolve(ctx, record)
		if err != nil {
			return nil, err
		}
		for _, name := range set.Names() {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, s.variable(record.FilePath, set[name]))
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// VariablesForView is Variables for the action rendering viewPath.
func (s *Service) VariablesForView(ctx context.Context, viewPath string) ([]Variable, error) {
	key, ok := ControllerKeyForView(viewPath)
	if !ok {
		return nil, fmt.Errorf("%s is not an action template", viewPath)
	}
	return s.Variables(ctx, key)
}

// VariableExists reports whether the action rendering viewPath binds name.
// Answers are memoized per view file while the signal is armed.
func (s *Service) VariableExists(ctx context.Context, viewPath, name string) (bool, error) {
	key, ok := ControllerKeyForView(viewPath)
	if !ok {
		return false, nil
	}

	var lookupErr error
	found := s.exists.Lookup(s.viewFile(viewPath), string(key), name, s.signal, func(filenameKey, variableName string) bool {
		vars, err := s.Variables(ctx, extraction.CanonicalKey(filenameKey))
		if err != nil {
			lookupErr = err
			return false
		}
		for _, v := range vars {
			if !v.Deferred && v.Name == variableName {
				return true
			}
		}
		return false
	})
	if lookupErr != nil {
		// The memoized false is stale; drop it.
		s.exists.Invalidate(viewPath)
		return false, lookupErr
	}
	return found, nil
}

// ActionsForVariable returns the actions binding name, including names
// produced by placeholder bindings.
func (s *Service) ActionsForVariable(ctx context.Context, name string) ([]extraction.CanonicalKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.reader.KeysForVariable(name)
}

// resolve expands placeholders of one record when the controller on disk
// is the one that was indexed.
func (s *Service) resolve(ctx context.Context, record storage.ActionRecord) (extraction.BindingSet, error) {
	if !hasDeferred(record.Bindings) {
		return record.Bindings, nil
	}

	file, err := s.reader.GetFile(record.FilePath)
	if err != nil {
		return nil, err
	}
	source, err := os.ReadFile(filepath.Join(s.rootDir, filepath.FromSlash(record.FilePath)))
	if err != nil || file == nil || indexer.HashContent(source) != file.ContentHash {
		log.Printf("[lookup] %s changed since indexing; placeholders left unresolved\n", record.FilePath)
		return record.Bindings, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tree, err := s.parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", record.FilePath, err)
	}
	return viewvars.ResolveSet(tree, record.Bindings), nil
}

func (s *Service) variable(filePath string, b extraction.RawBinding) Variable {
	return Variable{
		Name:       b.VariableName,
		VarKind:    b.VarKind.String(),
		SourceKind: b.Handle.SourceKind.String(),
		Symbol:     b.Handle.SymbolName,
		Type:       s.resolver.ResolveType(b),
		File:       filePath,
		Offset:     b.Offset,
		Deferred:   b.VarKind.IsDeferred(),
	}
}

// viewFile stamps a view file with its size and modification time.
func (s *Service) viewFile(viewPath string) cache.File {
	abs := viewPath
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(s.rootDir, filepath.FromSlash(viewPath))
	}
	stamp := ""
	if info, err := os.Stat(abs); err == nil {
		stamp = fmt.Sprintf("%d-%d", info.Size(), info.ModTime().UnixNano())
	}
	return cache.File{Path: viewPath, Stamp: stamp}
}

func hasDeferred(set extraction.BindingSet) bool {
	for _, b := range set {
		if b.VarKind.IsDeferred() {
			return true
		}
	}
	return false
}
