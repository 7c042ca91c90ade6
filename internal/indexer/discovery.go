package indexer

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultIncludePatterns match controller class files in the application
// and in plugins.
var DefaultIncludePatterns = []string{"**/Controller/**Controller.php"}

// DefaultIgnorePatterns skip dependency and scratch directories.
var DefaultIgnorePatterns = []string{"vendor/**", "node_modules/**", "tmp/**", "logs/**", ".git/**"}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// FileDiscovery finds controller files with glob patterns and ignore rules.
// The project's root .gitignore, when present, is honored as well.
// Paths it returns are relative to the root, with forward slashes.
type FileDiscovery struct {
	rootDir         string
	includePatterns []compiledPattern
	ignorePatterns  []compiledPattern
	gitignore       *ignore.GitIgnore
}

// NewFileDiscovery creates a new file discovery instance. Nil pattern
// lists use the defaults.
func NewFileDiscovery(rootDir string, includePatterns, ignorePatterns []string) (*FileDiscovery, error) {
	if includePatterns == nil {
		includePatterns = DefaultIncludePatterns
	}
	if ignorePatterns == nil {
		ignorePatterns = DefaultIgnorePatterns
	}

	include, err := compilePatterns(includePatterns)
	if err != nil {
		return nil, err
	}
	ignored, err := compilePatterns(ignorePatterns)
	if err != nil {
		return nil, err
	}

	return &FileDiscovery{
		rootDir:         rootDir,
		includePatterns: include,
		ignorePatterns:  ignored,
		gitignore:       loadGitignore(rootDir),
	}, nil
}

// loadGitignore loads .gitignore from root if it exists
func loadGitignore(root string) *ignore.GitIgnore {
	gitignorePath := filepath.Join(root, ".gitignore")

	if _, err := os.Stat(gitignorePath); err == nil {
		if gitignore, err := ignore.CompileIgnoreFile(gitignorePath); err == nil {
			return gitignore
		}
	}

	return nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledPattern{pattern: pattern, glob: g})
	}
	return compiled, nil
}

// RootDir returns the directory discovery walks.
func (fd *FileDiscovery) RootDir() string {
	return fd.rootDir
}

// DiscoverFiles walks the directory tree and returns matching files in
// lexical order.
func (fd *FileDiscovery) DiscoverFiles() ([]string, error) {
	files := []string{}

	err := filepath.WalkDir(fd.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := fd.relative(path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if relPath != "." && (fd.shouldIgnore(relPath) || fd.gitignored(relPath, true)) {
				return filepath.SkipDir
			}
			return nil
		}

		if fd.Matches(relPath) {
			files = append(files, relPath)
		}
		return nil
	})

	return files, err
}

// Matches reports whether a root-relative path is a file discovery would
// return.
func (fd *FileDiscovery) Matches(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	return !fd.shouldIgnore(relPath) && !fd.gitignored(relPath, false) &&
		fd.matchesAnyPattern(relPath, fd.includePatterns)
}

// ShouldWatchDir reports whether a directory (root-relative) may contain
// files of interest.
func (fd *FileDiscovery) ShouldWatchDir(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	return relPath == "." || (!fd.shouldIgnore(relPath) && !fd.gitignored(relPath, true))
}

// gitignored reports whether the project's .gitignore excludes relPath.
// Directory-only rules ("build/") need the trailing slash to match.
func (fd *FileDiscovery) gitignored(relPath string, isDir bool) bool {
	if fd.gitignore == nil {
		return false
	}
	if fd.gitignore.MatchesPath(relPath) {
		return true
	}
	return isDir && fd.gitignore.MatchesPath(relPath+"/")
}

func (fd *FileDiscovery) relative(path string) (string, error) {
	relPath, err := filepath.Rel(fd.rootDir, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(relPath), nil
}

// shouldIgnore checks if a path matches any ignore pattern.
func (fd *FileDiscovery) shouldIgnore(relPath string) bool {
	// Always ignore the tool's own directory
	if strings.HasPrefix(relPath, ".cakevars/") || relPath == ".cakevars" {
		return true
	}

	if fd.matchesAnyPattern(relPath, fd.ignorePatterns) {
		return true
	}

	// A directory "vendor" should match pattern "vendor/**"
	return fd.matchesAnyPattern(relPath+"/**", fd.ignorePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func (fd *FileDiscovery) matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// "**/x" also matches "x" at the root.
	for _, cp := range patterns {
		if !strings.HasPrefix(cp.pattern, "**/") {
			continue
		}
		simplified := strings.TrimPrefix(cp.pattern, "**/")
		if g, err := glob.Compile(simplified, '/'); err == nil && g.Match(path) {
			return true
		}
	}

	return false
}
