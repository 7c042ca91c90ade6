// Package git reads the repository facts that identify a project's index.
package git

import (
	"os/exec"
	"strings"
)

// Operations defines the git queries the cache key depends on.
// This allows mocking git commands in tests.
type Operations interface {
	// GetRemoteURL returns the git remote URL.
	// Tries 'origin' first, then falls back to first available remote.
	// Returns empty string if no remote configured.
	GetRemoteURL(projectPath string) string

	// GetWorktreeRoot returns the git worktree root path.
	// Falls back to projectPath if not a git repository.
	GetWorktreeRoot(projectPath string) string
}

// gitOps is the real implementation using exec.Command.
type gitOps struct{}

// NewOperations returns the default git operations implementation.
func NewOperations() Operations {
	return &gitOps{}
}

func (g *gitOps) GetRemoteURL(projectPath string) string {
	if url, err := output(projectPath, "remote", "get-url", "origin"); err == nil {
		return url
	}

	remotes, err := output(projectPath, "remote")
	if err != nil || remotes == "" {
		return ""
	}
	first := strings.Split(remotes, "\n")[0]
	url, _ := output(projectPath, "remote", "get-url", first)
	return url
}

func (g *gitOps) GetWorktreeRoot(projectPath string) string {
	root, err := output(projectPath, "rev-parse", "--show-toplevel")
	if err != nil || root == "" {
		return projectPath
	}
	return root
}

func output(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
