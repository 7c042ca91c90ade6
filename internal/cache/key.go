package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/mvp-joe/cakevars/internal/git"
)

// gitOps is replaced in tests.
var gitOps = git.NewOperations()

// GetCacheKey returns the cache key for the project.
// The key combines git remote and worktree path to uniquely identify a project.
// Format: {remoteHash}-{worktreeHash} where each hash is 8 chars.
func GetCacheKey(projectPath string) string {
	return cacheKey(gitOps, projectPath)
}

func cacheKey(ops git.Operations, projectPath string) string {
	remoteHash := "00000000"
	if remote := ops.GetRemoteURL(projectPath); remote != "" {
		remoteHash = hashString(normalizeRemoteURL(remote))[:8]
	}
	return remoteHash + "-" + hashString(ops.GetWorktreeRoot(projectPath))[:8]
}

// DefaultCacheRoot returns ~/.cakevars/cache.
func DefaultCacheRoot() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cakevars", "cache")
}

// IndexLocation returns the path of the project's index database. An empty
// cacheRoot uses DefaultCacheRoot.
func IndexLocation(projectPath, cacheRoot string) (string, error) {
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project path: %w", err)
	}
	if cacheRoot == "" {
		cacheRoot = DefaultCacheRoot()
	}
	return filepath.Join(cacheRoot, GetCacheKey(abs), "index.db"), nil
}

// normalizeRemoteURL strips protocol, SSH user and .git suffix so that
// https and SSH remotes of one repository produce the same key.
// Examples:
//   - https://github.com/user/repo.git -> github.com/user/repo
//   - git@github.com:user/repo.git -> github.com/user/repo
func normalizeRemoteURL(remote string) string {
	remote = strings.TrimSpace(remote)
	for _, prefix := range []string{"https://", "http://", "ssh://", "git://"} {
		remote = strings.TrimPrefix(remote, prefix)
	}
	remote = strings.TrimSuffix(remote, ".git")
	if strings.HasPrefix(remote, "git@") {
		remote = strings.Replace(strings.TrimPrefix(remote, "git@"), ":", "/", 1)
	}
	return remote
}

// hashString returns the xxh3 hash of s as 16 hex characters.
func hashString(s string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(s))
}
