package cache

// Test Plan for Cache Key Calculation:
// - normalizeRemoteURL maps HTTPS, HTTP, SSH and already-normalized remotes to one form
// - hashString is deterministic and 16 hex characters long
// - GetCacheKey uses the "00000000" remote placeholder outside a git repository
// - GetCacheKey differs for different project roots
// - cacheKey is stable across clones sharing a remote and worktree path
// - IndexLocation places index.db under the cache root in a per-project directory

import (
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/cakevars/internal/git"
)

func TestNormalizeRemoteURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "HTTPS with .git suffix", input: "https://github.com/user/repo.git", expected: "github.com/user/repo"},
		{name: "HTTPS without .git suffix", input: "https://github.com/user/repo", expected: "github.com/user/repo"},
		{name: "SSH format", input: "git@github.com:user/repo.git", expected: "github.com/user/repo"},
		{name: "SSH URL", input: "ssh://git@github.com/user/repo.git", expected: "github.com/user/repo"},
		{name: "HTTP with .git", input: "http://github.com/user/repo.git", expected: "github.com/user/repo"},
		{name: "Already normalized", input: "github.com/user/repo", expected: "github.com/user/repo"},
		{name: "Self-hosted SSH", input: "git@git.company.com:team/repo.git", expected: "git.company.com/team/repo"},
		{name: "Whitespace", input: "  https://github.com/user/repo.git\n", expected: "github.com/user/repo"},
		{name: "Empty string", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, normalizeRemoteURL(tt.input))
		})
	}
}

func TestHashString(t *testing.T) {
	t.Parallel()

	hash := hashString("github.com/user/repo")
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{16}$`), hash)
	assert.Equal(t, hash, hashString("github.com/user/repo"))
	assert.NotEqual(t, hash, hashString("github.com/user/other"))
}

func TestGetCacheKey_NonGitDirectory(t *testing.T) {
	t.Parallel()

	dirA := t.TempDir()
	dirB := t.TempDir()

	keyA := GetCacheKey(dirA)
	keyB := GetCacheKey(dirB)

	assert.True(t, strings.HasPrefix(keyA, "00000000-"), "got %s", keyA)
	assert.Len(t, keyA, 17)
	assert.NotEqual(t, keyA, keyB)
	assert.Equal(t, keyA, GetCacheKey(dirA))
}

func TestCacheKey_WithMockGit(t *testing.T) {
	t.Parallel()

	https := git.NewMockGitOps()
	ssh := &git.MockGitOps{RemoteURL: "git@github.com:user/repo.git", WorktreeRoot: https.WorktreeRoot}

	key := cacheKey(https, "/anywhere")
	assert.Equal(t, key, cacheKey(ssh, "/elsewhere"))
	assert.Equal(t, hashString("github.com/user/repo")[:8], key[:8])

	moved := &git.MockGitOps{RemoteURL: https.RemoteURL, WorktreeRoot: "/tmp/other-checkout"}
	assert.NotEqual(t, key, cacheKey(moved, "/anywhere"))

	noRemote := &git.MockGitOps{}
	assert.True(t, strings.HasPrefix(cacheKey(noRemote, "/project"), "00000000-"))
	assert.Equal(t, hashString("/project")[:8], cacheKey(noRemote, "/project")[9:])
}

func TestIndexLocation(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	root := t.TempDir()

	location, err := IndexLocation(project, root)
	require.NoError(t, err)

	assert.Equal(t, "index.db", filepath.Base(location))
	assert.Equal(t, root, filepath.Dir(filepath.Dir(location)))
	assert.Equal(t, GetCacheKey(project), filepath.Base(filepath.Dir(location)))
}
