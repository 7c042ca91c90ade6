package git

// MockGitOps is a mock implementation of Operations for testing.
type MockGitOps struct {
	RemoteURL    string
	WorktreeRoot string
}

// NewMockGitOps creates a mock with sensible defaults.
func NewMockGitOps() *MockGitOps {
	return &MockGitOps{
		RemoteURL:    "https://github.com/user/repo.git",
		WorktreeRoot: "/tmp/test-repo",
	}
}

func (m *MockGitOps) GetRemoteURL(projectPath string) string {
	return m.RemoteURL
}

func (m *MockGitOps) GetWorktreeRoot(projectPath string) string {
	if m.WorktreeRoot == "" {
		return projectPath
	}
	return m.WorktreeRoot
}
