package cache

// Test Plan for ModificationTracker:
// - The arm check runs lazily, once
// - A nil arm check is always armed
// - Increment advances Version
// - Rearm re-runs the arm check and advances Version
// - ControllerDirArm passes only when src/Controller exists

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModificationTracker_LazyArm(t *testing.T) {
	t.Parallel()

	calls := 0
	tracker := NewModificationTracker(func() bool {
		calls++
		return true
	})
	assert.Equal(t, 0, calls)

	assert.True(t, tracker.IsArmed())
	assert.True(t, tracker.IsArmed())
	assert.Equal(t, 1, calls)

	assert.True(t, NewModificationTracker(nil).IsArmed())
}

func TestModificationTracker_Version(t *testing.T) {
	t.Parallel()

	tracker := NewModificationTracker(nil)
	assert.Equal(t, uint64(0), tracker.Version())

	tracker.Increment()
	tracker.Increment()
	assert.Equal(t, uint64(2), tracker.Version())
}

func TestModificationTracker_Rearm(t *testing.T) {
	t.Parallel()

	armed := false
	tracker := NewModificationTracker(func() bool { return armed })
	assert.False(t, tracker.IsArmed())

	armed = true
	assert.False(t, tracker.IsArmed())

	tracker.Rearm()
	assert.True(t, tracker.IsArmed())
	assert.Equal(t, uint64(1), tracker.Version())
}

func TestControllerDirArm(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	arm := ControllerDirArm(root)
	assert.False(t, arm())

	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "Controller"), 0o755))
	assert.True(t, arm())
}
