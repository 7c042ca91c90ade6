package cache

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// ModificationTracker is a Signal driven by the host: it is armed once its
// arm check passes and its version advances on every Increment.
type ModificationTracker struct {
	arm func() bool

	mu        sync.Mutex
	evaluated bool
	armed     bool

	version atomic.Uint64
}

// NewModificationTracker creates a tracker whose armed state is decided by
// arm on first use. A nil arm is always armed.
func NewModificationTracker(arm func() bool) *ModificationTracker {
	return &ModificationTracker{arm: arm}
}

// IsArmed reports whether caching may be applied.
func (t *ModificationTracker) IsArmed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.evaluated {
		t.armed = t.arm == nil || t.arm()
		t.evaluated = true
	}
	return t.armed
}

// Version returns the modification counter.
func (t *ModificationTracker) Version() uint64 {
	return t.version.Load()
}

// Increment records a project modification.
func (t *ModificationTracker) Increment() {
	t.version.Add(1)
}

// Rearm forgets the armed decision so the next IsArmed re-runs the check,
// and advances the version so nothing cached before is reused.
func (t *ModificationTracker) Rearm() {
	t.mu.Lock()
	t.evaluated = false
	t.mu.Unlock()
	t.Increment()
}

// ControllerDirArm returns an arm check that passes when projectRoot looks
// like a CakePHP application (it has src/Controller).
func ControllerDirArm(projectRoot string) func() bool {
	return func() bool {
		info, err := os.Stat(filepath.Join(projectRoot, "src", "Controller"))
		return err == nil && info.IsDir()
	}
}
