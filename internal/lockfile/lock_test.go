package lockfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "settings.json.lock")
	m := NewManager()

	h, err := m.Acquire(p)
	require.NoError(t, err)
	require.FileExists(t, p)

	_, err = m.Acquire(p)
	require.ErrorIs(t, err, ErrAlreadyHeld)

	require.NoError(t, m.Release(h))
	require.NoFileExists(t, p)
}

func TestReleaseMissingFileIsNotError(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "missing.lock")
	m := NewManager()

	h, err := m.Acquire(p)
	require.NoError(t, err)
	require.NoError(t, os.Remove(p))

	require.NoError(t, m.Release(h))
}

func TestReleaseOwnershipMismatch(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "settings.json.lock")
	m := NewManager()

	h, err := m.Acquire(p)
	require.NoError(t, err)
	require.NoError(t, m.Release(h))

	h2, err := m.Acquire(p)
	require.NoError(t, err)

	// h is now stale relative to the new record at the same path.
	err = m.Release(h)
	require.ErrorIs(t, err, ErrOwnershipMismatch)

	require.NoError(t, m.Release(h2))
}

func TestAcquireReapsStaleLockFromDeadProcess(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "settings.json.lock")

	stale := record{ID: "dead-owner", ProcessID: 999999, Timestamp: time.Now()}
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p, data, 0o640))

	m := NewManager()
	h, err := m.Acquire(p)
	require.NoError(t, err)
	require.NotEqual(t, "dead-owner", h.ID)
}

func TestAcquireReapsStaleLockByAge(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "settings.json.lock")

	stale := record{ID: "old-owner", ProcessID: os.Getpid(), Timestamp: time.Now().Add(-2 * time.Hour)}
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p, data, 0o640))

	m := NewManager()
	h, err := m.Acquire(p)
	require.NoError(t, err)
	require.NotEqual(t, "old-owner", h.ID)
}

func TestWaitForLockSucceedsOnceReleased(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "settings.json.lock")
	m := NewManager()

	h, err := m.Acquire(p)
	require.NoError(t, err)

	go func() {
		time.Sleep(75 * time.Millisecond)
		_ = m.Release(h)
	}()

	_, ok := m.WaitForLock(p, time.Second)
	require.True(t, ok)
}

func TestWaitForLockTimesOut(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "settings.json.lock")
	m := NewManager()

	_, err := m.Acquire(p)
	require.NoError(t, err)

	_, ok := m.WaitForLock(p, 100*time.Millisecond)
	require.False(t, ok)
}

func TestCleanupStaleLocks(t *testing.T) {
	dir := t.TempDir()
	stalePath := filepath.Join(dir, "a.lock")
	livePath := filepath.Join(dir, "b.lock")

	stale := record{ID: "x", ProcessID: 999999, Timestamp: time.Now()}
	data, _ := json.Marshal(stale)
	require.NoError(t, os.WriteFile(stalePath, data, 0o640))

	m := NewManager()
	h, err := m.Acquire(livePath)
	require.NoError(t, err)
	defer m.Release(h)

	removed, err := m.CleanupStaleLocks(dir)
	require.NoError(t, err)
	require.Equal(t, 1, removed)
	require.NoFileExists(t, stalePath)
	require.FileExists(t, livePath)
}
