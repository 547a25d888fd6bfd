package lockfile

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ReleaseAll releases every lock file found directly under scope whose
// name ends in ".lock", regardless of ownership. Used by Error Recovery's
// unconditional, idempotent lock release (spec.md §4.8 step 1).
func (m *Manager) ReleaseAll(scope string) error {
	entries, err := os.ReadDir(scope)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".lock") {
			continue
		}
		p := filepath.Join(scope, e.Name())
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// CleanupStaleLocks scans the given lock directories (typically a
// per-user and a per-project directory) and unlinks any record whose
// owning process is dead or whose timestamp exceeds StaleThreshold.
func (m *Manager) CleanupStaleLocks(dirs ...string) (removed int, err error) {
	now := time.Now()
	for _, dir := range dirs {
		entries, readErr := os.ReadDir(dir)
		if readErr != nil {
			if os.IsNotExist(readErr) {
				continue
			}
			return removed, readErr
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".lock") {
				continue
			}
			p := filepath.Join(dir, e.Name())
			rec, readErr := readRecord(p)
			if readErr != nil {
				continue // unreadable record: leave it, not this sweep's job
			}
			if rec.stale(now) {
				if rmErr := os.Remove(p); rmErr == nil {
					removed++
				}
			}
		}
	}
	return removed, nil
}
