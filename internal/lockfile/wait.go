package lockfile

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// pollInterval is the fixed small interval spec.md §4.2 mandates for
// WaitForLock's polling behavior. The fsnotify watch below is only a
// wake-up accelerant; the poll loop runs regardless so behavior stays
// identical on filesystems without inotify/kqueue/ReadDirectoryChanges
// support (e.g. some network mounts).
const pollInterval = 50 * time.Millisecond

// WaitForLock polls (accelerated by an fsnotify watch when available)
// until Acquire succeeds or timeout elapses. It never returns an error;
// failure to acquire within the timeout is reported as (handle, false).
func (m *Manager) WaitForLock(path string, timeout time.Duration) (types.LockHandle, bool) {
	deadline := time.Now().Add(timeout)

	wake := make(chan struct{}, 1)
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(path)); err == nil {
			go func() {
				for {
					select {
					case ev, ok := <-watcher.Events:
						if !ok {
							return
						}
						if filepath.Clean(ev.Name) == filepath.Clean(path) {
							select {
							case wake <- struct{}{}:
							default:
							}
						}
					case _, ok := <-watcher.Errors:
						if !ok {
							return
						}
					}
				}
			}()
		}
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if h, err := m.Acquire(path); err == nil {
			return h, true
		}
		if !time.Now().Before(deadline) {
			return types.LockHandle{}, false
		}
		select {
		case <-wake:
		case <-ticker.C:
		}
	}
}
