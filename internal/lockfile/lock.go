// Package lockfile implements the deployment core's cross-process
// file-advisory lock manager (spec.md §4.2). Unlike an OS flock, a lock
// here is a JSON record of who holds it and since when, so a stale lock
// (dead owner, or older than StaleThreshold) can be reaped by a later
// acquirer rather than outliving its process forever.
package lockfile

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// StaleThreshold is the age past which a lock is considered stale even if
// its owning process is still alive (spec.md §3 LockHandle invariant).
const StaleThreshold = time.Hour

// ErrAlreadyHeld is returned when a live, non-stale lock is already held.
var ErrAlreadyHeld = errors.New("lockfile: already held by another process")

// ErrOwnershipMismatch is returned by Release when the on-disk record's id
// does not match the handle being released.
var ErrOwnershipMismatch = errors.New("lockfile: on-disk lock id does not match handle")

// record is the on-disk JSON form of a held lock.
type record struct {
	ID        string    `json:"id"`
	ProcessID int       `json:"processId"`
	Timestamp time.Time `json:"timestamp"`
}

func (r record) stale(now time.Time) bool {
	return !isProcessRunning(r.ProcessID) || now.Sub(r.Timestamp) > StaleThreshold
}

// Manager acquires and releases locks for a single process. It holds no
// mutable state of its own beyond the PID it stamps into every handle it
// creates.
type Manager struct {
	pid int
}

// NewManager builds a lock Manager for the current process.
func NewManager() *Manager {
	return &Manager{pid: os.Getpid()}
}

// Acquire implements the protocol in spec.md §4.2: create the record if
// absent; if present and stale, unlink and retry once; otherwise fail with
// ErrAlreadyHeld.
func (m *Manager) Acquire(path string) (types.LockHandle, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return types.LockHandle{}, err
	}

	h, err := m.tryCreate(path)
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, os.ErrExist) {
		return types.LockHandle{}, err
	}

	existing, readErr := readRecord(path)
	if readErr != nil {
		if errors.Is(readErr, os.ErrNotExist) {
			// Lock was released between our failed create and this read; retry once.
			return m.tryCreate(path)
		}
		return types.LockHandle{}, readErr
	}

	if !existing.stale(time.Now()) {
		return types.LockHandle{}, ErrAlreadyHeld
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return types.LockHandle{}, err
	}
	return m.tryCreate(path)
}

func (m *Manager) tryCreate(path string) (types.LockHandle, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return types.LockHandle{}, err
	}
	defer f.Close()

	h := types.LockHandle{
		ID:        uuid.NewString(),
		FilePath:  path,
		ProcessID: m.pid,
		Timestamp: time.Now(),
	}
	rec := record{ID: h.ID, ProcessID: h.ProcessID, Timestamp: h.Timestamp}
	data, err := json.Marshal(rec)
	if err != nil {
		return types.LockHandle{}, err
	}
	if _, err := f.Write(data); err != nil {
		return types.LockHandle{}, err
	}
	return h, nil
}

// Release verifies the on-disk record still matches the handle and
// unlinks it. A missing file is not an error (spec.md §4.2).
func (m *Manager) Release(h types.LockHandle) error {
	existing, err := readRecord(h.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if existing.ID != h.ID {
		return ErrOwnershipMismatch
	}
	if err := os.Remove(h.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// IsLocked reports whether path is currently held by a live, non-stale lock.
func (m *Manager) IsLocked(path string) bool {
	rec, err := readRecord(path)
	if err != nil {
		return false
	}
	return !rec.stale(time.Now())
}

func readRecord(path string) (record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return record{}, err
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}, err
	}
	return rec, nil
}
