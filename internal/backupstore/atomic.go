// Package backupstore implements the deployment core's Backup Store
// (spec.md §4.3): timestamped file copies plus a manifest index, with
// dependency-ordered restore.
package backupstore

import (
	"os"
	"path/filepath"
)

// AtomicWrite is the exported form of atomicWrite, reused by the
// orchestrator for target-file writes during the Writing phase so every
// on-disk write in the core — backups, manifests, and deployed files
// alike — goes through the same crash-safe path.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	return atomicWrite(path, data, perm)
}

// atomicWrite writes data to path via a temp-file-then-rename, the same
// pattern the teacher's export manifest writer uses, so a crash mid-write
// never leaves a half-written backup or manifest behind.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	return os.Chmod(path, perm)
}
