package backupstore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/deployerr"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// BackupInfo is one entry in ListBackups' output.
type BackupInfo struct {
	Path       string
	SizeBytes  int64
	Size       string
	ModifiedAt time.Time
}

// ListBackups enumerates every "backup_*" file directly under the
// store's directory, with human-readable sizes via go-humanize.
func (s *Store) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, deployerr.Wrap(deployerr.BackupReadFailed, "list backup directory", err).
			WithComponent("backupstore").WithFilePath(s.Dir)
	}

	infos := make([]BackupInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "backup_") {
			continue
		}
		path := filepath.Join(s.Dir, e.Name())
		stat, err := os.Stat(path)
		if err != nil {
			continue
		}
		infos = append(infos, BackupInfo{
			Path:       path,
			SizeBytes:  stat.Size(),
			Size:       humanize.Bytes(uint64(stat.Size())),
			ModifiedAt: stat.ModTime(),
		})
	}
	return infos, nil
}

// CleanupOldBackups stats every backup file in parallel and unlinks
// those older than days*24h. A stat or removal failure on one file is
// recorded but does not abort the sweep (spec.md §4.3).
func (s *Store) CleanupOldBackups(days int) (removed int, failures []error, err error) {
	entries, readErr := os.ReadDir(s.Dir)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return 0, nil, nil
		}
		return 0, nil, deployerr.Wrap(deployerr.BackupReadFailed, "list backup directory", readErr).
			WithComponent("backupstore").WithFilePath(s.Dir)
	}

	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)

	var mu sync.Mutex
	var g errgroup.Group
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "backup_") {
			continue
		}
		path := filepath.Join(s.Dir, e.Name())
		g.Go(func() error {
			stat, statErr := os.Stat(path)
			if statErr != nil {
				mu.Lock()
				failures = append(failures, statErr)
				mu.Unlock()
				return nil
			}
			if stat.ModTime().After(cutoff) {
				return nil
			}
			if rmErr := os.Remove(path); rmErr != nil {
				mu.Lock()
				failures = append(failures, rmErr)
				mu.Unlock()
				return nil
			}
			_ = os.Remove(manifestSidecarGuess(path))
			mu.Lock()
			removed++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // individual failures are collected, never aborting the sweep
	return removed, failures, nil
}

// manifestSidecarGuess returns the path of the paired single-file
// manifest alongside a backup being cleaned up, or "" when it cannot be
// derived. The caller removes it best-effort; a miss there is not a
// cleanup failure since the manifest may already be gone or may be part
// of a composite manifest shared by other still-live backups.
func manifestSidecarGuess(backupPath string) string {
	path, err := manifestPathForBackup(backupPath)
	if err != nil {
		return ""
	}
	return path
}

// Restore finds the composite manifest for backupID under dir and
// restores every component it records, threading one rolled-back set
// across the whole restore so shared dependencies are only written once.
func (s *Store) Restore(backupID string) error {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return deployerr.Wrap(deployerr.BackupReadFailed, "list backup directory", err).
			WithComponent("backupstore").WithFilePath(s.Dir)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "manifest_") {
			continue
		}
		path := filepath.Join(s.Dir, e.Name())
		manifest, err := s.GetBackupManifest(path)
		if err != nil {
			continue
		}
		if manifest.ID != backupID {
			continue
		}
		rolledBack := make(map[string]bool)
		for component := range manifest.Components {
			if err := s.rollbackDeps(manifest, types.Component(component), rolledBack); err != nil {
				return err
			}
		}
		return nil
	}
	return deployerr.New(deployerr.ManifestParseFailed, "no manifest found for backup id").
		WithComponent("backupstore").WithFilePath(backupID)
}
