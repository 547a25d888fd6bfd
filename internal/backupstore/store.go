package backupstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/deployerr"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// TimeFormat names backup and manifest files: "backup_YYYYMMDD_HHMMSS.ext"
// / "manifest_YYYYMMDD_HHMMSS.json" (spec.md §4.3).
const TimeFormat = "20060102_150405"

// Store persists backups under a single base directory, typically
// paths.Paths.PlatformBackups(platform).
type Store struct {
	Dir string
}

// New builds a Store rooted at dir. The directory is created lazily on
// first write.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

// singleFileManifest is the per-file sidecar manifest written by
// CreateBackup, distinct from the composite BackupManifest a full
// deployment writes once via WriteManifest.
type singleFileManifest struct {
	OriginalPath string    `json:"originalPath"`
	BackupPath   string    `json:"backupPath"`
	Timestamp    time.Time `json:"timestamp"`
}

// backupName returns "backup_<ts><ext>" and its paired
// "manifest_<ts>.json" name, coupled by the textual backup_→manifest_
// substitution spec.md §9 calls out as preserved rather than fixed.
func backupName(ts time.Time, ext string) (backup, manifest string) {
	stamp := ts.Format(TimeFormat)
	backup = fmt.Sprintf("backup_%s%s", stamp, ext)
	manifest = fmt.Sprintf("manifest_%s.json", stamp)
	return backup, manifest
}

// CreateBackup copies originalPath's bytes into a new timestamped backup
// file under the store's directory and writes a paired single-file
// manifest recording where it came from. It returns the backup's path.
func (s *Store) CreateBackup(originalPath string) (string, error) {
	data, err := os.ReadFile(originalPath)
	if err != nil {
		return "", deployerr.Wrap(deployerr.BackupReadFailed, "read original for backup", err).
			WithComponent("backupstore").WithFilePath(originalPath)
	}

	ts := time.Now()
	backupFile, manifestFile := backupName(ts, filepath.Ext(originalPath))
	backupPath := filepath.Join(s.Dir, backupFile)
	manifestPath := filepath.Join(s.Dir, manifestFile)

	if err := atomicWrite(backupPath, data, 0o640); err != nil {
		return "", deployerr.Wrap(deployerr.BackupWriteFailed, "write backup copy", err).
			WithComponent("backupstore").WithFilePath(originalPath)
	}

	sidecar := singleFileManifest{OriginalPath: originalPath, BackupPath: backupPath, Timestamp: ts}
	sidecarJSON, err := json.MarshalIndent(sidecar, "", "  ")
	if err != nil {
		return "", deployerr.Wrap(deployerr.BackupWriteFailed, "marshal backup manifest", err).
			WithComponent("backupstore").WithFilePath(originalPath)
	}
	if err := atomicWrite(manifestPath, sidecarJSON, 0o640); err != nil {
		return "", deployerr.Wrap(deployerr.BackupWriteFailed, "write backup manifest", err).
			WithComponent("backupstore").WithFilePath(originalPath)
	}

	return backupPath, nil
}

// manifestPathForBackup derives a single-file manifest path from a
// backup path via the backup_→manifest_ filename substitution.
func manifestPathForBackup(backupPath string) (string, error) {
	base := filepath.Base(backupPath)
	if !strings.HasPrefix(base, "backup_") {
		return "", deployerr.New(deployerr.ManifestParseFailed, "not a recognized backup filename").
			WithComponent("backupstore").WithFilePath(backupPath)
	}
	stamp := strings.TrimPrefix(base, "backup_")
	stamp = strings.TrimSuffix(stamp, filepath.Ext(stamp))
	return filepath.Join(filepath.Dir(backupPath), "manifest_"+stamp+".json"), nil
}

// WriteManifest persists a composite, multi-component BackupManifest for
// a whole deployment under "manifest_<id>.json".
func (s *Store) WriteManifest(manifest types.BackupManifest) (string, error) {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", deployerr.Wrap(deployerr.BackupWriteFailed, "marshal deployment manifest", err).
			WithComponent("backupstore")
	}
	path := filepath.Join(s.Dir, fmt.Sprintf("manifest_%s.json", manifest.ID))
	if err := atomicWrite(path, data, 0o640); err != nil {
		return "", deployerr.Wrap(deployerr.BackupWriteFailed, "write deployment manifest", err).
			WithComponent("backupstore")
	}
	return path, nil
}

// GetBackupManifest reads and parses a composite BackupManifest file.
func (s *Store) GetBackupManifest(path string) (types.BackupManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.BackupManifest{}, deployerr.Wrap(deployerr.BackupReadFailed, "read manifest", err).
			WithComponent("backupstore").WithFilePath(path)
	}
	var manifest types.BackupManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return types.BackupManifest{}, deployerr.Wrap(deployerr.ManifestParseFailed, "parse manifest", err).
			WithComponent("backupstore").WithFilePath(path)
	}
	return manifest, nil
}
