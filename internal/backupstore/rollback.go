package backupstore

import (
	"encoding/json"
	"os"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/deployerr"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// Rollback restores the single file a backup_* file was taken from,
// looking up its original path in the paired manifest_* sidecar and
// writing the backup bytes back verbatim.
func (s *Store) Rollback(backupPath string) error {
	manifestPath, err := manifestPathForBackup(backupPath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return deployerr.Wrap(deployerr.BackupReadFailed, "read backup manifest", err).
			WithComponent("backupstore").WithFilePath(backupPath)
	}
	var sidecar singleFileManifest
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return deployerr.Wrap(deployerr.ManifestParseFailed, "parse backup manifest", err).
			WithComponent("backupstore").WithFilePath(manifestPath)
	}
	return restoreFile(backupPath, sidecar.OriginalPath)
}

// RollbackComponent restores a single named component from a composite
// deployment manifest.
func (s *Store) RollbackComponent(manifestPath string, component types.Component) error {
	manifest, err := s.GetBackupManifest(manifestPath)
	if err != nil {
		return err
	}
	entry, ok := manifest.Components[string(component)]
	if !ok {
		return deployerr.New(deployerr.ComponentNotInManifest, "component not present in manifest").
			WithComponent(string(component)).WithFilePath(manifestPath)
	}
	return restoreFile(entry.BackupPath, entry.OriginalPath)
}

// RollbackWithDependencies restores component and, first, every
// dependency it declares that has not yet been restored in this call.
// Each component is marked rolled-back on entry to the recursion (not on
// exit), which breaks dependency cycles: a component that depends on
// itself transitively is only ever restored once.
func (s *Store) RollbackWithDependencies(manifestPath string, component types.Component) error {
	manifest, err := s.GetBackupManifest(manifestPath)
	if err != nil {
		return err
	}
	rolledBack := make(map[string]bool)
	return s.rollbackDeps(manifest, component, rolledBack)
}

func (s *Store) rollbackDeps(manifest types.BackupManifest, component types.Component, rolledBack map[string]bool) error {
	key := string(component)
	if rolledBack[key] {
		return nil
	}
	rolledBack[key] = true

	entry, ok := manifest.Components[key]
	if !ok {
		return deployerr.New(deployerr.ComponentNotInManifest, "component not present in manifest").
			WithComponent(key)
	}
	for _, dep := range entry.Dependencies {
		if err := s.rollbackDeps(manifest, types.Component(dep), rolledBack); err != nil {
			return err
		}
	}
	return restoreFile(entry.BackupPath, entry.OriginalPath)
}

// restoreFile writes backupPath's bytes back to originalPath verbatim,
// atomically.
func restoreFile(backupPath, originalPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return deployerr.Wrap(deployerr.BackupReadFailed, "read backup for restore", err).
			WithFilePath(backupPath)
	}
	info, statErr := os.Stat(originalPath)
	perm := os.FileMode(0o644)
	if statErr == nil {
		perm = info.Mode().Perm()
	}
	if err := atomicWrite(originalPath, data, perm); err != nil {
		return deployerr.Wrap(deployerr.WriteFailed, "restore write failed", err).
			WithFilePath(originalPath)
	}
	return nil
}
