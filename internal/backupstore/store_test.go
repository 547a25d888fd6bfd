package backupstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

func TestCreateBackupAndRollback(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(original, []byte(`{"a":1}`), 0o644))

	store := New(filepath.Join(dir, "backups"))
	backupPath, err := store.CreateBackup(original)
	require.NoError(t, err)
	require.FileExists(t, backupPath)

	require.NoError(t, os.WriteFile(original, []byte(`{"a":2}`), 0o644))

	require.NoError(t, store.Rollback(backupPath))
	data, err := os.ReadFile(original)
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, string(data))
}

func TestRollbackWithDependenciesBreaksCycles(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	fileA := filepath.Join(dir, "a.json")
	fileB := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(fileA, []byte("a-new"), 0o644))
	require.NoError(t, os.WriteFile(fileB, []byte("b-new"), 0o644))

	backupA := filepath.Join(dir, "backup_a.bak")
	backupB := filepath.Join(dir, "backup_b.bak")
	require.NoError(t, os.WriteFile(backupA, []byte("a-old"), 0o644))
	require.NoError(t, os.WriteFile(backupB, []byte("b-old"), 0o644))

	manifest := types.BackupManifest{
		ID:        "dep-123",
		Timestamp: time.Now(),
		Platform:  types.PlatformClaudeCode,
		Components: map[string]types.BackupComponentEntry{
			"a": {OriginalPath: fileA, BackupPath: backupA, Dependencies: []string{"b"}},
			"b": {OriginalPath: fileB, BackupPath: backupB, Dependencies: []string{"a"}},
		},
	}
	manifestPath, err := store.WriteManifest(manifest)
	require.NoError(t, err)

	require.NoError(t, store.RollbackWithDependencies(manifestPath, "a"))

	dataA, _ := os.ReadFile(fileA)
	dataB, _ := os.ReadFile(fileB)
	require.Equal(t, "a-old", string(dataA))
	require.Equal(t, "b-old", string(dataB))
}

func TestRollbackComponentNotInManifest(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	manifest := types.BackupManifest{ID: "x", Components: map[string]types.BackupComponentEntry{}}
	manifestPath, err := store.WriteManifest(manifest)
	require.NoError(t, err)

	err = store.RollbackComponent(manifestPath, "missing")
	require.Error(t, err)
}

func TestCleanupOldBackupsRemovesOnlyStale(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	fresh := filepath.Join(dir, "backup_fresh.bak")
	stale := filepath.Join(dir, "backup_stale.bak")
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))

	oldTime := time.Now().Add(-10 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(stale, oldTime, oldTime))

	removed, failures, err := store.CleanupOldBackups(5)
	require.NoError(t, err)
	require.Empty(t, failures)
	require.Equal(t, 1, removed)
	require.NoFileExists(t, stale)
	require.FileExists(t, fresh)
}

func TestListBackupsHumanizesSize(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "backup_1.bak"), make([]byte, 2048), 0o644))

	infos, err := store.ListBackups()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, int64(2048), infos[0].SizeBytes)
	require.NotEmpty(t, infos[0].Size)
}

func TestRestoreByBackupID(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	file := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(file, []byte("new"), 0o644))
	backup := filepath.Join(dir, "backup_x.bak")
	require.NoError(t, os.WriteFile(backup, []byte("old"), 0o644))

	manifest := types.BackupManifest{
		ID: "deploy-1",
		Components: map[string]types.BackupComponentEntry{
			"settings": {OriginalPath: file, BackupPath: backup},
		},
	}
	_, err := store.WriteManifest(manifest)
	require.NoError(t, err)

	require.NoError(t, store.Restore("deploy-1"))
	data, _ := os.ReadFile(file)
	require.Equal(t, "old", string(data))
}
