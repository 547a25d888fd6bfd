package recovery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/backupstore"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/lockfile"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/paths"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

func newTestRecovery(t *testing.T, home string) *Recovery {
	t.Helper()
	locks := lockfile.NewManager()
	p := paths.New(home)
	return New(locks, p, func(platform types.Platform) *backupstore.Store {
		return backupstore.New(p.PlatformBackups(string(platform)))
	})
}

func TestRecoverFromFailureCleanupOnlyStopsEarly(t *testing.T) {
	home := t.TempDir()
	r := newTestRecovery(t, home)

	result := r.RecoverFromFailure(types.DeploymentResult{Platform: types.PlatformClaudeCode}, Options{CleanupOnly: true})
	assert.True(t, result.Success)
	assert.Empty(t, result.RecoveredComponents)
}

func TestRecoverFromFailureRestoresBackupAndReconciles(t *testing.T) {
	home := t.TempDir()
	r := newTestRecovery(t, home)

	platformDir := paths.New(home).PlatformBackups(string(types.PlatformClaudeCode))
	require.NoError(t, os.MkdirAll(platformDir, 0o750))

	original := filepath.Join(home, "settings.json")
	require.NoError(t, os.WriteFile(original, []byte("broken"), 0o644))
	backupPath := filepath.Join(platformDir, "backup_x.bak")
	require.NoError(t, os.WriteFile(backupPath, []byte("good"), 0o644))

	store := backupstore.New(platformDir)
	manifest := types.BackupManifest{
		ID: "deploy-1",
		Components: map[string]types.BackupComponentEntry{
			"settings": {OriginalPath: original, BackupPath: backupPath},
		},
	}
	_, err := store.WriteManifest(manifest)
	require.NoError(t, err)

	reconciled := map[types.Component]bool{}
	result := r.RecoverFromFailure(types.DeploymentResult{
		Platform:            types.PlatformClaudeCode,
		BackupManifestID:    "deploy-1",
		DeployedComponents:  []types.Component{types.ComponentSettings},
	}, Options{
		Reconcile: func(c types.Component) error {
			reconciled[c] = true
			return nil
		},
	})

	assert.True(t, result.Success)
	assert.Equal(t, "deploy-1", result.RestoredBackupID)
	assert.Contains(t, result.RecoveredComponents, types.ComponentSettings)
	assert.True(t, reconciled[types.ComponentSettings])

	data, _ := os.ReadFile(original)
	assert.Equal(t, "good", string(data))
}

func TestRecoverFromFailureReconcileErrorIsNonFatalButRecorded(t *testing.T) {
	home := t.TempDir()
	r := newTestRecovery(t, home)

	result := r.RecoverFromFailure(types.DeploymentResult{
		Platform:           types.PlatformClaudeCode,
		DeployedComponents: []types.Component{types.ComponentHooks},
	}, Options{
		Reconcile: func(c types.Component) error { return errors.New("path missing") },
	})

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors)
	assert.Empty(t, result.RecoveredComponents)
}

func TestValidateRecovery(t *testing.T) {
	result := Result{RecoveredComponents: []types.Component{types.ComponentSettings, types.ComponentHooks}}
	assert.True(t, ValidateRecovery(result, []types.Component{types.ComponentSettings}))
	assert.False(t, ValidateRecovery(result, []types.Component{types.ComponentAgents}))
}
