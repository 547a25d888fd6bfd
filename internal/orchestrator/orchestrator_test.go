package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/audit"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/backupstore"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/deployerr"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/lockfile"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/paths"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/perfmon"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/recovery"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

func newTestOrchestrator(t *testing.T, home string, transformers map[types.Platform]Transformer, validators []Validator) *Orchestrator {
	t.Helper()
	locks := lockfile.NewManager()
	p := paths.New(home)
	mon, err := perfmon.NewMonitor(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mon.Shutdown(context.Background()) })

	backups := func(platform types.Platform) *backupstore.Store {
		return backupstore.New(p.PlatformBackups(string(platform)))
	}

	return New(Config{
		Locks:       locks,
		Paths:       p,
		Backups:     backups,
		Audit:       audit.NewLogger(p.Audit()),
		Perf:        mon,
		Recovery:    recovery.New(locks, p, backups),
		Validators:  validators,
		Transformers: transformers,
	})
}

func settingsTransformer(path string, content []byte) map[types.Platform]Transformer {
	return map[types.Platform]Transformer{
		types.PlatformClaudeCode: TransformerFunc(func(ctx context.Context, deployCtx types.Context, opts types.DeploymentOptions) ([]types.TargetArtifact, error) {
			return []types.TargetArtifact{
				{Path: path, Component: types.ComponentSettings, Type: types.ArtifactJSON, Content: content},
			}, nil
		}),
	}
}

func TestDeployHappyPathWritesArtifacts(t *testing.T) {
	home := t.TempDir()
	target := filepath.Join(home, "settings.json")

	o := newTestOrchestrator(t, home, settingsTransformer(target, []byte(`{"theme":"dark"}`)), nil)

	result := o.Deploy(context.Background(), types.Context{}, types.DeploymentOptions{Platform: types.PlatformClaudeCode})

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Summary.FilesDeployed)
	assert.Contains(t, result.DeployedComponents, types.ComponentSettings)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark"}`, string(data))
}

func TestDeployValidateOnlySkipsWrites(t *testing.T) {
	home := t.TempDir()
	target := filepath.Join(home, "settings.json")

	o := newTestOrchestrator(t, home, settingsTransformer(target, []byte(`{"theme":"dark"}`)), nil)

	result := o.Deploy(context.Background(), types.Context{}, types.DeploymentOptions{
		Platform: types.PlatformClaudeCode, ValidateOnly: true,
	})

	assert.True(t, result.Success)
	_, err := os.Stat(target)
	assert.True(t, os.IsNotExist(err))
}

func TestDeploySecurityViolationIsFatalRegardlessOfForce(t *testing.T) {
	home := t.TempDir()
	target := filepath.Join(home, "settings.json")

	blocker := ValidatorFunc(func(ctx context.Context, deployCtx types.Context, opts types.DeploymentOptions) error {
		return deployerr.New(deployerr.SecurityViolation, "scan flagged a secret in context")
	})
	o := newTestOrchestrator(t, home, settingsTransformer(target, []byte(`{}`)), []Validator{blocker})

	result := o.Deploy(context.Background(), types.Context{}, types.DeploymentOptions{
		Platform: types.PlatformClaudeCode, Force: true,
	})

	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, string(deployerr.SecurityViolation), result.Errors[0].Code)
	_, err := os.Stat(target)
	assert.True(t, os.IsNotExist(err))
}

func TestDeployForceOverridesOrdinaryValidationFailure(t *testing.T) {
	home := t.TempDir()
	target := filepath.Join(home, "settings.json")

	failing := ValidatorFunc(func(ctx context.Context, deployCtx types.Context, opts types.DeploymentOptions) error {
		return deployerr.New(deployerr.ValidationFailed, "schema mismatch")
	})
	o := newTestOrchestrator(t, home, settingsTransformer(target, []byte(`{}`)), []Validator{failing})

	result := o.Deploy(context.Background(), types.Context{}, types.DeploymentOptions{
		Platform: types.PlatformClaudeCode, Force: true,
	})

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.Warnings)
}

func TestDeployConflictResolutionMergesJSON(t *testing.T) {
	home := t.TempDir()
	target := filepath.Join(home, "settings.json")
	require.NoError(t, os.WriteFile(target, []byte(`{"theme":"light","keep":true}`), 0o644))

	o := newTestOrchestrator(t, home, settingsTransformer(target, []byte(`{"theme":"dark"}`)), nil)

	result := o.Deploy(context.Background(), types.Context{}, types.DeploymentOptions{Platform: types.PlatformClaudeCode})

	assert.True(t, result.Success)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, types.ResolutionMerged, result.Conflicts[0].Resolution)

	var merged map[string]interface{}
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &merged))
	assert.Equal(t, "dark", merged["theme"])
	assert.Equal(t, true, merged["keep"])
}

func TestDeployBackupFailureTriggersRollbackBeforeAnyWrite(t *testing.T) {
	home := t.TempDir()
	good := filepath.Join(home, "settings.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"theme":"light"}`), 0o644))

	// A target path that is actually a directory cannot be backed up, so
	// the backup phase fails fatally and rollback runs before any artifact
	// is written.
	badDir := filepath.Join(home, "hooks.json")
	require.NoError(t, os.MkdirAll(badDir, 0o755))

	transformers := map[types.Platform]Transformer{
		types.PlatformClaudeCode: TransformerFunc(func(ctx context.Context, deployCtx types.Context, opts types.DeploymentOptions) ([]types.TargetArtifact, error) {
			return []types.TargetArtifact{
				{Path: good, Component: types.ComponentSettings, Type: types.ArtifactJSON, Content: []byte(`{"theme":"dark"}`)},
				{Path: badDir, Component: types.ComponentHooks, Type: types.ArtifactJSON, Content: []byte(`{}`)},
			}, nil
		}),
	}
	o := newTestOrchestrator(t, home, transformers, nil)

	result := o.Deploy(context.Background(), types.Context{}, types.DeploymentOptions{
		Platform: types.PlatformClaudeCode, BackupEnabled: true,
	})

	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)

	data, err := os.ReadFile(good)
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"light"}`, string(data))
}

func TestFilterArtifactsHonorsComponentsAndSkip(t *testing.T) {
	artifacts := []types.TargetArtifact{
		{Component: types.ComponentSettings},
		{Component: types.ComponentHooks},
		{Component: types.ComponentAgents},
	}
	filtered := filterArtifacts(artifacts, types.DeploymentOptions{
		Components:     map[types.Component]bool{types.ComponentSettings: true, types.ComponentHooks: true},
		SkipComponents: map[types.Component]bool{types.ComponentHooks: true},
	})
	require.Len(t, filtered, 1)
	assert.Equal(t, types.ComponentSettings, filtered[0].Component)
}

func TestOrderArtifactsRespectsComponentDependencies(t *testing.T) {
	artifacts := []types.TargetArtifact{
		{Component: types.ComponentHooks, Dependencies: []types.Component{types.ComponentSettings}},
		{Component: types.ComponentSettings},
	}
	ordered := orderArtifacts(artifacts)
	require.Len(t, ordered, 2)
	assert.Equal(t, types.ComponentSettings, ordered[0].Component)
	assert.Equal(t, types.ComponentHooks, ordered[1].Component)
}

func TestAsErrorDetailWrapsPlainErrors(t *testing.T) {
	detail := asErrorDetail(errors.New("boom"))
	assert.Equal(t, string(deployerr.InternalInvariant), detail.Code)
	assert.Equal(t, "boom", detail.Message)
}
