package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/hashstructure/v2"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/backupstore"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/conflict"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/deployerr"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/hooks"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/paths"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/recovery"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// Deploy drives deployCtx through the full state machine for one
// platform and returns the final result. It never panics on collaborator
// failure: every failure mode in spec.md §7 is converted to either a
// fatal transition (no writes attempted, or rollback of writes already
// made) or a recorded warning.
func (o *Orchestrator) Deploy(ctx context.Context, deployCtx types.Context, opts types.DeploymentOptions) types.DeploymentResult {
	deploymentID := uuid.NewString()
	result := types.DeploymentResult{Platform: opts.Platform, DeploymentID: deploymentID}

	if o.cfg.Perf != nil {
		o.cfg.Perf.StartDeployment(deploymentID)
		defer o.cfg.Perf.EndDeployment(deploymentID)
	}
	if o.cfg.Audit != nil {
		o.cfg.Audit.LogDeploymentStart(deploymentID, opts.Platform, opts)
	}
	if o.cfg.Hooks != nil {
		o.cfg.Hooks.Run(hooks.EventPreDeploy, result)
	}

	state := StateIdle

	// Idle -> Locked
	lockPath := paths.LockFile(filepath.Join(o.cfg.Paths.PlatformBackups(string(opts.Platform)), "deploy"))
	handle, err := o.cfg.Locks.Acquire(lockPath)
	if err != nil {
		result.Errors = append(result.Errors, asErrorDetail(
			deployerr.Wrap(deployerr.LockUnavailable, "acquire platform deployment lock", err).WithComponent("orchestrator")))
		o.finish(&result, false, StateFailedFatally)
		return result
	}
	state = StateLocked

	// Locked -> Validated
	if fatal := o.validate(ctx, deployCtx, opts, &result); fatal {
		_ = o.cfg.Locks.Release(handle)
		o.finish(&result, false, StateFailedFatally)
		return result
	}
	state = StateValidated

	// Validated -> Transformed
	artifacts, transformErr := o.transform(ctx, deployCtx, opts)
	if transformErr != nil {
		result.Errors = append(result.Errors, asErrorDetail(transformErr))
		_ = o.cfg.Locks.Release(handle)
		o.finish(&result, false, StateFailedFatally)
		return result
	}
	artifacts = filterArtifacts(artifacts, opts)
	state = StateTransformed

	if opts.ValidateOnly {
		o.finish(&result, true, StateDone)
		_ = o.cfg.Locks.Release(handle)
		state = StateDone
		_ = state
		return result
	}

	// Transformed -> BackedUp
	if opts.BackupEnabled {
		manifestID, backupErr := o.backup(deploymentID, deployCtx, opts, artifacts)
		if backupErr != nil {
			result.Errors = append(result.Errors, asErrorDetail(backupErr))
			state = StateRollingBack
			o.rollback(&result, handle, opts)
			return result
		}
		result.BackupManifestID = manifestID
	}
	state = StateBackedUp

	// BackedUp -> Writing
	if writeErr := o.write(deploymentID, opts, artifacts, &result); writeErr != nil {
		result.Errors = append(result.Errors, asErrorDetail(writeErr))
		state = StateRollingBack
		o.rollback(&result, handle, opts)
		return result
	}
	state = StateWriting

	// Writing -> Audited -> Done
	o.finish(&result, true, StateAudited)
	_ = o.cfg.Locks.Release(handle)
	state = StateDone
	_ = state
	return result
}

// validate runs every injected Validator and reports whether the
// deployment must stop fatally. A SecurityViolation is always fatal,
// never overridden by opts.Force (spec.md §7); any other validation
// failure is fatal unless opts.Force is set, in which case it is
// downgraded to a warning and the deployment proceeds.
func (o *Orchestrator) validate(ctx context.Context, deployCtx types.Context, opts types.DeploymentOptions, result *types.DeploymentResult) bool {
	for _, v := range o.cfg.Validators {
		if err := v.Validate(ctx, deployCtx, opts); err != nil {
			if deployerr.Is(err, deployerr.SecurityViolation) {
				result.Errors = append(result.Errors, asErrorDetail(err))
				return true
			}
			if !opts.Force {
				result.Errors = append(result.Errors, asErrorDetail(err))
				return true
			}
			result.Warnings = append(result.Warnings, types.WarningDetail{
				Code: string(deployerr.ValidationFailed), Message: fmt.Sprintf("validation failed but force=true: %v", err),
			})
		}
	}
	return false
}

func (o *Orchestrator) transform(ctx context.Context, deployCtx types.Context, opts types.DeploymentOptions) ([]types.TargetArtifact, error) {
	t, ok := o.cfg.Transformers[opts.Platform]
	if !ok {
		return nil, deployerr.New(deployerr.TransformationFailed, "no transformer registered for platform").
			WithComponent("orchestrator")
	}
	artifacts, err := t.Transform(ctx, deployCtx, opts)
	if err != nil {
		return nil, deployerr.Wrap(deployerr.TransformationFailed, "transform context to target artifacts", err).
			WithComponent("orchestrator")
	}
	return artifacts, nil
}

func filterArtifacts(artifacts []types.TargetArtifact, opts types.DeploymentOptions) []types.TargetArtifact {
	if len(opts.Components) == 0 && len(opts.SkipComponents) == 0 {
		return artifacts
	}
	out := make([]types.TargetArtifact, 0, len(artifacts))
	for _, a := range artifacts {
		if len(opts.Components) > 0 && !opts.Components[a.Component] {
			continue
		}
		if opts.SkipComponents[a.Component] {
			continue
		}
		out = append(out, a)
	}
	return out
}

// backup creates a backup entry for every artifact whose target path
// already exists and persists one composite manifest for the deployment.
func (o *Orchestrator) backup(deploymentID string, deployCtx types.Context, opts types.DeploymentOptions, artifacts []types.TargetArtifact) (string, error) {
	store := o.cfg.Backups(opts.Platform)
	manifest := types.BackupManifest{
		ID:        deploymentID,
		Timestamp: time.Now(),
		Platform:  opts.Platform,
		Components: make(map[string]types.BackupComponentEntry),
	}

	if hash, err := hashstructure.Hash(deployCtx, hashstructure.FormatV2, nil); err == nil {
		manifest.OriginalContextHash = fmt.Sprintf("%x", hash)
	}

	for _, a := range artifacts {
		if _, err := os.Stat(a.Path); err != nil {
			continue // nothing to back up; target doesn't exist yet
		}
		backupPath, err := store.CreateBackup(a.Path)
		if err != nil {
			return "", deployerr.Wrap(deployerr.BackupWriteFailed, "create backup entry", err).
				WithComponent(string(a.Component)).WithFilePath(a.Path)
		}
		deps := make([]string, 0, len(a.Dependencies))
		for _, d := range a.Dependencies {
			deps = append(deps, string(d))
		}
		entry := types.BackupComponentEntry{
			OriginalPath: a.Path, BackupPath: backupPath, Timestamp: time.Now(), Dependencies: deps,
		}
		manifest.Components[string(a.Component)] = entry
		manifest.Files = append(manifest.Files, types.BackupFileEntry{
			OriginalPath: a.Path, BackupPath: backupPath, Timestamp: entry.Timestamp,
		})
	}

	if len(manifest.Components) == 0 {
		return deploymentID, nil
	}
	if _, err := store.WriteManifest(manifest); err != nil {
		return "", err
	}
	return deploymentID, nil
}

// write resolves conflicts and writes every artifact in dependency order,
// recording per-file outcomes on result. The first fatal error aborts the
// whole phase so the caller can roll back.
func (o *Orchestrator) write(deploymentID string, opts types.DeploymentOptions, artifacts []types.TargetArtifact, result *types.DeploymentResult) error {
	deployed := make(map[types.Component]bool)

	for _, a := range orderArtifacts(artifacts) {
		if o.cfg.Perf != nil {
			o.cfg.Perf.StartComponent(deploymentID, a.Component)
		}

		priorContent, _ := os.ReadFile(a.Path) // nil when the target doesn't exist yet; fine for the diff below

		content, outcome, err := o.resolveArtifact(a, opts, result)
		if err != nil {
			if o.cfg.Perf != nil {
				o.cfg.Perf.EndComponent(deploymentID, a.Component)
			}
			return err
		}
		if content == nil {
			if o.cfg.Perf != nil {
				o.cfg.Perf.EndComponent(deploymentID, a.Component)
			}
			continue // skipped or prompt-pending: nothing written
		}

		if !opts.DryRun {
			if err := backupstore.AtomicWrite(a.Path, content, 0o644); err != nil {
				if o.cfg.Perf != nil {
					o.cfg.Perf.EndComponent(deploymentID, a.Component)
				}
				return deployerr.Wrap(deployerr.WriteFailed, "write target artifact", err).
					WithComponent(string(a.Component)).WithFilePath(a.Path)
			}
		}

		result.Summary.FilesDeployed++
		if !deployed[a.Component] {
			deployed[a.Component] = true
			result.DeployedComponents = append(result.DeployedComponents, a.Component)
		}
		o.auditComponentWrite(deploymentID, opts.Platform, a.Component, a.Type, priorContent, content, outcome)

		if o.cfg.Perf != nil {
			o.cfg.Perf.EndComponent(deploymentID, a.Component)
		}
	}
	return nil
}

// resolveArtifact detects and resolves any conflict for a single artifact,
// returning the content that should be written (nil if nothing should be)
// and a human-readable outcome label for the audit trail.
func (o *Orchestrator) resolveArtifact(a types.TargetArtifact, opts types.DeploymentOptions, result *types.DeploymentResult) ([]byte, string, error) {
	conflicts, err := conflict.DetectConflicts(a.Path, a.Content, a.Component)
	if err != nil {
		return nil, "", deployerr.Wrap(deployerr.ConflictUnresolvable, "detect conflict", err).
			WithComponent(string(a.Component)).WithFilePath(a.Path)
	}
	if len(conflicts) == 0 {
		return a.Content, "written", nil
	}

	strategy, mergeStrategy := opts.ConflictStrategy, opts.MergeStrategy
	if strategy == "" {
		suggestion := conflict.SuggestStrategy(conflicts, a.Component)
		strategy, mergeStrategy = suggestion.Strategy, suggestion.MergeStrategy
	}

	resolution, err := conflict.Resolve(a.Path, a.Content, a.Component, strategy, mergeStrategy)
	if err != nil {
		return nil, "", deployerr.Wrap(deployerr.ConflictUnresolvable, "resolve conflict", err).
			WithComponent(string(a.Component)).WithFilePath(a.Path)
	}

	result.Conflicts = append(result.Conflicts, types.ConflictRecord{
		Path: a.Path, Component: a.Component, Resolution: resolution.Resolution,
	})

	switch resolution.Resolution {
	case types.ResolutionSkipped:
		result.Summary.FilesSkipped++
		return nil, "skipped", nil
	case types.ResolutionPromptPending:
		result.Warnings = append(result.Warnings, types.WarningDetail{
			Code: string(deployerr.PromptRequired), Message: "conflict requires interactive resolution: " + a.Path,
		})
		return nil, "prompt-pending", nil
	default:
		result.Summary.ConflictsResolved++
		return resolution.Content, string(resolution.Resolution), nil
	}
}

// auditComponentWrite logs a written artifact, attaching a tree diff
// between priorContent and writtenContent when both sides parse as JSON
// (priorContent is nil for a file that didn't exist before this write).
func (o *Orchestrator) auditComponentWrite(deploymentID string, platform types.Platform, component types.Component, artifactType types.ArtifactType, priorContent, writtenContent []byte, outcome string) {
	if o.cfg.Audit == nil {
		return
	}
	if artifactType != types.ArtifactJSON || priorContent == nil {
		o.cfg.Audit.LogComponentDeployment(deploymentID, platform, component, outcome)
		return
	}

	var oldObj, newObj interface{}
	if json.Unmarshal(priorContent, &oldObj) != nil || json.Unmarshal(writtenContent, &newObj) != nil {
		o.cfg.Audit.LogComponentDeployment(deploymentID, platform, component, outcome)
		return
	}
	changes := o.cfg.Diff.Diff(oldObj, newObj)
	o.cfg.Audit.LogComponentDeploymentWithChanges(deploymentID, platform, component, outcome, changes)
}

// rollback invokes Error Recovery with the in-flight manifest id and
// folds its outcome into result; the deployment itself is never
// considered successful once rollback runs, even when recovery succeeds.
func (o *Orchestrator) rollback(result *types.DeploymentResult, handle types.LockHandle, opts types.DeploymentOptions) {
	if o.cfg.Audit != nil {
		o.cfg.Audit.LogRollback(result.DeploymentID, "fatal error during write phase")
	}
	if o.cfg.Hooks != nil {
		o.cfg.Hooks.Run(hooks.EventRollback, *result)
	}
	if o.cfg.Recovery == nil {
		_ = o.cfg.Locks.Release(handle)
		o.finish(result, false, StateFailedFatally)
		return
	}

	retentionDays := opts.RetentionDays
	if retentionDays <= 0 {
		retentionDays = o.cfg.RetentionDaysByPlatform[opts.Platform]
	}
	recoveryResult := o.cfg.Recovery.RecoverFromFailure(*result, recovery.Options{RetentionDays: retentionDays})
	for _, e := range recoveryResult.Errors {
		result.Errors = append(result.Errors, asErrorDetail(e))
	}

	finalState := StateFailedFatally
	if recoveryResult.Success {
		finalState = StateRecovered
	}
	o.finish(result, false, finalState)
}

func (o *Orchestrator) finish(result *types.DeploymentResult, success bool, _ State) {
	result.Success = success
	if o.cfg.Audit != nil {
		o.cfg.Audit.LogDeploymentComplete(result.DeploymentID, *result)
	}
	if o.cfg.Hooks != nil {
		event := hooks.EventPostDeployFailure
		if success {
			event = hooks.EventPostDeploySuccess
		}
		o.cfg.Hooks.Run(event, *result)
	}
}

func asErrorDetail(err error) types.ErrorDetail {
	if de, ok := err.(*deployerr.Error); ok {
		return types.ErrorDetail{
			Code: string(de.Code), Message: de.Message, Severity: string(de.Severity),
			Component: de.Component, FilePath: de.FilePath, Suggestion: de.Suggestion,
		}
	}
	return types.ErrorDetail{Code: string(deployerr.InternalInvariant), Message: err.Error(), Severity: string(deployerr.SeverityMedium)}
}
