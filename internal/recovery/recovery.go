// Package recovery implements the deployment core's Error Recovery
// component (spec.md §4.8): the fixed five-step protocol run after a
// deployment fails: releasing locks, restoring backups, reconciling
// component state, and sweeping stale locks and aged backups.
package recovery

import (
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/backupstore"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/deployerr"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/lockfile"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/paths"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// backupRestoreMaxElapsed bounds how long the retried backup restore in
// step 3 is allowed to keep retrying transient failures before giving up
// non-fatally, mirroring the teacher's bounded exponential retry for
// transient storage errors.
const backupRestoreMaxElapsed = 15 * time.Second

// Reconciler validates and reconciles one already-deployed component's
// on-disk state during recovery. It is supplied by the caller (the
// orchestrator) since only it knows how to re-derive a component's
// expected content; Error Recovery only sequences the call.
type Reconciler func(component types.Component) error

// Options configures RecoverFromFailure.
type Options struct {
	CleanupOnly      bool
	BackupID         string
	RetentionDays    int
	Reconcile        Reconciler
}

// Result is RecoverFromFailure's outcome.
type Result struct {
	Success             bool
	RestoredBackupID     string
	RecoveredComponents []types.Component
	Errors              []*deployerr.Error
}

// Recovery sequences the Lock Manager and Backup Store collaborators
// through spec.md §4.8's five-step protocol.
type Recovery struct {
	Locks   *lockfile.Manager
	Paths   paths.Paths
	Backups func(platform types.Platform) *backupstore.Store
}

// New builds a Recovery using locks for lock bookkeeping, p for path
// resolution, and backups to resolve a platform-scoped backup store.
func New(locks *lockfile.Manager, p paths.Paths, backups func(platform types.Platform) *backupstore.Store) *Recovery {
	return &Recovery{Locks: locks, Paths: p, Backups: backups}
}

// RecoverFromFailure runs the fixed recovery protocol for a failed
// deployment: release locks unconditionally, optionally stop early for
// a cleanup-only request, attempt the recorded backup restore (non-fatal
// on failure), reconcile every deployed component, then sweep stale
// locks and aged backups.
func (r *Recovery) RecoverFromFailure(deploymentResult types.DeploymentResult, opts Options) Result {
	result := Result{Success: true}

	// Step 1: release locks, unconditionally and idempotently.
	if err := r.Locks.ReleaseAll(r.Paths.PlatformBackups(string(deploymentResult.Platform))); err != nil {
		result.Errors = append(result.Errors, deployerr.Wrap(deployerr.LockUnavailable, "release locks during recovery", err).
			WithComponent("recovery"))
		result.Success = false
	}

	// Step 2: cleanup-only requests stop here.
	if opts.CleanupOnly {
		return result
	}

	// Step 3: restore the recorded backup, retried with bounded
	// exponential backoff; failure here is recorded and makes the
	// recovery unsuccessful, but the protocol continues with step 4.
	backupID := opts.BackupID
	if backupID == "" {
		backupID = deploymentResult.BackupManifestID
	}
	if backupID != "" {
		store := r.Backups(deploymentResult.Platform)
		bo := backoff.NewExponentialBackOff()
		bo.MaxElapsedTime = backupRestoreMaxElapsed

		err := backoff.Retry(func() error {
			return store.Restore(backupID)
		}, bo)
		if err != nil {
			result.Errors = append(result.Errors, deployerr.Wrap(deployerr.BackupReadFailed, "restore backup during recovery", err).
				WithComponent("recovery").WithSeverity(deployerr.SeverityMedium))
		} else {
			result.RestoredBackupID = backupID
		}
	}

	// Step 4: validate + reconcile every deployed component.
	for _, component := range deploymentResult.DeployedComponents {
		if opts.Reconcile == nil {
			result.RecoveredComponents = append(result.RecoveredComponents, component)
			continue
		}
		if err := opts.Reconcile(component); err != nil {
			result.Errors = append(result.Errors, deployerr.Wrap(deployerr.ValidationFailed, "reconcile component during recovery", err).
				WithComponent(string(component)))
			continue
		}
		result.RecoveredComponents = append(result.RecoveredComponents, component)
	}

	// Success reflects steps 1-4 only.
	result.Success = len(result.Errors) == 0

	// Step 5: cleanup stale locks and aged backups; failures here are
	// recorded on Errors but never affect Success.
	if _, err := r.Locks.CleanupStaleLocks(r.Paths.PlatformBackups(string(deploymentResult.Platform))); err != nil {
		result.Errors = append(result.Errors, deployerr.Wrap(deployerr.InternalInvariant, "cleanup stale locks during recovery", err).
			WithComponent("recovery"))
	}
	retentionDays := opts.RetentionDays
	if retentionDays <= 0 {
		retentionDays = 30
	}
	if _, failures, err := r.Backups(deploymentResult.Platform).CleanupOldBackups(retentionDays); err != nil {
		result.Errors = append(result.Errors, deployerr.Wrap(deployerr.BackupReadFailed, "cleanup old backups during recovery", err).
			WithComponent("recovery"))
	} else if len(failures) > 0 {
		// Per-file cleanup failures are returned by the store without
		// aborting its sweep (spec.md §4.3); recovery does not record them.
		_ = failures
	}

	return result
}

// ValidateRecovery reports whether result recovered every component in
// expected and produced no errors.
func ValidateRecovery(result Result, expected []types.Component) bool {
	if len(result.Errors) > 0 {
		return false
	}
	recovered := make(map[types.Component]bool, len(result.RecoveredComponents))
	for _, c := range result.RecoveredComponents {
		recovered[c] = true
	}
	for _, c := range expected {
		if !recovered[c] {
			return false
		}
	}
	return true
}
