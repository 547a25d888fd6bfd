// Package orchestrator implements the deployment core's state machine
// (spec.md §4.9): the single entry point that drives a Context through
// validation, transformation, backup, conflict-resolved writes, and
// audit, rolling back through Error Recovery on the first fatal failure.
//
// Every collaborator is constructor-injected through Config, replacing
// the source's runtime-resolved dependency injection graph (spec.md §9
// Design Note) with one explicit record built once at startup.
package orchestrator

import (
	"context"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/audit"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/backupstore"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/diffengine"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/hooks"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/lockfile"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/paths"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/perfmon"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/recovery"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// Validator is the external validation collaborator (spec.md §4.9
// Locked→Validated); the core never implements validation rules itself,
// it only sequences the call and reacts to the result.
type Validator interface {
	Validate(ctx context.Context, deployCtx types.Context, opts types.DeploymentOptions) error
}

// Transformer is the external transformation collaborator (spec.md §4.9
// Validated→Transformed) that turns a Context into the TargetArtifact set
// for one platform.
type Transformer interface {
	Transform(ctx context.Context, deployCtx types.Context, opts types.DeploymentOptions) ([]types.TargetArtifact, error)
}

// ValidatorFunc adapts a plain function to a Validator.
type ValidatorFunc func(ctx context.Context, deployCtx types.Context, opts types.DeploymentOptions) error

func (f ValidatorFunc) Validate(ctx context.Context, deployCtx types.Context, opts types.DeploymentOptions) error {
	return f(ctx, deployCtx, opts)
}

// TransformerFunc adapts a plain function to a Transformer.
type TransformerFunc func(ctx context.Context, deployCtx types.Context, opts types.DeploymentOptions) ([]types.TargetArtifact, error)

func (f TransformerFunc) Transform(ctx context.Context, deployCtx types.Context, opts types.DeploymentOptions) ([]types.TargetArtifact, error) {
	return f(ctx, deployCtx, opts)
}

// DiffEngine computes a tree diff between two JSON-shaped values, used to
// attach a Changes record to a component-deployed audit entry when both
// the prior and the written content of a JSON artifact parse. It is
// injected per spec.md §9's Design Note even though the package it wraps
// (internal/diffengine) is stateless, so the orchestrator's collaborator
// set matches the one spec.md names.
type DiffEngine interface {
	Diff(oldValue, newValue interface{}) types.DiffResult
}

type defaultDiffEngine struct{}

func (defaultDiffEngine) Diff(oldValue, newValue interface{}) types.DiffResult {
	// diffengine.Diff(source, target) computes the edits needed to turn
	// target into source; here the desired new content is source and the
	// prior on-disk content is target.
	return diffengine.Diff(newValue, oldValue)
}

// BackupStores resolves the platform-scoped backup store for a deployment.
type BackupStores func(platform types.Platform) *backupstore.Store

// Config is every collaborator the orchestrator needs, built once at
// startup by the caller (or the root façade's constructor).
type Config struct {
	Locks       *lockfile.Manager
	Paths       paths.Paths
	Backups     BackupStores
	Audit       *audit.Logger
	Perf        *perfmon.Monitor
	Recovery    *recovery.Recovery
	Diff        DiffEngine
	// Hooks runs lifecycle scripts (pre-deploy, post-deploy, rollback);
	// nil disables hook execution entirely.
	Hooks       *hooks.Runner
	Validators  []Validator
	Transformers map[types.Platform]Transformer
	RetentionDaysByPlatform map[types.Platform]int
}

// Orchestrator drives one deployment's state machine over an injected
// Config.
type Orchestrator struct {
	cfg Config
}

// New builds an Orchestrator. A nil cfg.Diff defaults to the package's
// own diffengine.Diff.
func New(cfg Config) *Orchestrator {
	if cfg.Diff == nil {
		cfg.Diff = defaultDiffEngine{}
	}
	return &Orchestrator{cfg: cfg}
}
