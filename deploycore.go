// Package deploycore is the public entry point for embedding the
// deployment core in another Go program: it aliases the core types and
// exposes a constructor that wires every internal collaborator from a
// home directory and an optional config file, mirroring the teacher's
// beads.go alias-and-re-export façade.
package deploycore

import (
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/audit"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/backupstore"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/dcconfig"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/deployerr"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/hooks"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/lockfile"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/orchestrator"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/paths"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/perfmon"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/recovery"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// Core domain types, re-exported so a caller never has to import internal/types directly.
type (
	Context            = types.Context
	DeploymentOptions   = types.DeploymentOptions
	DeploymentResult    = types.DeploymentResult
	Platform            = types.Platform
	Component           = types.Component
	TargetArtifact       = types.TargetArtifact
	PerformanceThresholds = types.PerformanceThresholds
)

// Platform constants
const (
	PlatformClaudeCode = types.PlatformClaudeCode
	PlatformKiro        = types.PlatformKiro
	PlatformCursor       = types.PlatformCursor
	PlatformWindsurf     = types.PlatformWindsurf
)

// Error kinds (spec.md §7), re-exported for callers that want to
// switch on deployment failure kind without importing internal/deployerr.
const (
	ErrLockUnavailable   = deployerr.LockUnavailable
	ErrValidationFailed  = deployerr.ValidationFailed
	ErrSecurityViolation = deployerr.SecurityViolation
)

// Validator and Transformer are the external collaborators every embedder
// must supply; the core implements no validation or transformation rules
// of its own (spec.md §1).
type (
	Validator   = orchestrator.Validator
	Transformer = orchestrator.Transformer
)

// ValidatorFunc and TransformerFunc adapt plain functions to Validator/Transformer.
type (
	ValidatorFunc   = orchestrator.ValidatorFunc
	TransformerFunc = orchestrator.TransformerFunc
)

// Orchestrator drives one deployment's state machine.
type Orchestrator = orchestrator.Orchestrator

// Options configures New.
type Options struct {
	// Home is the user home directory under which ".taptik" state
	// (locks, backups, audit log, reports) is rooted.
	Home string
	// ConfigPath is an optional TOML file read by internal/dcconfig; pass
	// "" to use built-in defaults overridable by environment variables.
	ConfigPath string
	// Validators and Transformers are the caller-supplied collaborators
	// the orchestrator invokes during the Validated and Transformed
	// transitions.
	Validators   []Validator
	Transformers map[Platform]Transformer
}

// New wires every internal collaborator (locks, paths, backup stores,
// audit logger, performance monitor, recovery, ambient config) from opts
// and returns a ready-to-use Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	cfg, err := dcconfig.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	p := paths.New(opts.Home)
	locks := lockfile.NewManager()
	backupStores := func(platform Platform) *backupstore.Store {
		return backupstore.New(p.PlatformBackups(string(platform)))
	}

	perf, err := perfmon.NewMonitor(&cfg.Thresholds)
	if err != nil {
		return nil, err
	}

	return orchestrator.New(orchestrator.Config{
		Locks:                   locks,
		Paths:                   p,
		Backups:                 backupStores,
		Audit:                   audit.NewLogger(p.Audit()),
		Perf:                    perf,
		Recovery:                recovery.New(locks, p, backupStores),
		Hooks:                   hooks.NewRunner(p.Hooks()),
		Validators:              opts.Validators,
		Transformers:            opts.Transformers,
		RetentionDaysByPlatform: cfg.RetentionDaysByPlatform,
	}), nil
}
