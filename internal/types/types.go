// Package types holds the data model shared by every deployment core
// component: the immutable Context tree, deployment options, generated
// artifacts, and the result/record types the orchestrator produces.
package types

import (
	"encoding/json"
	"time"
)

// Context is the immutable, caller-owned configuration tree the core
// deploys. The core never mutates it.
type Context struct {
	Metadata        ContextMetadata        `json:"metadata"`
	PersonalContext PersonalContext        `json:"personalContext,omitempty"`
	ProjectContext  ProjectContext         `json:"projectContext,omitempty"`
	PromptContext   PromptContext          `json:"promptContext,omitempty"`
	Security        map[string]interface{} `json:"security,omitempty"`
}

// ContextMetadata carries project identity and provenance tags.
type ContextMetadata struct {
	ProjectID string    `json:"projectId"`
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PersonalContext carries user preferences, editor settings, and AI
// assistant settings.
type PersonalContext struct {
	Preferences map[string]interface{} `json:"preferences,omitempty"`
	Editor      map[string]interface{} `json:"editor,omitempty"`
	AISettings  map[string]interface{} `json:"aiSettings,omitempty"`
}

// ProjectContext carries dependency, script, and workspace layout data.
type ProjectContext struct {
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Scripts      map[string]string `json:"scripts,omitempty"`
	Workspace    map[string]interface{} `json:"workspace,omitempty"`
}

// PromptContext carries ordered AI rules, free-form text, examples, and
// workflows.
type PromptContext struct {
	Rules     []string `json:"rules,omitempty"`
	FreeText  string   `json:"freeText,omitempty"`
	Examples  []string `json:"examples,omitempty"`
	Workflows []string `json:"workflows,omitempty"`
}

// Platform selects the target writer set.
type Platform string

const (
	PlatformClaudeCode Platform = "claudeCode"
	PlatformKiro        Platform = "kiro"
	PlatformCursor       Platform = "cursor"
	PlatformWindsurf     Platform = "windsurf"
)

// Valid reports whether p is a recognized platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformClaudeCode, PlatformKiro, PlatformCursor, PlatformWindsurf:
		return true
	}
	return false
}

// Component names a group of artifacts.
type Component string

const (
	ComponentSettings   Component = "settings"
	ComponentAIPrompts  Component = "ai-prompts"
	ComponentExtensions Component = "extensions"
	ComponentSnippets   Component = "snippets"
	ComponentTasks      Component = "tasks"
	ComponentLaunch     Component = "launch"
	ComponentHooks      Component = "hooks"
	ComponentSpecs      Component = "specs"
	ComponentSteering   Component = "steering"
	ComponentAgents     Component = "agents"
	ComponentTemplates  Component = "templates"
)

// ConflictStrategy is a closed sum type for how a write conflict is resolved.
type ConflictStrategy string

const (
	StrategySkip             ConflictStrategy = "skip"
	StrategyOverwrite        ConflictStrategy = "overwrite"
	StrategyMerge            ConflictStrategy = "merge"
	StrategyBackup           ConflictStrategy = "backup"
	StrategyPrompt           ConflictStrategy = "prompt"
	StrategyPreserveTasks    ConflictStrategy = "preserve-tasks"
	StrategyMergeIntelligent ConflictStrategy = "merge-intelligent"
)

// Valid reports whether s is a recognized conflict strategy.
func (s ConflictStrategy) Valid() bool {
	switch s {
	case StrategySkip, StrategyOverwrite, StrategyMerge, StrategyBackup,
		StrategyPrompt, StrategyPreserveTasks, StrategyMergeIntelligent:
		return true
	}
	return false
}

// MergeStrategy further parameterizes merge-family ConflictStrategy values.
type MergeStrategy string

const (
	MergeDeepMerge            MergeStrategy = "deep-merge"
	MergeArrayAppend          MergeStrategy = "array-append"
	MergeMarkdownSectionMerge MergeStrategy = "markdown-section-merge"
	MergeTaskStatusPreserve   MergeStrategy = "task-status-preserve"
)

// DeploymentOptions recognized options and their effects (spec.md §3).
type DeploymentOptions struct {
	Platform         Platform
	Components       map[Component]bool
	SkipComponents   map[Component]bool
	ConflictStrategy ConflictStrategy
	MergeStrategy    MergeStrategy
	DryRun           bool
	ValidateOnly     bool
	BackupEnabled    bool
	ForceRecovery    bool
	CleanupOnly      bool
	Force            bool

	// Streaming/memory thresholds consumed by the Large-File Streamer.
	StreamChunkSizeBytes   int64
	LargeFileThresholdBytes int64
	MemoryThresholdBytes    int64

	// Supplemental (SPEC_FULL §3): per-deployment overrides.
	RetentionDays         int
	PerformanceThresholds *PerformanceThresholds
}

// PerformanceThresholds overrides the Performance Monitor's defaults.
type PerformanceThresholds struct {
	DeploymentTimeout time.Duration
	ComponentTimeout  time.Duration
	HeapThresholdBytes int64
}

// ArtifactType names the shape of a TargetArtifact's content.
type ArtifactType string

const (
	ArtifactJSON     ArtifactType = "json"
	ArtifactMarkdown ArtifactType = "markdown"
	ArtifactText     ArtifactType = "text"
)

// TargetArtifact is a single file the deployment writes, produced by an
// external transformer and owned by the orchestrator for the deployment's
// duration.
type TargetArtifact struct {
	Path      string
	Component Component
	Type      ArtifactType
	Content   []byte

	// Dependencies names sibling components (by name) that must be written
	// before this artifact's component, mirrored into the backup manifest's
	// per-component dependency list.
	Dependencies []Component
}

// BackupComponentEntry records one component's backup bookkeeping.
type BackupComponentEntry struct {
	OriginalPath string    `json:"originalPath"`
	BackupPath   string    `json:"backupPath"`
	Timestamp    time.Time `json:"timestamp"`
	Dependencies []string  `json:"dependencies,omitempty"`
}

// BackupFileEntry is one file tracked by a BackupManifest.
type BackupFileEntry struct {
	OriginalPath string    `json:"originalPath"`
	BackupPath   string    `json:"backupPath"`
	Timestamp    time.Time `json:"timestamp"`
}

// BackupManifest is the persisted record of one deployment's backups.
type BackupManifest struct {
	ID                 string                          `json:"id"`
	Timestamp          time.Time                       `json:"timestamp"`
	Platform           Platform                        `json:"platform"`
	OriginalContextHash string                         `json:"originalContextHash,omitempty"`
	Files              []BackupFileEntry               `json:"files"`
	Components         map[string]BackupComponentEntry `json:"components"`
}

// LockHandle exists from Acquire to Release.
type LockHandle struct {
	ID        string    `json:"id"`
	FilePath  string    `json:"filePath"`
	ProcessID int       `json:"processId"`
	Timestamp time.Time `json:"timestamp"`
}

// ConflictResolution names how a single conflict was (or will be) handled.
type ConflictResolution string

const (
	ResolutionSkipped    ConflictResolution = "skipped"
	ResolutionOverwritten ConflictResolution = "overwritten"
	ResolutionBackedUp   ConflictResolution = "backed-up"
	ResolutionMerged      ConflictResolution = "merged"
	ResolutionPromptPending ConflictResolution = "prompt-pending"
)

// ConflictRecord is surfaced on a DeploymentResult for each file that had a
// detected conflict.
type ConflictRecord struct {
	Path       string             `json:"path"`
	Component  Component          `json:"component"`
	Resolution ConflictResolution `json:"resolution"`
}

// Summary aggregates counts for a completed deployment.
type Summary struct {
	FilesDeployed       int           `json:"filesDeployed"`
	FilesSkipped        int           `json:"filesSkipped"`
	ConflictsResolved   int           `json:"conflictsResolved"`
	Duration            time.Duration `json:"duration"`
	PerformanceMetrics  interface{}   `json:"performanceMetrics,omitempty"`
}

// ErrorDetail is the user-visible shape of a deployment-time error.
type ErrorDetail struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Severity   string `json:"severity"`
	Component  string `json:"component,omitempty"`
	FilePath   string `json:"filePath,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// WarningDetail is the user-visible shape of a deployment-time warning.
type WarningDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DeploymentResult is the final, caller-visible outcome of one deployment.
type DeploymentResult struct {
	Success             bool              `json:"success"`
	Platform            Platform          `json:"platform"`
	DeployedComponents  []Component       `json:"deployedComponents"`
	Conflicts           []ConflictRecord  `json:"conflicts"`
	BackupManifestID    string            `json:"backupManifestId,omitempty"`
	Summary             Summary           `json:"summary"`
	Errors              []ErrorDetail     `json:"errors"`
	Warnings            []WarningDetail   `json:"warnings"`
	DeploymentID        string            `json:"deploymentId"`
}

// DiffEntryType distinguishes addition/modification/deletion diff entries.
type DiffEntryType string

const (
	DiffAddition     DiffEntryType = "addition"
	DiffModification DiffEntryType = "modification"
	DiffDeletion     DiffEntryType = "deletion"
)

// DiffEntry is one addition/modification/deletion in a DiffResult.
type DiffEntry struct {
	Path     string        `json:"path"`
	Type     DiffEntryType `json:"type"`
	OldValue interface{}   `json:"oldValue,omitempty"`
	NewValue interface{}   `json:"newValue,omitempty"`
}

// DiffResult is the output of the Diff Engine's recursive comparison.
type DiffResult struct {
	HasChanges    bool        `json:"hasChanges"`
	Additions     []DiffEntry `json:"additions"`
	Modifications []DiffEntry `json:"modifications"`
	Deletions     []DiffEntry `json:"deletions"`
}

// All concatenates additions, modifications, and deletions in that order,
// the shape ApplyPatch expects (and the round-trip property in spec.md §8
// invariant 4 exercises).
func (d DiffResult) All() []DiffEntry {
	out := make([]DiffEntry, 0, len(d.Additions)+len(d.Modifications)+len(d.Deletions))
	out = append(out, d.Additions...)
	out = append(out, d.Modifications...)
	out = append(out, d.Deletions...)
	return out
}

// AuditLevel names the severity of a structured audit/log entry.
type AuditLevel string

const (
	AuditDebug   AuditLevel = "debug"
	AuditInfo    AuditLevel = "info"
	AuditWarning AuditLevel = "warning"
	AuditError   AuditLevel = "error"
)

// AuditEntry is one structured record in the audit trail.
type AuditEntry struct {
	ID              string                 `json:"id"`
	Timestamp       time.Time              `json:"timestamp"`
	Level           AuditLevel             `json:"level"`
	Operation       string                 `json:"operation"`
	Action          string                 `json:"action"`
	Result          string                 `json:"result"`
	ConfigID        string                 `json:"configId,omitempty"`
	Platform        Platform               `json:"platform,omitempty"`
	Context         map[string]interface{} `json:"context,omitempty"`
	Changes         *DiffResult            `json:"changes,omitempty"`
	SecurityContext map[string]interface{} `json:"securityContext,omitempty"`
}

// RawJSON marshals v to json.RawMessage, used by components that need to
// stash an arbitrary tree alongside a typed record.
func RawJSON(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}
