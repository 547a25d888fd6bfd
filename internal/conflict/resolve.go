package conflict

import (
	"os"
	"time"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/deployerr"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// Resolution is the outcome of resolving one conflict: the content that
// should ultimately be written (nil when nothing should be written) and
// how it got there.
type Resolution struct {
	Content        []byte
	Resolution     types.ConflictResolution
	Warning        string
	PromptRequired bool
}

// Resolve decides the final content to write for path given newContent,
// strategy, and (for merge-family strategies) mergeStrategy. It performs
// the one filesystem side effect spec.md §4.4 assigns to this layer
// directly — the backup strategy's copy-existing-to-path.backup-<ts> —
// but never itself writes the resolved content; that is the caller's
// (orchestrator's) job once every component's conflicts are resolved.
func Resolve(path string, newContent []byte, component types.Component, strategy types.ConflictStrategy, mergeStrategy types.MergeStrategy) (Resolution, error) {
	existing, err := os.ReadFile(path)
	notFound := os.IsNotExist(err)
	if err != nil && !notFound {
		return Resolution{}, deployerr.Wrap(deployerr.ValidationFailed, "read target for conflict resolution", err).
			WithComponent(string(component)).WithFilePath(path)
	}

	switch strategy {
	case types.StrategySkip:
		return Resolution{Content: existing, Resolution: types.ResolutionSkipped, Warning: "skipped: target already exists and differs"}, nil

	case types.StrategyOverwrite:
		return Resolution{Content: newContent, Resolution: types.ResolutionOverwritten}, nil

	case types.StrategyBackup:
		if !notFound {
			backupPath := path + ".backup-" + time.Now().Format("20060102_150405")
			if err := os.WriteFile(backupPath, existing, 0o644); err != nil {
				return Resolution{}, deployerr.Wrap(deployerr.BackupWriteFailed, "write conflict backup copy", err).
					WithComponent(string(component)).WithFilePath(path)
			}
		}
		return Resolution{Content: newContent, Resolution: types.ResolutionBackedUp}, nil

	case types.StrategyMerge, types.StrategyMergeIntelligent:
		return resolveMerge(path, existing, newContent, component, mergeStrategy, notFound)

	case types.StrategyPreserveTasks:
		if notFound {
			return Resolution{Content: newContent, Resolution: types.ResolutionMerged}, nil
		}
		return Resolution{Content: preserveTasksWholeDocument(existing, newContent), Resolution: types.ResolutionMerged}, nil

	case types.StrategyPrompt:
		return Resolution{Resolution: types.ResolutionPromptPending, PromptRequired: true}, nil

	default:
		return Resolution{}, deployerr.New(deployerr.ConflictUnresolvable, "unknown conflict strategy").
			WithComponent(string(component)).WithFilePath(path)
	}
}

func resolveMerge(path string, existing, newContent []byte, component types.Component, mergeStrategy types.MergeStrategy, notFound bool) (Resolution, error) {
	if notFound {
		return Resolution{Content: newContent, Resolution: types.ResolutionMerged}, nil
	}

	switch fileKind(path) {
	case kindJSON:
		merged, err := mergeJSON(existing, newContent, mergeStrategy)
		if err != nil {
			return Resolution{}, deployerr.Wrap(deployerr.MergeIncompatible, "JSON merge failed", err).
				WithComponent(string(component)).WithFilePath(path)
		}
		return Resolution{Content: merged, Resolution: types.ResolutionMerged}, nil

	case kindMarkdown:
		if mergeStrategy == types.MergeTaskStatusPreserve {
			return Resolution{Content: preserveTasksWholeDocument(existing, newContent), Resolution: types.ResolutionMerged}, nil
		}
		return Resolution{Content: mergeMarkdownSections(existing, newContent), Resolution: types.ResolutionMerged}, nil

	default:
		return Resolution{}, deployerr.New(deployerr.MergeIncompatible, "merge strategy not supported for this file type").
			WithComponent(string(component)).WithFilePath(path)
	}
}
