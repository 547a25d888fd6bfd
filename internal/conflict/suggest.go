package conflict

import "github.com/bulgogi-whopper/taptik-deploy-core/internal/types"

// Suggestion is SuggestStrategy's recommendation.
type Suggestion struct {
	Strategy      types.ConflictStrategy
	MergeStrategy types.MergeStrategy
	Reasoning     string
}

// SuggestStrategy recommends a resolution strategy deterministically by
// component kind alone (spec.md §4.4); conflicts is not consulted.
func SuggestStrategy(conflicts []Detail, component types.Component) Suggestion {
	switch component {
	case types.ComponentSettings:
		return Suggestion{
			Strategy: types.StrategyMergeIntelligent, MergeStrategy: types.MergeDeepMerge,
			Reasoning: "settings files are JSON key/value trees; a deep merge preserves local customizations not present upstream",
		}
	case types.ComponentSpecs:
		return Suggestion{
			Strategy: types.StrategyPreserveTasks,
			Reasoning: "spec documents track task completion; overwriting would silently uncheck finished work",
		}
	case types.ComponentHooks:
		return Suggestion{
			Strategy: types.StrategyPrompt,
			Reasoning: "hook scripts can diverge in ways no automatic merge can safely reconcile",
		}
	case types.ComponentAgents:
		return Suggestion{
			Strategy: types.StrategyBackup,
			Reasoning: "agent definitions are typically hand-authored; preserve the existing file and stage the new one for review",
		}
	case types.ComponentTemplates:
		return Suggestion{
			Strategy: types.StrategyMergeIntelligent, MergeStrategy: types.MergeArrayAppend,
			Reasoning: "template collections grow by accretion; appending new entries avoids discarding existing ones",
		}
	case types.ComponentSteering:
		return Suggestion{
			Strategy: types.StrategyMergeIntelligent, MergeStrategy: types.MergeMarkdownSectionMerge,
			Reasoning: "steering docs are Markdown organized by section; merge section-by-section instead of wholesale",
		}
	default:
		return Suggestion{
			Strategy: types.StrategyBackup,
			Reasoning: "no specific rule for this component kind; default to the conservative backup-then-overwrite strategy",
		}
	}
}
