package conflict

import "github.com/bulgogi-whopper/taptik-deploy-core/internal/types"

// ValidateMergeCompatibility reports whether mergeStrategy can be
// applied to path's file type for component, and if not, why.
func ValidateMergeCompatibility(path string, component types.Component, mergeStrategy types.MergeStrategy) (bool, string) {
	kind := fileKind(path)

	switch mergeStrategy {
	case types.MergeDeepMerge, types.MergeArrayAppend:
		if kind != kindJSON {
			return false, "deep-merge and array-append require a JSON target file"
		}
		return true, ""
	case types.MergeMarkdownSectionMerge:
		if kind != kindMarkdown {
			return false, "markdown-section-merge requires a Markdown target file"
		}
		return true, ""
	case types.MergeTaskStatusPreserve:
		if kind != kindMarkdown {
			return false, "task-status-preserve requires a Markdown target file"
		}
		return true, ""
	default:
		return false, "unrecognized merge strategy"
	}
}
