// Package reporter implements the deployment core's Reporter (SPEC_FULL.md
// §4.10): summary, analysis, and recommendations rendered from a completed
// DeploymentResult to the three report formats spec.md §6 names.
package reporter

import (
	"fmt"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// Finding is one pattern Analyze flags as worth a human's attention.
type Finding struct {
	Code     string
	Severity string
	Message  string
}

// Summarize computes the aggregate counts and duration already carried
// on result.Summary, returning it unchanged; it exists as a named entry
// point so callers don't have to know DeploymentResult's shape to get a
// report-ready summary.
func Summarize(result types.DeploymentResult) types.Summary {
	return result.Summary
}

// conflictRateThreshold flags a deployment whose conflict rate exceeds
// this fraction of files touched.
const conflictRateThreshold = 0.5

// Analyze flags patterns in result worth a human's attention: a
// component that skipped every file, a conflict rate above threshold,
// or any recorded error/warning.
func Analyze(result types.DeploymentResult) []Finding {
	var findings []Finding

	touched := result.Summary.FilesDeployed + result.Summary.FilesSkipped
	if touched > 0 {
		rate := float64(result.Summary.ConflictsResolved) / float64(touched)
		if rate > conflictRateThreshold {
			findings = append(findings, Finding{
				Code: "high_conflict_rate", Severity: "medium",
				Message: fmt.Sprintf("%.0f%% of touched files required conflict resolution", rate*100),
			})
		}
	}

	skippedByComponent := make(map[types.Component]int)
	deployedByComponent := make(map[types.Component]bool)
	for _, c := range result.DeployedComponents {
		deployedByComponent[c] = true
	}
	for _, c := range result.Conflicts {
		if c.Resolution == types.ResolutionSkipped {
			skippedByComponent[c.Component]++
		}
	}
	for component, count := range skippedByComponent {
		if count > 0 && !deployedByComponent[component] {
			findings = append(findings, Finding{
				Code: "component_fully_skipped", Severity: "medium",
				Message: fmt.Sprintf("component %q had every file skipped", component),
			})
		}
	}

	for _, e := range result.Errors {
		findings = append(findings, Finding{Code: e.Code, Severity: e.Severity, Message: e.Message})
	}
	if !result.Success {
		findings = append(findings, Finding{Code: "deployment_failed", Severity: "high", Message: "deployment did not complete successfully"})
	}

	return findings
}

// Recommend turns findings into short actionable suggestions.
func Recommend(findings []Finding) []string {
	recommendations := make([]string, 0, len(findings))
	for _, f := range findings {
		switch f.Code {
		case "high_conflict_rate":
			recommendations = append(recommendations, "review the conflict strategy for this platform; consider a more specific per-component strategy instead of the default")
		case "component_fully_skipped":
			recommendations = append(recommendations, "re-run with an overwrite conflict strategy if the skipped component's local copy is stale")
		case "deployment_failed":
			recommendations = append(recommendations, "inspect the audit trail for the failing component before retrying")
		default:
			if f.Severity == "critical" || f.Severity == "high" {
				recommendations = append(recommendations, fmt.Sprintf("investigate %s before the next deployment", f.Code))
			}
		}
	}
	return recommendations
}
