package orchestrator

import "github.com/bulgogi-whopper/taptik-deploy-core/internal/types"

// orderArtifacts returns artifacts grouped by a dependency-respecting
// component order (spec.md §5 ordering guarantee (b): a write for
// component C happens-before any write for a component D that declares C
// as a dependency), preserving each component's original artifact order.
// A component cycle breaks by falling back to first-seen order for the
// components still unresolved once no further progress is possible.
func orderArtifacts(artifacts []types.TargetArtifact) []types.TargetArtifact {
	byComponent := make(map[types.Component][]types.TargetArtifact)
	var componentOrder []types.Component
	deps := make(map[types.Component]map[types.Component]bool)

	for _, a := range artifacts {
		if _, seen := byComponent[a.Component]; !seen {
			componentOrder = append(componentOrder, a.Component)
			deps[a.Component] = make(map[types.Component]bool)
		}
		byComponent[a.Component] = append(byComponent[a.Component], a)
		for _, dep := range a.Dependencies {
			deps[a.Component][dep] = true
		}
	}

	var ordered []types.Component
	placed := make(map[types.Component]bool)
	for len(ordered) < len(componentOrder) {
		progressed := false
		for _, c := range componentOrder {
			if placed[c] {
				continue
			}
			ready := true
			for dep := range deps[c] {
				if _, hasDep := byComponent[dep]; hasDep && !placed[dep] {
					ready = false
					break
				}
			}
			if ready {
				ordered = append(ordered, c)
				placed[c] = true
				progressed = true
			}
		}
		if !progressed {
			// Cycle: place everything still unresolved in first-seen order.
			for _, c := range componentOrder {
				if !placed[c] {
					ordered = append(ordered, c)
					placed[c] = true
				}
			}
		}
	}

	result := make([]types.TargetArtifact, 0, len(artifacts))
	for _, c := range ordered {
		result = append(result, byComponent[c]...)
	}
	return result
}
