package reverseconv

// ArtifactChange is one field that differs between two recorded
// snapshots of the same artifact path.
type ArtifactChange struct {
	Path     string `json:"path"`
	Field    string `json:"field"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
}

// DeltaResult is the added/removed/changed shape spec.md's delta
// computation uses throughout, generalized here from spec snapshots
// (internal/spec.ComputeDelta) to artifact snapshots.
type DeltaResult struct {
	Added   []ArtifactSnapshot `json:"added"`
	Removed []ArtifactSnapshot `json:"removed"`
	Changed []ArtifactChange   `json:"changed"`
}

// ComputeDelta compares two recorded artifact sets keyed by path,
// reporting additions, removals, and per-field changes (component and
// content hash) for paths present in both.
func ComputeDelta(previous, current []ArtifactSnapshot) DeltaResult {
	result := DeltaResult{
		Added:   []ArtifactSnapshot{},
		Removed: []ArtifactSnapshot{},
		Changed: []ArtifactChange{},
	}

	prevByPath := make(map[string]ArtifactSnapshot, len(previous))
	for _, entry := range previous {
		prevByPath[entry.Path] = entry
	}
	currByPath := make(map[string]ArtifactSnapshot, len(current))
	for _, entry := range current {
		currByPath[entry.Path] = entry
	}

	for path, curr := range currByPath {
		prev, ok := prevByPath[path]
		if !ok {
			result.Added = append(result.Added, curr)
			continue
		}
		if prev.Component != curr.Component {
			result.Changed = append(result.Changed, ArtifactChange{
				Path: path, Field: "component", OldValue: string(prev.Component), NewValue: string(curr.Component),
			})
		}
		if prev.ContentHash != curr.ContentHash {
			result.Changed = append(result.Changed, ArtifactChange{
				Path: path, Field: "contentHash", OldValue: prev.ContentHash, NewValue: curr.ContentHash,
			})
		}
	}

	for path, prev := range prevByPath {
		if _, ok := currByPath[path]; !ok {
			result.Removed = append(result.Removed, prev)
		}
	}

	return result
}
