// Package conflict implements the deployment core's Conflict Resolver
// (spec.md §4.4): detects disagreements between a target file already on
// disk and the content a deployment would write, resolves them by
// strategy, and suggests a strategy by component kind.
package conflict

import (
	"encoding/json"
	"os"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/deployerr"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// Kind classifies one detected conflict.
type Kind string

const (
	ContentDiffers   Kind = "content_differs"
	VersionConflict  Kind = "version_conflict"
	StructureMismatch Kind = "structure_mismatch"
)

// Detail is one entry DetectConflicts reports.
type Detail struct {
	Path     string
	Kind     Kind
	Section  string // set for Markdown section-scoped conflicts
	OldValue string // existing content (or section body) for report rendering
	NewValue string // incoming content (or section body) for report rendering
}

// DetectConflicts compares the file at path against newContent and
// reports every disagreement. An absent target, or a target that is
// byte-identical to newContent, reports no conflicts.
func DetectConflicts(path string, newContent []byte, component types.Component) ([]Detail, error) {
	existing, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, deployerr.Wrap(deployerr.ValidationFailed, "read target for conflict detection", err).
			WithComponent(string(component)).WithFilePath(path)
	}
	if bytesEqual(existing, newContent) {
		return nil, nil
	}

	switch fileKind(path) {
	case kindJSON:
		return detectJSONConflicts(path, existing, newContent), nil
	case kindMarkdown:
		return detectMarkdownConflicts(path, existing, newContent), nil
	default:
		return []Detail{{Path: path, Kind: ContentDiffers}}, nil
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func detectJSONConflicts(path string, existing, newContent []byte) []Detail {
	var existingObj, newObj map[string]interface{}
	existingErr := json.Unmarshal(existing, &existingObj)
	newErr := json.Unmarshal(newContent, &newObj)
	if existingErr != nil || newErr != nil {
		return []Detail{{Path: path, Kind: StructureMismatch}}
	}

	var details []Detail
	if keysDiffer(existingObj, newObj) {
		details = append(details, Detail{Path: path, Kind: StructureMismatch})
	}
	if ev, ok1 := existingObj["version"]; ok1 {
		if nv, ok2 := newObj["version"]; ok2 && !jsonEqual(ev, nv) {
			details = append(details, Detail{Path: path, Kind: VersionConflict})
		}
	}
	details = append(details, Detail{Path: path, Kind: ContentDiffers, OldValue: string(existing), NewValue: string(newContent)})
	return details
}

func keysDiffer(a, b map[string]interface{}) bool {
	if len(a) != len(b) {
		return true
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return true
		}
	}
	return false
}

func jsonEqual(a, b interface{}) bool {
	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	return string(aj) == string(bj)
}

func detectMarkdownConflicts(path string, existing, newContent []byte) []Detail {
	existingSections := parseMarkdownSections(existing)
	newSections := parseMarkdownSections(newContent)

	existingByHeading := make(map[string]string, len(existingSections))
	for _, s := range existingSections {
		existingByHeading[s.Heading] = s.Body
	}

	var details []Detail
	for _, s := range newSections {
		if prevBody, ok := existingByHeading[s.Heading]; !ok || prevBody != s.Body {
			details = append(details, Detail{
				Path: path, Kind: ContentDiffers, Section: s.Heading,
				OldValue: existingByHeading[s.Heading], NewValue: s.Body,
			})
		}
	}
	return details
}
