// Package diffengine implements the deployment core's tree diff/merge
// primitives (spec.md §4.1): recursive addition/modification/deletion
// computation over JSON-shaped trees, deep-merge, conflict enumeration,
// and patch application. Every function here is pure.
package diffengine

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// rootPath is the synthetic path under which the two root values are
// compared (spec.md §4.1: "Roots are compared under the synthetic path
// `content`").
const rootPath = "content"

// Diff recursively compares source against target and returns the set of
// additions, modifications, and deletions needed to turn target into
// source.
func Diff(source, target interface{}) types.DiffResult {
	var result types.DiffResult
	walk(rootPath, source, target, &result)

	sortEntries(result.Additions)
	sortEntries(result.Modifications)
	sortEntries(result.Deletions)

	result.HasChanges = len(result.Additions) > 0 || len(result.Modifications) > 0 || len(result.Deletions) > 0
	return result
}

func sortEntries(entries []types.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
}

func walk(path string, source, target interface{}, result *types.DiffResult) {
	sourceObj, sourceIsObj := asObject(source)
	targetObj, targetIsObj := asObject(target)

	switch {
	case sourceIsObj && targetIsObj:
		walkObjects(path, sourceObj, targetObj, result)
	case isArray(source) && isArray(target):
		if !serializedEqual(source, target) {
			result.Modifications = append(result.Modifications, types.DiffEntry{
				Path: path, Type: types.DiffModification, OldValue: target, NewValue: source,
			})
		}
	default:
		if source == nil && target == nil {
			return
		}
		if !serializedEqual(source, target) {
			entry := types.DiffEntry{Path: path, OldValue: target, NewValue: source}
			switch {
			case target == nil:
				entry.Type = types.DiffAddition
				result.Additions = append(result.Additions, entry)
			case source == nil:
				entry.Type = types.DiffDeletion
				result.Deletions = append(result.Deletions, entry)
			default:
				entry.Type = types.DiffModification
				result.Modifications = append(result.Modifications, entry)
			}
		}
	}
}

func walkObjects(path string, source, target map[string]interface{}, result *types.DiffResult) {
	for key, sourceVal := range source {
		childPath := joinPath(path, key)
		targetVal, inTarget := target[key]
		if !inTarget {
			result.Additions = append(result.Additions, types.DiffEntry{
				Path: childPath, Type: types.DiffAddition, NewValue: sourceVal,
			})
			continue
		}
		walk(childPath, sourceVal, targetVal, result)
	}
	for key, targetVal := range target {
		if _, inSource := source[key]; inSource {
			continue
		}
		result.Deletions = append(result.Deletions, types.DiffEntry{
			Path: joinPath(path, key), Type: types.DiffDeletion, OldValue: targetVal,
		})
	}
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// asObject reports whether v is a map and returns it as
// map[string]interface{}.
func asObject(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

func isArray(v interface{}) bool {
	_, ok := v.([]interface{})
	return ok
}

func serializedEqual(a, b interface{}) bool {
	aj, aerr := json.Marshal(a)
	bj, berr := json.Marshal(b)
	if aerr != nil || berr != nil {
		return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
	}
	return string(aj) == string(bj)
}
