package diffengine

import (
	"strings"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// ApplyPatch deep-clones target and applies every entry in entries,
// setting additions/modifications and removing deletions at their
// dotted path. Paths always start with the synthetic "content" segment
// Diff produces; ApplyPatch(target, Diff(source, target).All()) is
// expected to reconstruct source (spec.md §8 invariant 4).
func ApplyPatch(target interface{}, entries []types.DiffEntry) interface{} {
	result := deepClone(target)
	for _, entry := range entries {
		segments := pathSegments(entry.Path)
		if len(segments) == 0 {
			if entry.Type == types.DiffDeletion {
				result = nil
			} else {
				result = deepClone(entry.NewValue)
			}
			continue
		}
		if entry.Type == types.DiffDeletion {
			result = deleteAt(result, segments)
		} else {
			result = setAt(result, segments, deepClone(entry.NewValue))
		}
	}
	return result
}

// pathSegments strips the leading "content" root selector, leaving the
// nested object-key path (always map keys; Diff never recurses through
// array elements so no segment here ever needs to address one).
func pathSegments(path string) []string {
	segments := strings.Split(path, ".")
	if len(segments) > 0 && segments[0] == rootPath {
		segments = segments[1:]
	}
	return segments
}

func setAt(root interface{}, segments []string, value interface{}) interface{} {
	obj, ok := asObject(root)
	if !ok {
		obj = map[string]interface{}{}
	}
	cursor := obj
	for i, seg := range segments {
		if i == len(segments)-1 {
			cursor[seg] = value
			break
		}
		next, ok := asObject(cursor[seg])
		if !ok {
			next = map[string]interface{}{}
		}
		cursor[seg] = next
		cursor = next
	}
	return obj
}

func deleteAt(root interface{}, segments []string) interface{} {
	obj, ok := asObject(root)
	if !ok {
		return root
	}
	cursor := obj
	for i, seg := range segments {
		if i == len(segments)-1 {
			delete(cursor, seg)
			break
		}
		next, ok := asObject(cursor[seg])
		if !ok {
			return obj
		}
		cursor = next
	}
	return obj
}
