package diffengine

import "github.com/bulgogi-whopper/taptik-deploy-core/internal/types"

// backupMarkerKey is the "marker bit in metadata" spec.md §4.1 calls for
// when the backup strategy is used: the merged tree is semantically the
// source, annotated so a caller inspecting the result can tell a backup
// copy was taken before the overwrite.
const backupMarkerKey = "_taptikBackedUp"

// Merge combines target and source according to strategy. Only the four
// strategies spec.md §4.1 names for the diff engine itself are handled
// here (skip, overwrite, backup, merge); the conflict resolver's richer
// strategy set (prompt, preserve-tasks, merge-intelligent, ...) dispatches
// through internal/conflict instead, calling back into DeepMerge for its
// JSON deep-merge case.
func Merge(target, source interface{}, strategy types.ConflictStrategy) interface{} {
	switch strategy {
	case types.StrategySkip:
		return target
	case types.StrategyOverwrite:
		return source
	case types.StrategyBackup:
		return withBackupMarker(source)
	case types.StrategyMerge, types.StrategyMergeIntelligent:
		return DeepMerge(target, source)
	default:
		return target
	}
}

func withBackupMarker(source interface{}) interface{} {
	obj, ok := asObject(deepClone(source))
	if !ok {
		return source
	}
	obj[backupMarkerKey] = true
	return obj
}

// DeepMerge recursively merges source onto target: both-object keys merge
// key-wise, both-array values merge via ArrayMerge, anything else has
// source replace target.
func DeepMerge(target, source interface{}) interface{} {
	targetObj, targetIsObj := asObject(target)
	sourceObj, sourceIsObj := asObject(source)
	if targetIsObj && sourceIsObj {
		merged := make(map[string]interface{}, len(targetObj)+len(sourceObj))
		for k, v := range targetObj {
			merged[k] = v
		}
		for k, sv := range sourceObj {
			if tv, ok := targetObj[k]; ok {
				merged[k] = DeepMerge(tv, sv)
			} else {
				merged[k] = sv
			}
		}
		return merged
	}

	targetArr, targetIsArr := target.([]interface{})
	sourceArr, sourceIsArr := source.([]interface{})
	if targetIsArr && sourceIsArr {
		return ArrayMerge(targetArr, sourceArr)
	}

	return source
}

// ArrayMerge implements spec.md §4.1's array-merge: if any element of
// either side carries an "id" key, merge by id (source overrides a
// matching target element; non-matching source elements are appended,
// target order preserved). Otherwise it is a dedup-preserving
// set-union of target then source.
func ArrayMerge(target, source []interface{}) []interface{} {
	if hasIDObjects(target) || hasIDObjects(source) {
		return mergeByID(target, source)
	}
	return unionDedup(target, source)
}

func hasIDObjects(arr []interface{}) bool {
	for _, el := range arr {
		if obj, ok := asObject(el); ok {
			if _, hasID := obj["id"]; hasID {
				return true
			}
		}
	}
	return false
}

func mergeByID(target, source []interface{}) []interface{} {
	type sourceItem struct {
		id    interface{}
		hasID bool
		el    interface{}
	}
	sourceByID := make(map[interface{}]interface{}, len(source))
	var sourceOrder []sourceItem
	for _, el := range source {
		if obj, ok := asObject(el); ok {
			if id, hasID := obj["id"]; hasID {
				sourceByID[id] = el
				sourceOrder = append(sourceOrder, sourceItem{id: id, hasID: true})
				continue
			}
		}
		// Source elements without an id are treated as unconditional appends.
		sourceOrder = append(sourceOrder, sourceItem{el: el})
	}

	seen := make(map[interface{}]bool)
	result := make([]interface{}, 0, len(target)+len(source))
	for _, el := range target {
		if obj, ok := asObject(el); ok {
			if id, hasID := obj["id"]; hasID {
				if override, ok := sourceByID[id]; ok {
					result = append(result, override)
					seen[id] = true
					continue
				}
				result = append(result, el)
				continue
			}
		}
		result = append(result, el)
	}
	for _, item := range sourceOrder {
		if item.hasID {
			if seen[item.id] {
				continue
			}
			result = append(result, sourceByID[item.id])
			continue
		}
		result = append(result, item.el)
	}
	return result
}

// ArrayUnionDedup is the unconditional dedup-preserving union ArrayMerge
// falls back to when neither side carries id-keyed objects; exported so
// callers needing that specific semantics (e.g. the conflict resolver's
// array-append merge strategy) don't have to re-derive it.
func ArrayUnionDedup(target, source []interface{}) []interface{} {
	return unionDedup(target, source)
}

func unionDedup(target, source []interface{}) []interface{} {
	seen := make(map[string]bool, len(target)+len(source))
	result := make([]interface{}, 0, len(target)+len(source))
	for _, el := range target {
		key := serializeKey(el)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, el)
	}
	for _, el := range source {
		key := serializeKey(el)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, el)
	}
	return result
}

func serializeKey(v interface{}) string {
	b, err := jsonMarshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
