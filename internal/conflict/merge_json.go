package conflict

import (
	"encoding/json"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/diffengine"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// mergeJSON dispatches a JSON merge by mergeStrategy: plain deep-merge
// (diffengine's id-aware array merge, source wins on primitive conflict)
// or deep-merge with every array field unconditionally reduced to a
// deduplicated union, ignoring any "id" keys.
func mergeJSON(existing, newContent []byte, mergeStrategy types.MergeStrategy) ([]byte, error) {
	var target, source interface{}
	if err := json.Unmarshal(existing, &target); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(newContent, &source); err != nil {
		return nil, err
	}

	var merged interface{}
	if mergeStrategy == types.MergeArrayAppend {
		merged = deepMergeArrayAppend(target, source)
	} else {
		merged = diffengine.DeepMerge(target, source)
	}

	return json.MarshalIndent(merged, "", "  ")
}

// deepMergeArrayAppend merges like diffengine.DeepMerge but, per
// spec.md §4.4's array-append merge strategy, every array field
// encountered is reduced to a deduplicated union regardless of whether
// its elements carry an "id" key.
func deepMergeArrayAppend(target, source interface{}) interface{} {
	targetObj, targetIsObj := asObjectMap(target)
	sourceObj, sourceIsObj := asObjectMap(source)
	if targetIsObj && sourceIsObj {
		merged := make(map[string]interface{}, len(targetObj)+len(sourceObj))
		for k, v := range targetObj {
			merged[k] = v
		}
		for k, sv := range sourceObj {
			if tv, ok := targetObj[k]; ok {
				merged[k] = deepMergeArrayAppend(tv, sv)
			} else {
				merged[k] = sv
			}
		}
		return merged
	}

	targetArr, targetIsArr := target.([]interface{})
	sourceArr, sourceIsArr := source.([]interface{})
	if targetIsArr && sourceIsArr {
		return diffengine.ArrayUnionDedup(targetArr, sourceArr)
	}

	return source
}

func asObjectMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}
