package diffengine

// ConflictKind classifies why two trees disagree at a shared path.
type ConflictKind string

const (
	// ValueConflict means both sides define the key with the same
	// JSON type but different values.
	ValueConflict ConflictKind = "value_conflict"
	// TypeConflict means the two sides disagree on JSON type entirely
	// (e.g. an object on one side, a string on the other).
	TypeConflict ConflictKind = "type_conflict"
)

// Conflict describes one path where source and target disagree.
type Conflict struct {
	Path        string
	Kind        ConflictKind
	SourceValue interface{}
	TargetValue interface{}
}

// GetConflicts walks only the keys common to both source and target and
// reports every path where their values differ, classified by whether
// the disagreement is a same-type value change or a type change
// altogether. Keys present on only one side are additions/deletions, not
// conflicts, and are not reported here.
func GetConflicts(source, target interface{}) []Conflict {
	var conflicts []Conflict
	collectConflicts(rootPath, source, target, &conflicts)
	return conflicts
}

func collectConflicts(path string, source, target interface{}, out *[]Conflict) {
	sourceObj, sourceIsObj := asObject(source)
	targetObj, targetIsObj := asObject(target)

	if sourceIsObj && targetIsObj {
		for key, sourceVal := range sourceObj {
			targetVal, inTarget := targetObj[key]
			if !inTarget {
				continue
			}
			collectConflicts(joinPath(path, key), sourceVal, targetVal, out)
		}
		return
	}

	if sourceIsObj != targetIsObj {
		*out = append(*out, Conflict{Path: path, Kind: TypeConflict, SourceValue: source, TargetValue: target})
		return
	}

	sourceArr, sourceIsArr := source.([]interface{})
	targetArr, targetIsArr := target.([]interface{})
	if sourceIsArr != targetIsArr {
		*out = append(*out, Conflict{Path: path, Kind: TypeConflict, SourceValue: source, TargetValue: target})
		return
	}
	if sourceIsArr && targetIsArr {
		if !serializedEqual(sourceArr, targetArr) {
			*out = append(*out, Conflict{Path: path, Kind: ValueConflict, SourceValue: source, TargetValue: target})
		}
		return
	}

	if !serializedEqual(source, target) {
		kind := ValueConflict
		if sourceTypeName(source) != sourceTypeName(target) {
			kind = TypeConflict
		}
		*out = append(*out, Conflict{Path: path, Kind: kind, SourceValue: source, TargetValue: target})
	}
}

func sourceTypeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case float64, int, int64:
		return "number"
	case string:
		return "string"
	default:
		return "other"
	}
}
