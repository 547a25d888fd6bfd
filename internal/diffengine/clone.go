package diffengine

import "encoding/json"

// jsonMarshal is a thin wrapper used by merge.go; diff.go imports
// encoding/json directly for its own equality check.
func jsonMarshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// deepClone round-trips v through JSON to produce an independent copy.
// Every value flowing through this package originated from an
// unmarshaled Context or artifact tree, so it is always JSON-shaped;
// the round trip is the cheapest correct way to clone it without a
// reflection-based deep-copy dependency.
func deepClone(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}
