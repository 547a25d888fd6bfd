// Package audit implements the deployment core's Audit Logger
// (spec.md §4.6): dual human-readable/structured log streams with
// size-based rotation, age-based retention, and key-name redaction,
// grounded on the teacher's slog-based logger and its size/age-bounded
// lumberjack writer.
package audit

import "regexp"

// sensitiveKeyPattern matches context keys that must be redacted before
// serialization, case-insensitively.
var sensitiveKeyPattern = regexp.MustCompile(`(?i)password|apikey|secret|token|auth`)

const redactedPlaceholder = "[REDACTED]"

// redact walks v (expected to be the result of unmarshaling arbitrary
// JSON, or a plain map built in-process) and returns a copy with every
// map key matching sensitiveKeyPattern replaced by redactedPlaceholder,
// recursing into nested maps and slices.
func redact(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			if sensitiveKeyPattern.MatchString(k) {
				out[k] = redactedPlaceholder
				continue
			}
			out[k] = redact(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = redact(val)
		}
		return out
	default:
		return v
	}
}
