package conflict

import "strings"

type fileExtKind int

const (
	kindOther fileExtKind = iota
	kindJSON
	kindMarkdown
)

func fileKind(path string) fileExtKind {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".json"):
		return kindJSON
	case strings.HasSuffix(lower, ".md"), strings.HasSuffix(lower, ".markdown"):
		return kindMarkdown
	default:
		return kindOther
	}
}
