package conflict

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// GenerateReport renders a Markdown report of conflicts: one heading per
// path, grouped conflict kinds, and an inline text diff of old/new
// content where available, produced with go-diff's diffmatchpatch
// DiffPrettyText (insertions and deletions marked with ANSI colors).
func GenerateReport(conflicts []Detail) string {
	if len(conflicts) == 0 {
		return "No conflicts detected.\n"
	}

	dmp := diffmatchpatch.New()

	byPath := make(map[string][]Detail)
	var order []string
	for _, c := range conflicts {
		if _, seen := byPath[c.Path]; !seen {
			order = append(order, c.Path)
		}
		byPath[c.Path] = append(byPath[c.Path], c)
	}

	var b strings.Builder
	for _, path := range order {
		fmt.Fprintf(&b, "## %s\n\n", path)
		for _, c := range byPath[path] {
			if c.Section != "" {
				fmt.Fprintf(&b, "- **%s** (section %q)\n", c.Kind, c.Section)
			} else {
				fmt.Fprintf(&b, "- **%s**\n", c.Kind)
			}
			if c.OldValue != "" || c.NewValue != "" {
				diffs := dmp.DiffMain(c.OldValue, c.NewValue, false)
				b.WriteString("\n```diff\n")
				b.WriteString(dmp.DiffPrettyText(diffs))
				b.WriteString("\n```\n")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
