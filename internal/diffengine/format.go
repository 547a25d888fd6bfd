package diffengine

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

var (
	additionStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	modificationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	deletionStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	headingStyle      = lipgloss.NewStyle().Bold(true)
)

// FormatOptions controls FormatDiff's rendering.
type FormatOptions struct {
	// Color enables lipgloss ANSI styling. When false, output is plain
	// text suitable for log files and non-tty writers.
	Color bool
}

// FormatDiff renders a DiffResult as a human-readable, grouped summary:
// a heading per non-empty section followed by one "+ path", "~ path",
// or "- path" line per entry.
func FormatDiff(diff types.DiffResult, opts FormatOptions) string {
	var b strings.Builder

	writeSection(&b, "Additions", "+", diff.Additions, additionStyle, opts.Color)
	writeSection(&b, "Modifications", "~", diff.Modifications, modificationStyle, opts.Color)
	writeSection(&b, "Deletions", "-", diff.Deletions, deletionStyle, opts.Color)

	if b.Len() == 0 {
		return "(no changes)"
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeSection(b *strings.Builder, heading, marker string, entries []types.DiffEntry, style lipgloss.Style, color bool) {
	if len(entries) == 0 {
		return
	}
	if color {
		fmt.Fprintln(b, headingStyle.Render(heading+":"))
	} else {
		fmt.Fprintln(b, heading+":")
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s %s", marker, e.Path)
		if color {
			line = style.Render(line)
		}
		fmt.Fprintln(b, line)
	}
}
