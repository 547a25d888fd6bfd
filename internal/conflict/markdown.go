package conflict

import (
	"regexp"
	"strings"
)

// mdSection is one heading-delimited block of a Markdown document.
type mdSection struct {
	Heading string
	Body    string
}

var headingPattern = regexp.MustCompile(`^#{1,6}\s+(.+?)\s*$`)

// parseMarkdownSections splits data into an ordered sequence of sections
// keyed by heading text. Content preceding the first heading, if any, is
// collected under the empty heading "".
func parseMarkdownSections(data []byte) []mdSection {
	lines := strings.Split(string(data), "\n")

	var sections []mdSection
	heading := ""
	var body []string

	flush := func() {
		sections = append(sections, mdSection{Heading: heading, Body: strings.TrimRight(strings.Join(body, "\n"), "\n")})
	}

	for _, line := range lines {
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			flush()
			heading = m[1]
			body = nil
			continue
		}
		body = append(body, line)
	}
	flush()

	return sections
}

var taskListItemPattern = regexp.MustCompile(`^\s*[-*]\s+\[( |x|X)\]\s+(.+)$`)

// taskIdentifier returns the stable key a task list item is tracked by:
// its leading numeric prefix (e.g. "3.", "3)" or "1.2") if present, else
// its first three words.
func taskIdentifier(text string) string {
	text = strings.TrimSpace(text)
	if m := regexp.MustCompile(`^(\d+(?:\.\d+)*)[.)]?(?:\s|$)`).FindStringSubmatch(text); m != nil {
		return m[1]
	}
	words := strings.Fields(text)
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.ToLower(strings.Join(words, " "))
}

// hasTaskList reports whether body contains at least one Markdown task
// list item.
func hasTaskList(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		if taskListItemPattern.MatchString(line) {
			return true
		}
	}
	return false
}

// preserveTaskStatus marks any item in newBody whose identifier
// matches a checked item in existingBody as checked, leaving everything
// else in newBody untouched.
func preserveTaskStatus(existingBody, newBody string) string {
	checked := make(map[string]bool)
	for _, line := range strings.Split(existingBody, "\n") {
		m := taskListItemPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if strings.EqualFold(m[1], "x") {
			checked[taskIdentifier(m[2])] = true
		}
	}

	lines := strings.Split(newBody, "\n")
	for i, line := range lines {
		m := taskListItemPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if checked[taskIdentifier(m[2])] {
			lines[i] = taskListItemPattern.ReplaceAllString(line, replacementFor(line, m[2]))
		}
	}
	return strings.Join(lines, "\n")
}

func replacementFor(line, text string) string {
	idx := strings.Index(line, "[")
	if idx < 0 {
		return line
	}
	return line[:idx] + "[x]" + line[idx+3:]
}
