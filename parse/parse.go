// Package parse splits semi-structured model output into named sections and
// list items.
//
// Agents ask the model to respond using upper-case section headers
// ("TARGET FILES:", "DECISION:", ...). The parser is deliberately tolerant:
// it classifies lines, never fails, and lets callers decide which sections
// they care about.
package parse

import (
	"regexp"
	"strings"
	"unicode"
)

// Sections holds the parsed sections of a response, in document order.
type Sections struct {
	order  []string
	bodies map[string]string
}

// Get returns the body of a named section and whether it was present.
// Lookup is by exact header name (already upper-cased by the splitter).
func (s *Sections) Get(name string) (string, bool) {
	body, ok := s.bodies[name]
	return body, ok
}

// GetAny returns the first present section among the given names.
func (s *Sections) GetAny(names ...string) (string, bool) {
	for _, name := range names {
		if body, ok := s.bodies[name]; ok {
			return body, true
		}
	}
	return "", false
}

// Names returns section names in the order they appeared.
func (s *Sections) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of recognized sections.
func (s *Sections) Len() int {
	return len(s.order)
}

// Split divides text into sections. A line starts a new section when, after
// trimming, it ends with ":" and the text before the colon is upper-case
// (at least one upper-case letter, no lower-case letters — so hyphenated
// headers like "STEP-BY-STEP PLAN" qualify). Lines before the first header
// are discarded. Any line matching the header shape starts a section, even
// one the caller never asked for.
func Split(text string) *Sections {
	s := &Sections{bodies: make(map[string]string)}

	var current string
	var body []string

	flush := func() {
		if current == "" {
			return
		}
		if _, seen := s.bodies[current]; !seen {
			s.order = append(s.order, current)
		}
		s.bodies[current] = strings.Join(body, "\n")
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if name, ok := headerName(trimmed); ok {
			flush()
			current = name
			body = nil
			continue
		}
		if current != "" {
			body = append(body, line)
		}
	}
	flush()

	return s
}

// headerName reports whether a trimmed line has the header shape and
// returns the header name without the trailing colon.
func headerName(trimmed string) (string, bool) {
	if trimmed == "" || !strings.HasSuffix(trimmed, ":") {
		return "", false
	}
	name := trimmed[:len(trimmed)-1]
	if !isUpper(name) {
		return "", false
	}
	return name, true
}

// isUpper mirrors the classification used when the header convention was
// defined: true when the string has no lower-case letters and at least one
// upper-case letter. Digits, spaces, and punctuation are neutral.
func isUpper(s string) bool {
	hasUpper := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}

var (
	bulletRe = regexp.MustCompile(`^[-*•]\s*`)
	numberRe = regexp.MustCompile(`^\d+\.\s*`)
)

// Items extracts an ordered list from a section body. Each non-blank line
// is stripped of one leading bullet marker ("-", "*", "•") or numeric
// marker ("1."), then trimmed; lines that end up empty are dropped.
func Items(body string) []string {
	var items []string
	for _, line := range strings.Split(body, "\n") {
		cleaned := strings.TrimSpace(bulletRe.ReplaceAllString(strings.TrimSpace(line), ""))
		cleaned = strings.TrimSpace(numberRe.ReplaceAllString(cleaned, ""))
		if cleaned != "" {
			items = append(items, cleaned)
		}
	}
	return items
}

var numberedLineRe = regexp.MustCompile(`(?m)^\d+\.\s*(.+)$`)

// NumberedItems extracts only lines shaped like "<n>. text", anchored at
// line start. Returns nil when no line matches.
func NumberedItems(body string) []string {
	matches := numberedLineRe.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	items := make([]string, 0, len(matches))
	for _, m := range matches {
		items = append(items, strings.TrimSpace(m[1]))
	}
	return items
}
