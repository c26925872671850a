// Package facts extracts structured signals from staged diff text:
// configuration assignments that moved between files, and named numeric
// bindings that give those assignments human-readable values. Extraction is
// best-effort and pure; lines that match nothing are skipped and no input
// ever produces an error.
package facts

import (
	"regexp"
	"strings"

	"github.com/zyzyva/summarizer/cli/internal/diff"
)

// ConfigFact is one configuration key observed moving in the diff. A key
// removed from one file and added to another merges into a single fact.
type ConfigFact struct {
	Key          string // "<app>.<key>"
	RemovedFrom  string // file the assignment left, "" if pure addition
	AddedTo      string // file the assignment entered, "" if pure removal
	OldValueExpr string // value on the removed line
	NewValueExpr string // value on the added line
}

// Binding is a named numeric expression, e.g. four_hours = 4*60*60*1000.
type Binding struct {
	Name string
	Expr string
}

// Set is the result of one extraction pass.
type Set struct {
	Facts []ConfigFact // first-seen order
	// Bindings holds names defined on added lines (current meaning).
	Bindings map[string]Binding
	// OldBindings holds names defined only on removed lines, kept for
	// resolving old values. An added binding for the same name wins.
	OldBindings map[string]Binding
}

// Empty reports whether nothing was extracted.
func (s Set) Empty() bool {
	return len(s.Facts) == 0 && len(s.Bindings) == 0 && len(s.OldBindings) == 0
}

// Resolve returns the expression bound to name, preferring current (added)
// bindings. old selects the removed-line binding first, for old values.
func (s Set) Resolve(name string, old bool) (string, bool) {
	if old {
		if b, ok := s.OldBindings[name]; ok {
			return b.Expr, true
		}
	}
	if b, ok := s.Bindings[name]; ok {
		return b.Expr, true
	}
	if b, ok := s.OldBindings[name]; ok {
		return b.Expr, true
	}
	return "", false
}

// Grammar holds the line patterns extraction scans for. The defaults cover
// Elixir-style config assignments and simple arithmetic bindings; callers
// can swap patterns to support other diff shapes without touching the
// verifier.
type Grammar struct {
	// ConfigAssignment must expose three capture groups: app, key, value.
	ConfigAssignment *regexp.Regexp
	// VariableBinding must expose two capture groups: name, expression.
	VariableBinding *regexp.Regexp
}

// DefaultGrammar matches `config :app, key: value` assignments and
// `name = <digits with * and +>` bindings.
func DefaultGrammar() Grammar {
	return Grammar{
		ConfigAssignment: regexp.MustCompile(`^config\s+:(\w+),\s*(\w+):\s*([^,#]+)`),
		VariableBinding:  regexp.MustCompile(`^(\w+)\s*=\s*([0-9(][0-9*+()\s]*)$`),
	}
}

// Extract runs the default grammar over concatenated diff text.
func Extract(diffText string) Set {
	return DefaultGrammar().Extract(diffText)
}

// Extract scans each file section's removed lines for config assignments,
// then added lines across all files, merging by key so a remove-then-add
// becomes one moved fact. Bindings are taken from added lines first; removed
// lines contribute a binding only when no addition redefined the name.
func (g Grammar) Extract(diffText string) Set {
	set := Set{
		Bindings:    make(map[string]Binding),
		OldBindings: make(map[string]Binding),
	}
	sections := diff.FileSections(diffText)
	index := make(map[string]int) // key -> position in set.Facts

	record := func(path, line string, added bool) {
		m := g.ConfigAssignment.FindStringSubmatch(line)
		if m == nil {
			return
		}
		key := m[1] + "." + m[2]
		value := strings.TrimSpace(m[3])
		i, ok := index[key]
		if !ok {
			set.Facts = append(set.Facts, ConfigFact{Key: key})
			i = len(set.Facts) - 1
			index[key] = i
		}
		if added {
			set.Facts[i].AddedTo = path
			set.Facts[i].NewValueExpr = value
		} else {
			set.Facts[i].RemovedFrom = path
			set.Facts[i].OldValueExpr = value
		}
	}

	for _, sec := range sections {
		for _, line := range removedLines(sec.Body) {
			record(sec.Path, line, false)
		}
	}
	for _, sec := range sections {
		for _, line := range addedLines(sec.Body) {
			record(sec.Path, line, true)
		}
	}

	for _, sec := range sections {
		for _, line := range addedLines(sec.Body) {
			if m := g.VariableBinding.FindStringSubmatch(line); m != nil {
				set.Bindings[m[1]] = Binding{Name: m[1], Expr: strings.TrimSpace(m[2])}
			}
		}
	}
	for _, sec := range sections {
		for _, line := range removedLines(sec.Body) {
			if m := g.VariableBinding.FindStringSubmatch(line); m != nil {
				if _, exists := set.Bindings[m[1]]; !exists {
					set.OldBindings[m[1]] = Binding{Name: m[1], Expr: strings.TrimSpace(m[2])}
				}
			}
		}
	}
	return set
}

// addedLines returns the content of "+" lines in a diff body, excluding the
// "+++" file header, with the marker and surrounding space stripped.
func addedLines(body string) []string {
	return markedLines(body, '+', "+++")
}

// removedLines is the "-" counterpart, excluding "---".
func removedLines(body string) []string {
	return markedLines(body, '-', "---")
}

func markedLines(body string, marker byte, headerPrefix string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		if len(line) == 0 || line[0] != marker {
			continue
		}
		if strings.HasPrefix(line, headerPrefix) {
			continue
		}
		out = append(out, strings.TrimSpace(line[1:]))
	}
	return out
}
