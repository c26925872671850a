// Package format enforces git commit message conventions: a summary line of
// at most 50 characters and body lines wrapped at 72, with two-space
// continuation indents under bullets.
package format

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	summaryLimit = 50
	bodyLimit    = 72
	// Continuation segments leave room for the two-space indent.
	continuationLimit  = 70
	bulletMarker       = "* "
	continuationIndent = "  "
)

// Message assembles the final commit message: truncated summary, blank line,
// wrapped body. Either part may be empty; surplus blank lines are collapsed.
func Message(summary string, bullets []string) string {
	summary = Summary(summary)
	var body []string
	for _, line := range bullets {
		body = append(body, wrapLine(line)...)
	}
	var parts []string
	if summary != "" {
		parts = append(parts, summary)
	}
	if len(body) > 0 {
		parts = append(parts, strings.Join(body, "\n"))
	}
	return collapseBlankRuns(strings.TrimSpace(strings.Join(parts, "\n\n")))
}

// Summary hard-cuts the summary line at 50 characters. No ellipsis; a cut
// mid-word is preferred over an overlong first line.
func Summary(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return truncateUTF8(s, summaryLimit)
}

// wrapLine wraps one body line. Bullet lines get word-aware wrapping with
// indented continuations; anything else is hard-truncated at 72, an
// intentional asymmetry since only bullets are expected in the body.
func wrapLine(line string) []string {
	line = strings.TrimRight(line, " \t")
	if len(line) <= bodyLimit {
		return []string{line}
	}
	if !strings.HasPrefix(line, bulletMarker) {
		return []string{truncateUTF8(line, bodyLimit)}
	}

	first, rest := splitAtSpace(line, bodyLimit)
	out := []string{first}
	for _, seg := range wrapWords(rest, continuationLimit) {
		out = append(out, continuationIndent+seg)
	}
	return out
}

// splitAtSpace cuts s at the last space at or before limit, returning the
// head and the remaining text. Without a space in the window, the cut is a
// hard one at limit.
func splitAtSpace(s string, limit int) (head, rest string) {
	if len(s) <= limit {
		return s, ""
	}
	cut := strings.LastIndexByte(s[:limit+1], ' ')
	if cut <= 0 {
		cut = limit
	}
	return strings.TrimRight(s[:cut], " "), strings.TrimLeft(s[cut:], " ")
}

// wrapWords greedily packs words into segments of at most width bytes. A
// single word longer than width becomes its own overlong segment rather than
// being split.
func wrapWords(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	var segs []string
	cur := words[0]
	for _, w := range words[1:] {
		if len(cur)+1+len(w) <= width {
			cur += " " + w
			continue
		}
		segs = append(segs, cur)
		cur = w
	}
	return append(segs, cur)
}

var blankRunRe = regexp.MustCompile(`\n{4,}`)

// collapseBlankRuns reduces any run of three or more blank lines to one.
func collapseBlankRuns(s string) string {
	return blankRunRe.ReplaceAllString(s, "\n\n")
}

// truncateUTF8 cuts s at limit bytes without leaving a partial rune.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
