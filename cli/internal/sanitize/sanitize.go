// Package sanitize strips the conversational wrapping local models add
// around generated text even when the prompt forbids it: lead-in sentences,
// markdown fences, and echoed placeholder syntax from prompt examples.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// A first line like "Here's a commit summary for the diff:" up to and
	// including its line break.
	preambleRe = regexp.MustCompile(`(?i)^(here'?s|here is|the|this is|i have|i've|generated|based on)\b[^\n]*\b(summary|message|diff|bullets?|list|changes?)\b[^\n]*\n?`)
	// Fenced code block markers, with or without a language tag.
	fenceRe = regexp.MustCompile("(?m)^```[a-zA-Z]*\n?")
	// Inline code spans; the inner text is kept.
	inlineCodeRe = regexp.MustCompile("`([^`\n]*)`")
	// The prompt's own example annotation, echoed verbatim by some models.
	placeholderRe = regexp.MustCompile(`\(\s*variable\s*=\s*actual value\s*\)`)
)

// Clean normalizes one block of model output. Applied independently to the
// summary text and the bullets text.
func Clean(text string) string {
	text = strings.TrimSpace(text)
	text = preambleRe.ReplaceAllString(text, "")
	text = fenceRe.ReplaceAllString(text, "")
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	text = placeholderRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// CleanLines cleans text and splits it into non-empty trimmed-right lines.
func CleanLines(text string) []string {
	cleaned := Clean(text)
	if cleaned == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
