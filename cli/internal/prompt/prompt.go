// Package prompt builds the three prompts the hook sends to the model:
// summary line, detail bullets, and per-file issue analysis. Each builder
// states its response mode explicitly so the client never has to sniff
// prompt text to pick a parser.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Mode tells the inference client how to treat the model's response.
type Mode int

const (
	// ModeFreeText expects prose; the raw response text is returned as-is.
	ModeFreeText Mode = iota
	// ModeJSON expects a JSON object somewhere in the response text.
	ModeJSON
)

func (m Mode) String() string {
	if m == ModeJSON {
		return "json"
	}
	return "free-text"
}

// maxDiffChars caps the diff text included in any prompt so a huge changeset
// does not blow the model's context window.
const maxDiffChars = 32 * 1024

const summaryInstructions = `You write git commit messages from a unified diff.
Write ONE summary line for this change, 50 characters or less, imperative mood
(e.g. "Move cache config to shared file" not "Moved"). Output only that line:
no preamble, no markdown, no quotes.`

const bulletsInstructions = `You write git commit messages from a unified diff.
List the concrete changes as plain bullet lines, one per line, each starting
with "* ". State file names and values exactly as they appear in the diff.
When a setting moves between files, write "from <old file> to <new file>".
Output only the bullet lines: no preamble, no markdown, no code fences.`

const analysisInstructions = `You review a staged change for problems before it is committed.
Respond with a single JSON object and nothing else:
{"issues": ["..."], "severity": "low" or "high", "should_block": true or false}
Report only real defects (bugs, broken config, leaked secrets). Style opinions
are not issues. When in doubt use severity "low" and should_block false.`

// Summary returns the first-pass prompt asking for the 50-char summary line.
func Summary(diffText string) string {
	return summaryInstructions + "\n\nDiff:\n" + Truncate(diffText)
}

// Bullets returns the second-pass prompt asking for detail bullets.
func Bullets(diffText string) string {
	return bulletsInstructions + "\n\nDiff:\n" + Truncate(diffText)
}

// Analysis returns the issue-analysis prompt for one staged file.
func Analysis(path, diffText string) string {
	return fmt.Sprintf("%s\n\nFile: %s\n\nDiff:\n%s", analysisInstructions, path, Truncate(diffText))
}

// Truncate caps diff text at maxDiffChars without splitting a rune, marking
// the cut so the model knows content is missing.
func Truncate(diffText string) string {
	if len(diffText) <= maxDiffChars {
		return diffText
	}
	cut := maxDiffChars
	for cut > 0 && !utf8.RuneStart(diffText[cut]) {
		cut--
	}
	return strings.TrimRight(diffText[:cut], "\n") + "\n\n[truncated for context]"
}
