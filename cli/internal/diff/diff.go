// Package diff collects staged changes through the git gateway and slices
// concatenated diff output back into per-file sections.
package diff

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/zyzyva/summarizer/cli/internal/git"
)

// StagedChange is one staged file and its staged diff text.
type StagedChange struct {
	Path     string
	DiffText string
}

// Collect fetches the staged diff for every staged file. A diff failure for
// an individual file is softened to empty text with a note on errw; the rest
// of the run proceeds.
func Collect(gw git.Gateway, errw io.Writer) ([]StagedChange, error) {
	paths, err := gw.ListStaged()
	if err != nil {
		return nil, err
	}
	changes := make([]StagedChange, 0, len(paths))
	for _, p := range paths {
		text, err := gw.StagedDiff(p)
		if err != nil {
			if errw != nil {
				fmt.Fprintf(errw, "summarizer: skipping diff for %s: %v\n", p, err)
			}
			text = ""
		}
		changes = append(changes, StagedChange{Path: p, DiffText: text})
	}
	return changes, nil
}

// Concat joins the diff text of all changes, in staged order.
func Concat(changes []StagedChange) string {
	var b strings.Builder
	for _, c := range changes {
		if c.DiffText == "" {
			continue
		}
		b.WriteString(c.DiffText)
		if !strings.HasSuffix(c.DiffText, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// FilterByExt returns the changes whose path has one of the given extensions.
// Extensions carry a leading dot; matching is case-insensitive.
func FilterByExt(changes []StagedChange, exts []string) []StagedChange {
	var out []StagedChange
	for _, c := range changes {
		ext := strings.ToLower(filepath.Ext(c.Path))
		for _, e := range exts {
			if ext == strings.ToLower(e) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// FileSection is one file's slice of a concatenated unified diff.
type FileSection struct {
	Path string
	Body string // the section text including +/- lines, without the next file's header
}

// FileSections splits `git diff` output on "diff --git" headers so each
// returned section carries the path it belongs to. Text before the first
// header (none, in well-formed output) is dropped. Binary file notices yield
// a section with an empty body of change lines, which extraction skips
// naturally.
func FileSections(diffText string) []FileSection {
	const prefix = "diff --git "
	var sections []FileSection
	lines := strings.Split(diffText, "\n")
	var cur *FileSection
	var body []string
	flush := func() {
		if cur != nil {
			cur.Body = strings.Join(body, "\n")
			sections = append(sections, *cur)
		}
		cur, body = nil, nil
	}
	for _, line := range lines {
		if strings.HasPrefix(line, prefix) {
			flush()
			cur = &FileSection{Path: pathFromHeader(line)}
			continue
		}
		if cur != nil {
			body = append(body, line)
		}
	}
	flush()
	return sections
}

// pathFromHeader extracts the b/ path from a "diff --git a/x b/x" line,
// falling back to the a/ path for deletions.
func pathFromHeader(line string) string {
	rest := strings.TrimPrefix(line, "diff --git ")
	parts := strings.Fields(rest)
	if len(parts) >= 2 {
		if p := trimDiffPath(parts[1]); p != "" && p != "/dev/null" {
			return p
		}
		return trimDiffPath(parts[0])
	}
	if len(parts) == 1 {
		return trimDiffPath(parts[0])
	}
	return ""
}

func trimDiffPath(s string) string {
	if len(s) >= 2 && (s[0] == 'a' || s[0] == 'b') && s[1] == '/' {
		return s[2:]
	}
	return s
}
