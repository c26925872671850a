// Package hook sequences one prepare-commit-msg invocation: skip rules,
// staged diff collection, per-file issue analysis, two-pass message
// generation, and the final commit-message file write. Analysis failures
// block the commit; generation failures degrade to the editor's default
// content.
package hook

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zyzyva/summarizer/cli/internal/analyze"
	"github.com/zyzyva/summarizer/cli/internal/config"
	"github.com/zyzyva/summarizer/cli/internal/diff"
	"github.com/zyzyva/summarizer/cli/internal/erruser"
	"github.com/zyzyva/summarizer/cli/internal/facts"
	"github.com/zyzyva/summarizer/cli/internal/format"
	"github.com/zyzyva/summarizer/cli/internal/git"
	"github.com/zyzyva/summarizer/cli/internal/ollama"
	"github.com/zyzyva/summarizer/cli/internal/prompt"
	"github.com/zyzyva/summarizer/cli/internal/sanitize"
	"github.com/zyzyva/summarizer/cli/internal/verify"
)

// Client is the slice of the Ollama client the hook uses.
type Client interface {
	Ping(ctx context.Context) error
	Generate(ctx context.Context, model, promptText string, mode prompt.Mode, opts *ollama.Options) (*ollama.Response, error)
}

// Params carries one invocation's collaborators and inputs.
type Params struct {
	Cfg     *config.Config
	Gateway git.Gateway
	Client  Client
	// MsgFile is the commit-message file git passed to the hook.
	MsgFile string
	// Source is git's commit source argument: empty for a fresh interactive
	// commit, "merge"/"commit"/"template"/... otherwise.
	Source string
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes the hook. The returned exit code follows git's contract:
// 0 lets the commit proceed, 1 aborts it.
func Run(ctx context.Context, p Params) (int, error) {
	if p.Source != "" {
		// Merge, amend, or template commits already carry a message.
		return 0, nil
	}

	changes, err := diff.Collect(p.Gateway, p.Stderr)
	if err != nil {
		return 1, err
	}
	if len(changes) == 0 {
		fmt.Fprintln(p.Stdout, "summarizer: no staged changes, nothing to do.")
		return 0, nil
	}

	if p.Cfg.AnalysisEnabled {
		if code := p.analyzeStaged(ctx, changes); code != 0 {
			return code, nil
		}
	}

	fullDiff := diff.Concat(changes)
	if strings.TrimSpace(fullDiff) == "" {
		fmt.Fprintln(p.Stdout, "summarizer: staged changes have no readable diff, leaving message untouched.")
		return 0, nil
	}

	msg, ok := p.generateMessage(ctx, fullDiff)
	if !ok || msg == "" {
		return 0, nil
	}

	if err := writePreservingComments(p.MsgFile, msg); err != nil {
		return 1, err
	}
	fmt.Fprintln(p.Stdout, "summarizer: wrote generated commit message.")
	return 0, nil
}

// analyzeStaged runs issue analysis over each analyzable staged file,
// strictly one at a time. The first blocking result aborts with exit 1.
func (p Params) analyzeStaged(ctx context.Context, changes []diff.StagedChange) int {
	opts := &analyze.Options{Temperature: p.Cfg.Temperature}
	if p.Cfg.Debug {
		opts.DebugWriter = p.Stdout
	}
	for _, c := range diff.FilterByExt(changes, p.Cfg.AnalyzeExtensions) {
		if strings.TrimSpace(c.DiffText) == "" {
			continue
		}
		res := analyze.File(ctx, p.Client, p.Cfg.Model, c.Path, c.DiffText, opts)
		if res.ShouldBlock {
			fmt.Fprintf(p.Stderr, "summarizer: commit blocked by analysis of %s:\n", c.Path)
			for _, issue := range res.Issues {
				fmt.Fprintf(p.Stderr, "  - %s\n", issue)
			}
			return 1
		}
	}
	return 0
}

// generateMessage runs the two generation passes. Any failure prints a note
// and reports ok=false; the commit then proceeds with the editor's default
// content, never blocked by a generation problem.
func (p Params) generateMessage(ctx context.Context, fullDiff string) (msg string, ok bool) {
	if err := p.Client.Ping(ctx); err != nil {
		fmt.Fprintf(p.Stderr, "summarizer: backend unavailable, skipping message generation: %v\n", err)
		return "", false
	}
	opts := &ollama.Options{Temperature: p.Cfg.Temperature}

	summaryRes, err := p.Client.Generate(ctx, p.Cfg.Model, prompt.Summary(fullDiff), prompt.ModeFreeText, opts)
	if err != nil {
		fmt.Fprintf(p.Stderr, "summarizer: could not generate summary, skipping message generation: %v\n", err)
		return "", false
	}
	p.debugEcho("summary", summaryRes.Text)

	bulletsRes, err := p.Client.Generate(ctx, p.Cfg.Model, prompt.Bullets(fullDiff), prompt.ModeFreeText, opts)
	if err != nil {
		fmt.Fprintf(p.Stderr, "summarizer: could not generate details, skipping message generation: %v\n", err)
		return "", false
	}
	p.debugEcho("bullets", bulletsRes.Text)

	summary := sanitize.Clean(summaryRes.Text)
	rawBullets := sanitize.CleanLines(bulletsRes.Text)
	bullets := verify.Bullets(rawBullets, fullDiff, facts.Extract(fullDiff))
	return format.Message(summary, bullets), true
}

func (p Params) debugEcho(pass, raw string) {
	if p.Cfg.Debug {
		fmt.Fprintf(p.Stdout, "summarizer: raw %s response:\n%s\n", pass, raw)
	}
}

// Suggest runs only the generation pipeline and returns the message instead
// of writing it anywhere. Backs the suggest command.
func Suggest(ctx context.Context, p Params) (string, error) {
	changes, err := diff.Collect(p.Gateway, p.Stderr)
	if err != nil {
		return "", err
	}
	fullDiff := diff.Concat(changes)
	if strings.TrimSpace(fullDiff) == "" {
		return "", erruser.New("Nothing is staged; stage changes first with git add.", nil)
	}
	msg, ok := p.generateMessage(ctx, fullDiff)
	if !ok || msg == "" {
		return "", erruser.New("Could not generate a commit message.", nil)
	}
	return msg, nil
}

// writePreservingComments writes msg to the commit-message file, re-appending
// any pre-existing "#" comment lines (git's status hints) after it, verbatim
// and in their original order.
func writePreservingComments(path, msg string) error {
	var comments []string
	if existing, err := os.ReadFile(path); err == nil {
		for _, line := range strings.Split(string(existing), "\n") {
			if strings.HasPrefix(line, "#") {
				comments = append(comments, line)
			}
		}
	}
	content := msg + "\n"
	if len(comments) > 0 {
		content += "\n" + strings.Join(comments, "\n") + "\n"
	}
	return os.WriteFile(path, []byte(content), 0644)
}
