// Package analyze runs the pre-commit issue analysis for staged source
// files. The policy is fail-safe: a backend that cannot be reached, times
// out, or answers with unparseable JSON produces a blocking result, because
// silently skipping review on infrastructure failure is worse than an
// aborted commit.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/zyzyva/summarizer/cli/internal/ollama"
	"github.com/zyzyva/summarizer/cli/internal/prompt"
)

// Severity grades an analysis result.
type Severity string

const (
	SeverityLow  Severity = "low"
	SeverityHigh Severity = "high"
)

// Result is the outcome of analyzing one staged file.
type Result struct {
	Path        string
	Issues      []string
	Severity    Severity
	ShouldBlock bool
}

// Client is the slice of the Ollama client analysis needs; tests pass a double.
type Client interface {
	Ping(ctx context.Context) error
	Generate(ctx context.Context, model, promptText string, mode prompt.Mode, opts *ollama.Options) (*ollama.Response, error)
}

// Options configures File. Zero value is usable.
type Options struct {
	Temperature float64
	// DebugWriter, when set, receives the raw model response text.
	DebugWriter io.Writer
}

// File analyzes one staged file's diff. It probes the backend first so an
// absent server fails fast, then asks for the JSON verdict. Any transport or
// parse failure yields the blocking fail-safe result rather than an error;
// the caller always gets a usable Result.
func File(ctx context.Context, client Client, model, path, diffText string, opts *Options) Result {
	if err := client.Ping(ctx); err != nil {
		return failSafe(path, err)
	}
	genOpts := &ollama.Options{}
	if opts != nil {
		genOpts.Temperature = opts.Temperature
	}
	res, err := client.Generate(ctx, model, prompt.Analysis(path, diffText), prompt.ModeJSON, genOpts)
	if err != nil {
		return failSafe(path, err)
	}
	if opts != nil && opts.DebugWriter != nil {
		fmt.Fprintf(opts.DebugWriter, "summarizer: analysis response for %s:\n%s\n", path, res.Text)
	}
	return fromJSON(path, res.JSON)
}

// fromJSON maps the parsed object onto a Result. All three keys must be
// present (a partial object means the model ignored the schema); values that
// are present but unusable default leniently, so a sloppy model answer does
// not block a commit on its own.
func fromJSON(path string, obj map[string]json.RawMessage) Result {
	issuesRaw, hasIssues := obj["issues"]
	severityRaw, hasSeverity := obj["severity"]
	blockRaw, hasBlock := obj["should_block"]
	if !hasIssues || !hasSeverity || !hasBlock {
		return failSafe(path, fmt.Errorf("analysis object missing required keys: %w", ollama.ErrMalformedJSON))
	}

	r := Result{Path: path, Severity: SeverityLow, ShouldBlock: false}
	var issues []string
	if err := json.Unmarshal(issuesRaw, &issues); err == nil {
		r.Issues = issues
	}
	var sev string
	if err := json.Unmarshal(severityRaw, &sev); err == nil && Severity(sev) == SeverityHigh {
		r.Severity = SeverityHigh
	}
	var block bool
	if err := json.Unmarshal(blockRaw, &block); err == nil {
		r.ShouldBlock = block
	}
	return r
}

// failSafe is the blocking result used whenever analysis itself failed.
func failSafe(path string, err error) Result {
	return Result{
		Path:        path,
		Issues:      []string{fmt.Sprintf("could not analyze %s: %v", path, err)},
		Severity:    SeverityHigh,
		ShouldBlock: true,
	}
}
