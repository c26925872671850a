// Command summarizer is a git prepare-commit-msg hook that drafts the commit
// message from the staged diff using a local Ollama model. Install it by
// pointing .git/hooks/prepare-commit-msg at the binary.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zyzyva/summarizer/cli/internal/config"
	"github.com/zyzyva/summarizer/cli/internal/erruser"
	"github.com/zyzyva/summarizer/cli/internal/git"
	"github.com/zyzyva/summarizer/cli/internal/hook"
	"github.com/zyzyva/summarizer/cli/internal/ollama"
	"github.com/zyzyva/summarizer/cli/internal/version"
)

func main() {
	os.Exit(Run())
}

// errExit is an error that carries an exit code for the CLI. Use errors.As to detect it.
type errExit int

func (e errExit) Error() string {
	return "exit " + strconv.Itoa(int(e))
}

// Run is the entry point for the CLI. Exported for tests.
func Run() int {
	return runCLI(os.Args[1:])
}

func runCLI(args []string) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		var exitErr errExit
		if errors.As(err, &exitErr) {
			return int(exitErr)
		}
		fmt.Fprintln(os.Stderr, err)
		if u := errors.Unwrap(err); u != nil {
			fmt.Fprintf(os.Stderr, "Details: %v\n", u)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "summarizer <commit-msg-file> [source] [sha]",
		Short:   "Generate commit messages from staged diffs with a local LLM",
		Version: version.String(),
		// Git passes up to three positional args; the commit SHA is unused.
		Args: cobra.RangeArgs(1, 3),
		RunE: runHook,
	}
	addConfigFlags(cmd)
	cmd.AddCommand(newSuggestCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("model", "", "Model name (overrides config and SUMMARIZER_MODEL)")
	cmd.PersistentFlags().String("base-url", "", "Ollama API root (default http://localhost:11434)")
	cmd.PersistentFlags().Bool("debug", false, "Echo raw backend responses to stdout")
	cmd.Flags().Bool("no-analysis", false, "Skip the pre-commit issue analysis pass")
}

// loadConfig resolves the repo root (best effort) and loads layered config
// with any flag overrides applied.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	repoRoot := ""
	if cwd, err := os.Getwd(); err == nil {
		if r, err := git.RepoRoot(cwd); err == nil {
			repoRoot = r
		}
	}
	o := &config.Overrides{}
	if v, err := cmd.Flags().GetString("model"); err == nil && v != "" {
		o.Model = &v
	}
	if v, err := cmd.Flags().GetString("base-url"); err == nil && v != "" {
		o.OllamaBaseURL = &v
	}
	if v, err := cmd.Flags().GetBool("debug"); err == nil && v {
		o.Debug = &v
	}
	if v, err := cmd.Flags().GetBool("no-analysis"); err == nil && v {
		enabled := false
		o.AnalysisEnabled = &enabled
	}
	return config.Load(config.LoadOptions{RepoRoot: repoRoot, Overrides: o})
}

func runHook(cmd *cobra.Command, args []string) error {
	source := ""
	if len(args) >= 2 {
		source = args[1]
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	code, err := hook.Run(cmd.Context(), hook.Params{
		Cfg:     cfg,
		Gateway: &git.ExecGateway{},
		Client:  ollama.NewClient(cfg.OllamaBaseURL, cfg.ConnectTimeout, cfg.ReadTimeout),
		MsgFile: args[0],
		Source:  source,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	})
	if err != nil {
		return err
	}
	if code != 0 {
		return errExit(code)
	}
	return nil
}

func newSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest",
		Short: "Print a generated commit message for the staged diff without writing anything",
		Args:  cobra.NoArgs,
		RunE:  runSuggest,
	}
}

func runSuggest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	msg, err := hook.Suggest(cmd.Context(), hook.Params{
		Cfg:     cfg,
		Gateway: &git.ExecGateway{},
		Client:  ollama.NewClient(cfg.OllamaBaseURL, cfg.ConnectTimeout, cfg.ReadTimeout),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, msg)
	return nil
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Verify the Ollama backend and configured model",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client := ollama.NewClient(cfg.OllamaBaseURL, cfg.ConnectTimeout, cfg.ReadTimeout)
	models, err := client.Models(cmd.Context())
	if err != nil {
		if errors.Is(err, ollama.ErrUnreachable) {
			fmt.Fprintf(os.Stderr, "Ollama unreachable at %s. Is the server running? For local: ollama serve.\n", cfg.OllamaBaseURL)
			fmt.Fprintf(os.Stderr, "Details: %v\n", err)
			return errExit(2)
		}
		return erruser.New("Could not check the Ollama server.", err)
	}
	present := false
	for _, name := range models {
		if name == cfg.Model {
			present = true
			break
		}
	}
	if !present {
		fmt.Fprintf(os.Stderr, "Model %q not found. Pull it with: ollama pull %s\n", cfg.Model, cfg.Model)
		return errExit(1)
	}
	fmt.Fprintln(os.Stdout, "Ollama OK")
	fmt.Fprintf(os.Stdout, "Model: %s\n", cfg.Model)
	return nil
}
