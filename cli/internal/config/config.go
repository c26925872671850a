// Package config provides summarizer configuration with a defined load order:
// CLI flags > environment variables > repo config > global config > .env > defaults.
//
// Paths:
//   - Repo: .summarizer.toml (relative to repo root)
//   - Global: XDG config dir, e.g. ~/.config/summarizer/config.toml (see os.UserConfigDir)
//   - .env at repo root (lowest precedence after defaults; loaded via godotenv)
//
// Environment variables (override config files when set):
//   - SUMMARIZER_MODEL (or OLLAMA_MODEL as a fallback override),
//   - SUMMARIZER_OLLAMA_BASE_URL,
//   - SUMMARIZER_CONNECT_TIMEOUT, SUMMARIZER_READ_TIMEOUT (Go duration string or integer seconds),
//   - SUMMARIZER_TEMPERATURE (Ollama model runtime option; passed to /api/generate),
//   - SUMMARIZER_ANALYZE_EXTENSIONS (space- or comma-separated list, e.g. ".ex .exs .rb"),
//   - SUMMARIZER_ANALYSIS (enable issue analysis: 1/true/yes/on = true, 0/false/no/off = false),
//   - SUMMARIZER_DEBUG (echo raw backend responses to stdout: same boolean forms).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/zyzyva/summarizer/cli/internal/erruser"
)

// Config holds all summarizer configuration.
type Config struct {
	Model          string        `toml:"model"`
	OllamaBaseURL  string        `toml:"ollama_base_url"`
	ConnectTimeout time.Duration `toml:"connect_timeout"`
	ReadTimeout    time.Duration `toml:"read_timeout"`
	// Temperature is passed to Ollama /api/generate options (default 0.2).
	Temperature float64 `toml:"temperature"`
	// AnalyzeExtensions lists file extensions (with leading dot) eligible for issue analysis.
	AnalyzeExtensions []string `toml:"analyze_extensions"`
	// AnalysisEnabled runs the per-file issue analysis pass before generation. Default true.
	AnalysisEnabled bool `toml:"analysis_enabled"`
	// Debug echoes raw backend responses to stdout.
	Debug bool `toml:"debug"`
}

// Overrides represents optional CLI flag overrides. Non-nil pointer means
// "override with this value". Applied last (highest precedence).
type Overrides struct {
	Model             *string
	OllamaBaseURL     *string
	ConnectTimeout    *time.Duration
	ReadTimeout       *time.Duration
	Temperature       *float64
	AnalyzeExtensions *[]string
	AnalysisEnabled   *bool
	Debug             *bool
}

// LoadOptions configures Load. All fields are optional.
type LoadOptions struct {
	// RepoRoot is the repository root; if set, repo config is RepoRoot/.summarizer.toml
	// and RepoRoot/.env is read for fallback values.
	RepoRoot string
	// GlobalConfigPath is the global config file path; if empty, XDG path is used.
	GlobalConfigPath string
	// Env is the environment key=value slice; if nil, os.Environ() is used.
	Env []string
	// Overrides are applied last (highest precedence).
	Overrides *Overrides
}

const (
	_defaultModel          = "qwen2.5-coder:7b"
	_defaultOllamaBaseURL  = "http://localhost:11434"
	_defaultConnectTimeout = 10 * time.Second
	// Local inference is slow; a generate call can legitimately take minutes.
	_defaultReadTimeout = 180 * time.Second
	_defaultTemperature = 0.2
)

// defaultAnalyzeExtensions returns a fresh slice so callers cannot alias the default.
func defaultAnalyzeExtensions() []string {
	return []string{".ex", ".exs", ".rb", ".py", ".js", ".go"}
}

// DefaultConfig returns the default configuration (no I/O).
func DefaultConfig() Config {
	return Config{
		Model:             _defaultModel,
		OllamaBaseURL:     _defaultOllamaBaseURL,
		ConnectTimeout:    _defaultConnectTimeout,
		ReadTimeout:       _defaultReadTimeout,
		Temperature:       _defaultTemperature,
		AnalyzeExtensions: defaultAnalyzeExtensions(),
		AnalysisEnabled:   true,
		Debug:             false,
	}
}

// Load loads configuration with precedence:
// defaults < .env < global file < repo file < env < overrides.
// Missing config files are ignored. Invalid TOML or invalid env values return an error.
func Load(opts LoadOptions) (*Config, error) {
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	cfg := DefaultConfig()

	if opts.RepoRoot != "" {
		if dotenv, err := godotenv.Read(filepath.Join(opts.RepoRoot, ".env")); err == nil {
			if err := applyEnvMap(&cfg, dotenv); err != nil {
				return nil, err
			}
		}
	}

	globalPath := opts.GlobalConfigPath
	if globalPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, erruser.New("Could not determine config directory.", err)
		}
		globalPath = filepath.Join(dir, "summarizer", "config.toml")
	}
	if err := mergeFile(&cfg, globalPath); err != nil {
		return nil, err
	}

	if opts.RepoRoot != "" {
		if err := mergeFile(&cfg, filepath.Join(opts.RepoRoot, ".summarizer.toml")); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&cfg, opts.Env); err != nil {
		return nil, err
	}

	applyOverrides(&cfg, opts.Overrides)
	return &cfg, nil
}

// mergeFile reads path and merges into cfg. Only overwrites fields that are
// present and non-zero in the file. Missing file is skipped (no error).
func mergeFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return erruser.New("Invalid configuration file.", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return erruser.New("Could not read configuration file.", err)
	}
	var file struct {
		Model             *string   `toml:"model"`
		OllamaBaseURL     *string   `toml:"ollama_base_url"`
		ConnectTimeout    *string   `toml:"connect_timeout"`
		ReadTimeout       *string   `toml:"read_timeout"`
		Temperature       *float64  `toml:"temperature"`
		AnalyzeExtensions *[]string `toml:"analyze_extensions"`
		AnalysisEnabled   *bool     `toml:"analysis_enabled"`
		Debug             *bool     `toml:"debug"`
	}
	if _, err := toml.Decode(string(data), &file); err != nil {
		return erruser.New(fmt.Sprintf("Invalid configuration in %s.", filepath.Base(path)), err)
	}
	if file.Model != nil && *file.Model != "" {
		cfg.Model = *file.Model
	}
	if file.OllamaBaseURL != nil && *file.OllamaBaseURL != "" {
		cfg.OllamaBaseURL = *file.OllamaBaseURL
	}
	if file.ConnectTimeout != nil && *file.ConnectTimeout != "" {
		d, err := parseDuration(*file.ConnectTimeout)
		if err != nil {
			return erruser.New("Configuration connect_timeout is invalid.", err)
		}
		cfg.ConnectTimeout = d
	}
	if file.ReadTimeout != nil && *file.ReadTimeout != "" {
		d, err := parseDuration(*file.ReadTimeout)
		if err != nil {
			return erruser.New("Configuration read_timeout is invalid.", err)
		}
		cfg.ReadTimeout = d
	}
	if file.Temperature != nil && *file.Temperature >= 0 && *file.Temperature <= 2 {
		cfg.Temperature = *file.Temperature
	}
	if file.AnalyzeExtensions != nil {
		exts, err := normalizeExtensions(*file.AnalyzeExtensions)
		if err != nil {
			return erruser.New("Configuration analyze_extensions is invalid.", err)
		}
		cfg.AnalyzeExtensions = exts
	}
	if file.AnalysisEnabled != nil {
		cfg.AnalysisEnabled = *file.AnalysisEnabled
	}
	if file.Debug != nil {
		cfg.Debug = *file.Debug
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	// Try Go duration first (e.g. "3m", "30s")
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}
	// Try integer seconds
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return time.Duration(n) * time.Second, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// normalizeExtensions trims entries, ensures a leading dot, and drops empties.
// Returns an error when the list ends up empty (misconfigured filter would
// silently disable analysis).
func normalizeExtensions(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil, errors.New("no extensions listed")
	}
	return out, nil
}

// splitExtensionList splits a space- or comma-separated extension list.
func splitExtensionList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
}

// env key names for config
const (
	envModel             = "SUMMARIZER_MODEL"
	envOllamaModel       = "OLLAMA_MODEL"
	envOllamaBaseURL     = "SUMMARIZER_OLLAMA_BASE_URL"
	envConnectTimeout    = "SUMMARIZER_CONNECT_TIMEOUT"
	envReadTimeout       = "SUMMARIZER_READ_TIMEOUT"
	envTemperature       = "SUMMARIZER_TEMPERATURE"
	envAnalyzeExtensions = "SUMMARIZER_ANALYZE_EXTENSIONS"
	envAnalysisEnabled   = "SUMMARIZER_ANALYSIS"
	envDebug             = "SUMMARIZER_DEBUG"
)

func applyEnv(cfg *Config, env []string) error {
	vals := make(map[string]string)
	for _, e := range env {
		idx := strings.Index(e, "=")
		if idx <= 0 {
			continue
		}
		vals[strings.TrimSpace(e[:idx])] = strings.TrimSpace(e[idx+1:])
	}
	return applyEnvMap(cfg, vals)
}

func applyEnvMap(cfg *Config, vals map[string]string) error {
	// OLLAMA_MODEL is the shared Ollama convention; SUMMARIZER_MODEL wins when both are set.
	if v, ok := vals[envOllamaModel]; ok && v != "" {
		cfg.Model = v
	}
	if v, ok := vals[envModel]; ok && v != "" {
		cfg.Model = v
	}
	if v, ok := vals[envOllamaBaseURL]; ok && v != "" {
		cfg.OllamaBaseURL = v
	}
	if v, ok := vals[envConnectTimeout]; ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return erruser.New("SUMMARIZER_CONNECT_TIMEOUT must be a valid duration.", err)
		}
		cfg.ConnectTimeout = d
	}
	if v, ok := vals[envReadTimeout]; ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return erruser.New("SUMMARIZER_READ_TIMEOUT must be a valid duration.", err)
		}
		cfg.ReadTimeout = d
	}
	if v, ok := vals[envTemperature]; ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return erruser.New("SUMMARIZER_TEMPERATURE must be a valid number.", err)
		}
		if f < 0 || f > 2 {
			return erruser.New("SUMMARIZER_TEMPERATURE must be between 0 and 2.", nil)
		}
		cfg.Temperature = f
	}
	if v, ok := vals[envAnalyzeExtensions]; ok && v != "" {
		exts, err := normalizeExtensions(splitExtensionList(v))
		if err != nil {
			return erruser.New("SUMMARIZER_ANALYZE_EXTENSIONS must list at least one extension.", err)
		}
		cfg.AnalyzeExtensions = exts
	}
	if v, ok := vals[envAnalysisEnabled]; ok && v != "" {
		b, err := parseBool(v)
		if err != nil {
			return erruser.New("SUMMARIZER_ANALYSIS must be 1/true/yes/on or 0/false/no/off.", err)
		}
		cfg.AnalysisEnabled = b
	}
	if v, ok := vals[envDebug]; ok && v != "" {
		b, err := parseBool(v)
		if err != nil {
			return erruser.New("SUMMARIZER_DEBUG must be 1/true/yes/on or 0/false/no/off.", err)
		}
		cfg.Debug = b
	}
	return nil
}

func applyOverrides(cfg *Config, o *Overrides) {
	if o == nil {
		return
	}
	if o.Model != nil && *o.Model != "" {
		cfg.Model = *o.Model
	}
	if o.OllamaBaseURL != nil && *o.OllamaBaseURL != "" {
		cfg.OllamaBaseURL = *o.OllamaBaseURL
	}
	if o.ConnectTimeout != nil && *o.ConnectTimeout > 0 {
		cfg.ConnectTimeout = *o.ConnectTimeout
	}
	if o.ReadTimeout != nil && *o.ReadTimeout > 0 {
		cfg.ReadTimeout = *o.ReadTimeout
	}
	if o.Temperature != nil && *o.Temperature >= 0 && *o.Temperature <= 2 {
		cfg.Temperature = *o.Temperature
	}
	if o.AnalyzeExtensions != nil && len(*o.AnalyzeExtensions) > 0 {
		if exts, err := normalizeExtensions(*o.AnalyzeExtensions); err == nil {
			cfg.AnalyzeExtensions = exts
		}
	}
	if o.AnalysisEnabled != nil {
		cfg.AnalysisEnabled = *o.AnalysisEnabled
	}
	if o.Debug != nil {
		cfg.Debug = *o.Debug
	}
}
