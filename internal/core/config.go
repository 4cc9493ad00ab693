package core

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the explicit server context constructed once at startup and
// passed to every handler. There is no ambient global state.
type Config struct {
	WorkspaceRoot string
	HTTPListen    string
	MCPListen     string
	DatabaseURL   string
	JWTSecret     string

	Tools ToolConfig
}

// CommandConfig describes how one external analysis binary is invoked.
// The command line is configuration, not core logic.
type CommandConfig struct {
	Binary    string   `yaml:"binary"`
	Args      []string `yaml:"args"`
	FixArgs   []string `yaml:"fix_args,omitempty"`
	CheckArgs []string `yaml:"check_args,omitempty"`
}

// ToolConfig is the workspace tool configuration, loaded from ciforge.yaml
// at the workspace root when present. Env vars override individual fields
// in main.
type ToolConfig struct {
	Formatter  CommandConfig `yaml:"formatter"`
	Linter     CommandConfig `yaml:"linter"`
	Analyzer   CommandConfig `yaml:"analyzer"`
	GHBinary   string        `yaml:"gh_binary"`
	Extensions []string      `yaml:"extensions"`

	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	MaxOutputBytes   int    `yaml:"max_output_bytes"`
	PipelineTimeout  int    `yaml:"pipeline_timeout_seconds"`
	CISchedule       string `yaml:"ci_schedule,omitempty"`
	WorkflowsDir     string `yaml:"workflows_dir"`
}

// DefaultToolConfig returns the built-in tool configuration for C/C++
// workspaces: clang-format, clang-tidy, cppcheck.
func DefaultToolConfig() ToolConfig {
	return ToolConfig{
		Formatter: CommandConfig{
			Binary:    "clang-format",
			CheckArgs: []string{"--dry-run", "--Werror"},
			FixArgs:   []string{"-i"},
		},
		Linter: CommandConfig{
			Binary: "clang-tidy",
			Args:   []string{"--quiet"},
		},
		Analyzer: CommandConfig{
			Binary: "cppcheck",
			Args:   []string{"--enable=warning,style", "--template={file}:{line}:{column}: {severity}: {message}"},
		},
		GHBinary:        "gh",
		Extensions:      []string{".cpp", ".cc", ".cxx", ".h", ".hpp"},
		TimeoutSeconds:  300,
		MaxOutputBytes:  256 * 1024,
		PipelineTimeout: 600,
		WorkflowsDir:    ".github/workflows",
	}
}

// LoadToolConfig reads ciforge.yaml from path, layering it over the defaults.
// A missing file is not an error; a malformed one is.
func LoadToolConfig(path string) (ToolConfig, error) {
	cfg := DefaultToolConfig()

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read tool config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, NewError(ErrCodeYAMLInvalid, "parse %s: %v", path, err)
	}

	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 300
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = 256 * 1024
	}
	if cfg.PipelineTimeout <= 0 {
		cfg.PipelineTimeout = 600
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultToolConfig().Extensions
	}
	if cfg.WorkflowsDir == "" {
		cfg.WorkflowsDir = ".github/workflows"
	}
	return cfg, nil
}

// Timeout returns the per-tool subprocess timeout.
func (t ToolConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}
