package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ciforge/ciforge/internal/checks"
	"github.com/ciforge/ciforge/internal/core"
	"github.com/ciforge/ciforge/internal/ghcli"
	"github.com/ciforge/ciforge/internal/pipeline"
	"github.com/ciforge/ciforge/internal/proc"
	"github.com/ciforge/ciforge/internal/tool"
	"github.com/ciforge/ciforge/internal/workflow"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// loadConfig builds the server config from flags, environment, and the
// workspace ciforge.yaml. Flags win over env, env over the file.
func loadConfig(root, httpListen, mcpListen, configPath string) (core.Config, error) {
	if root == "" {
		root = envOrDefault("CIFORGE_WORKSPACE_ROOT", ".")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return core.Config{}, fmt.Errorf("resolve workspace root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return core.Config{}, fmt.Errorf("workspace root is not a directory: %s", abs)
	}

	if configPath == "" {
		configPath = filepath.Join(abs, "ciforge.yaml")
	}
	tools, err := core.LoadToolConfig(configPath)
	if err != nil {
		return core.Config{}, err
	}

	if httpListen == "" {
		httpListen = envOrDefault("CIFORGE_HTTP_LISTEN", "0.0.0.0:8080")
	}
	if mcpListen == "" {
		mcpListen = envOrDefault("CIFORGE_MCP_LISTEN", "0.0.0.0:8090")
	}

	return core.Config{
		WorkspaceRoot: abs,
		HTTPListen:    httpListen,
		MCPListen:     mcpListen,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     os.Getenv("CIFORGE_JWT_SECRET"),
		Tools:         tools,
	}, nil
}

// buildRegistry wires every tool handler and freezes the registry. All
// registration happens here, before any listener accepts a connection.
func buildRegistry(cfg core.Config, logger *slog.Logger) *tool.Registry {
	runner := proc.NewRunner(cfg.Tools.MaxOutputBytes, cfg.Tools.Timeout())
	checker := checks.NewChecker(cfg.WorkspaceRoot, runner, cfg.Tools)
	gh := ghcli.NewClient(runner, cfg.Tools.GHBinary, cfg.WorkspaceRoot)
	wf := workflow.NewTools(cfg.WorkspaceRoot, cfg.Tools, gh)

	orch := pipeline.NewOrchestrator([]pipeline.Stage{
		{Name: "format_check", Handler: checker.FormatCheck},
		{Name: "lint", Handler: checker.Lint},
		{Name: "analyze", Handler: checker.Analyze},
	}, logger)
	pipelineTimeout := time.Duration(cfg.Tools.PipelineTimeout) * time.Second

	reg := tool.NewRegistry()
	reg.Register(tool.Spec{
		Name:        "format_check",
		Description: "Check source formatting without modifying files",
		Params:      checks.FileSetParams(),
	}, checker.FormatCheck)
	reg.Register(tool.Spec{
		Name:        "format_fix",
		Description: "Rewrite non-conforming files in place with the formatter",
		Params:      checks.FileSetParams(),
	}, checker.FormatFix)
	reg.Register(tool.Spec{
		Name:        "lint",
		Description: "Run the linter over the file set",
		Params:      checks.FileSetParams(),
	}, checker.Lint)
	reg.Register(tool.Spec{
		Name:        "analyze",
		Description: "Run the static analyzer over the file set",
		Params:      checks.FileSetParams(),
	}, checker.Analyze)
	reg.Register(tool.Spec{
		Name:        "full_ci",
		Description: "Run format_check, lint, and analyze in order; continue on failure, abort on error",
		Params:      checks.FileSetParams(),
	}, func(ctx context.Context, args tool.Args) tool.Result {
		ctx, cancel := context.WithTimeout(ctx, pipelineTimeout)
		defer cancel()
		return orch.Handler(ctx, args)
	})
	reg.Register(tool.Spec{
		Name:        "check_workflow_runs",
		Description: "Query recent GitHub Actions runs via the gh CLI",
		Params: []tool.Param{
			{Name: "workflow", Type: tool.TypeString},
			{Name: "run_id", Type: tool.TypeInt},
			{Name: "limit", Type: tool.TypeInt, Default: 10},
		},
	}, wf.CheckRuns)
	reg.Register(tool.Spec{
		Name:        "validate_workflow_yaml",
		Description: "Structurally validate GitHub Actions workflow YAML",
		Params: []tool.Param{
			{Name: "document", Type: tool.TypeString},
			{Name: "file", Type: tool.TypeString},
		},
	}, wf.Validate)
	reg.Register(tool.Spec{
		Name:        "project_status",
		Description: "Report availability of the configured tool binaries and gh auth state",
	}, wf.ProjectStatus)
	reg.Freeze()
	return reg
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
