package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ciforge/ciforge/internal/audit"
	"github.com/ciforge/ciforge/internal/schedule"
	"github.com/ciforge/ciforge/internal/server"
	"github.com/ciforge/ciforge/internal/tool"
)

func newServeCmd() *cobra.Command {
	var (
		root       string
		httpListen string
		mcpListen  string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP and HTTP listeners",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()
			logger.Info("ciforge starting", "version", version, "git_commit", gitCommit, "build_time", buildTime)

			cfg, err := loadConfig(root, httpListen, mcpListen, configPath)
			if err != nil {
				return err
			}
			logger.Info("effective config",
				"workspace_root", cfg.WorkspaceRoot,
				"http_listen", cfg.HTTPListen,
				"mcp_listen", cfg.MCPListen,
				"audit_enabled", cfg.DatabaseURL != "",
				"auth_enabled", cfg.JWTSecret != "",
				"ci_schedule", cfg.Tools.CISchedule,
			)

			var auditor server.Auditor
			if cfg.DatabaseURL != "" {
				store, err := audit.Open(cfg.DatabaseURL)
				if err != nil {
					logger.Error("audit store init failed", "err", err)
					return err
				}
				defer store.Close()
				auditor = store
			}

			registry := buildRegistry(cfg, logger)
			dispatcher := server.NewDispatcher(registry, auditor, logger)

			var scheduler *schedule.Scheduler
			if cfg.Tools.CISchedule != "" {
				scheduler, err = schedule.New(cfg.Tools.CISchedule, func(ctx context.Context) {
					if _, err := dispatcher.Call(ctx, tool.Request{Tool: "full_ci"}); err != nil {
						logger.Error("scheduled pipeline dispatch failed", "err", err)
					}
				}, logger)
				if err != nil {
					return err
				}
				scheduler.Start()
				defer scheduler.Stop()
			}

			httpServer := server.NewHTTPServer(cfg.HTTPListen, dispatcher, cfg.JWTSecret, logger)
			mcpServer := server.NewMCPServer(cfg.MCPListen, dispatcher, logger, version)

			errCh := make(chan error, 2)
			go func() { errCh <- httpServer.ListenAndServe() }()
			go func() { errCh <- mcpServer.ListenAndServe() }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case sig := <-sigCh:
				logger.Info("shutting down", "signal", sig.String())
			case err := <-errCh:
				logger.Error("server error", "err", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			httpServer.Shutdown(ctx)
			mcpServer.Shutdown(ctx)
			logger.Info("shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "workspace root (default $CIFORGE_WORKSPACE_ROOT or .)")
	cmd.Flags().StringVar(&httpListen, "http-listen", "", "HTTP listen address (default $CIFORGE_HTTP_LISTEN or 0.0.0.0:8080)")
	cmd.Flags().StringVar(&mcpListen, "mcp-listen", "", "MCP listen address (default $CIFORGE_MCP_LISTEN or 0.0.0.0:8090)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to ciforge.yaml (default <root>/ciforge.yaml)")
	return cmd
}
