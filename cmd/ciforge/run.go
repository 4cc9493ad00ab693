package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ciforge/ciforge/internal/server"
	"github.com/ciforge/ciforge/internal/tool"
)

// newRunCmd dispatches a single tool without starting any listener. Useful
// from scripts and CI jobs where a long-lived server is overkill.
func newRunCmd() *cobra.Command {
	var (
		root       string
		configPath string
		rawArgs    string
	)

	cmd := &cobra.Command{
		Use:   "run <tool>",
		Short: "Invoke one tool and print the response envelope as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			cfg, err := loadConfig(root, "", "", configPath)
			if err != nil {
				return err
			}

			var toolArgs map[string]any
			if rawArgs != "" {
				if err := json.Unmarshal([]byte(rawArgs), &toolArgs); err != nil {
					return fmt.Errorf("parse --args: %w", err)
				}
			}

			registry := buildRegistry(cfg, logger)
			dispatcher := server.NewDispatcher(registry, nil, logger)

			env, err := dispatcher.Call(cmd.Context(), tool.Request{Tool: args[0], Arguments: toolArgs})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(env); err != nil {
				return err
			}
			if !env.OK {
				return fmt.Errorf("tool %s finished with status %s", args[0], env.Result.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "workspace root (default $CIFORGE_WORKSPACE_ROOT or .)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to ciforge.yaml (default <root>/ciforge.yaml)")
	cmd.Flags().StringVar(&rawArgs, "args", "", "tool arguments as a JSON object")
	return cmd
}
