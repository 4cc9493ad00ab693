package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ciforge/ciforge/internal/workflow"
)

// newValidateCmd checks workflow YAML files offline, with no server, no
// subprocesses, and no workspace config.
func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Structurally validate GitHub Actions workflow YAML files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			violations := 0
			for _, path := range args {
				raw, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				findings, err := workflow.ValidateDocument(path, string(raw))
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				for _, f := range findings {
					fmt.Printf("%s: %s\n", f.File, f.Message)
					violations++
				}
			}
			if violations > 0 {
				return fmt.Errorf("%d schema violation(s)", violations)
			}
			fmt.Printf("%d workflow document(s) valid\n", len(args))
			return nil
		},
	}
	return cmd
}
