package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ciforge/ciforge/internal/auth"
)

// newTokenCmd mints an API bearer token from the configured secret.
func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an HTTP API bearer token signed with CIFORGE_JWT_SECRET",
		RunE: func(_ *cobra.Command, _ []string) error {
			secret := os.Getenv("CIFORGE_JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("CIFORGE_JWT_SECRET is not set")
			}
			token, err := auth.Sign(secret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "ciforge-client", "sub claim for the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
