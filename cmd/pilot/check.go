package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrhq/pilot/pkg/config"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check URL...",
		Short: "Show whether requests to the given URLs would be blocked",
		Long: `Check evaluates each URL against the configured blocklist plus any --block
entries and prints "abort" or "continue" followed by the URL.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := config.Load(a.flags.configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			policy, err := a.policy(cmd, m)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, raw := range args {
				fmt.Fprintf(out, "%-8s %s\n", policy.Decide(raw), raw)
			}
			return nil
		},
	}
}
