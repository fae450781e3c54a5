package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrhq/pilot/pkg/computer"
	"github.com/entrhq/pilot/pkg/script"
)

func newRunCmd(a *app) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "run SCRIPT...",
		Short: "Replay YAML action scripts in one browser session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load every script before starting the browser
			scripts := make([]*script.Script, 0, len(args))
			for _, path := range args {
				s, err := script.Load(path)
				if err != nil {
					return err
				}
				scripts = append(scripts, s)
			}

			opts, err := a.options(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return computer.Use(ctx, opts, func(s *computer.Session) error {
				runner := script.NewRunner(s, a.logger().Named("script"), outputDir)
				for _, sc := range scripts {
					report, runErr := runner.Run(ctx, sc)
					if err := enc.Encode(report); err != nil {
						return fmt.Errorf("failed to write report: %w", err)
					}
					if runErr != nil {
						return runErr
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", ".", "directory for screenshots saved with a relative path")
	return cmd
}
