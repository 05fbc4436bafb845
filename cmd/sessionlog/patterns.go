package main

import (
	"github.com/spf13/cobra"

	"github.com/dotneet/claude-code-marketplace/internal/scan"
)

func patternsCmd() *cobra.Command {
	var opts scan.Options
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "extract-patterns",
		Short: "Aggregate tool usage, file access, preferences and errors across recent sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkLimit(opts.Limit); err != nil {
				return err
			}

			ctx, cancel, a, cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			w, err := out.writer(cmd, cfg)
			if err != nil {
				return err
			}

			r, err := a.ExtractPatterns(ctx, opts)
			if err != nil {
				return err
			}
			return w.Patterns(r)
		},
	}

	cmd.Flags().StringVar(&opts.Project, "project", "", "Only sessions whose project path contains this string")
	cmd.Flags().IntVar(&opts.Limit, "limit", 5, "Number of most recent sessions to analyze")
	cmd.Flags().BoolVar(&opts.AllAgents, "all-agents", false, "Include Codex sessions")
	out.register(cmd)

	return cmd
}
