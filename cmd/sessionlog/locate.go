package main

import (
	"github.com/spf13/cobra"

	"github.com/dotneet/claude-code-marketplace/internal/scan"
)

func locateCmd() *cobra.Command {
	var opts scan.Options
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "locate-sessions",
		Short: "List recent session logs, newest first",
		Long: `Lists Claude Code session logs under ~/.claude/projects (and Codex logs under
~/.codex/sessions with --all-agents), newest first. Sub-agent logs are excluded.`,
		Args: cobra.NoArgs,
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

			files, err := a.Locate(ctx, opts)
			if err != nil {
				return err
			}
			return w.Sessions(files)
		},
	}

	cmd.Flags().StringVar(&opts.Project, "project", "", "Only sessions whose project path contains this string")
	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "Max sessions to list")
	cmd.Flags().BoolVar(&opts.AllAgents, "all-agents", false, "Include Codex sessions")
	out.register(cmd)

	return cmd
}
