package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dotneet/claude-code-marketplace/internal/analyzer"
	"github.com/dotneet/claude-code-marketplace/internal/scan"
	"github.com/dotneet/claude-code-marketplace/internal/tui"
)

func browseCmd() *cobra.Command {
	var opts scan.Options

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse recent sessions interactively",
		Long:  `Opens a TUI listing recent sessions with a summary preview. Type to filter by project or path; Enter copies the resume command.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkLimit(opts.Limit); err != nil {
				return err
			}
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("browse needs an interactive terminal, use locate-sessions instead")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a := analyzer.New(cfg)
			return tui.Run(cmd.Context(), a, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Project, "project", "", "Only sessions whose project path contains this string")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "Max sessions to list")
	cmd.Flags().BoolVar(&opts.AllAgents, "all-agents", false, "Include Codex sessions")

	return cmd
}
