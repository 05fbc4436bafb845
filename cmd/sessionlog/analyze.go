package main

import (
	"github.com/spf13/cobra"

	"github.com/dotneet/claude-code-marketplace/internal/analyzer"
)

func analyzeCmd() *cobra.Command {
	var out outputFlags
	selected := make(map[string]*bool, len(analyzer.ModeNames))

	cmd := &cobra.Command{
		Use:   "analyze-session <file>",
		Short: "Analyze one session log",
		Long: `Extracts one view of a session log: a summary (default), the user messages,
tool usage, tool errors, stated user preferences, or all of them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modeName := "summary"
			for _, name := range analyzer.ModeNames {
				if *selected[name] {
					modeName = name
				}
			}
			mode, err := analyzer.ParseMode(modeName)
			if err != nil {
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

			r, err := a.AnalyzeSession(ctx, args[0], mode)
			if err != nil {
				return err
			}
			return w.Session(r)
		},
	}

	usage := map[string]string{
		"summary":       "Line counts, time range, working directory and branch (default)",
		"user-messages": "Every message the user typed",
		"tools":         "Tool usage counts and read/edited files",
		"errors":        "Tool results that report an error",
		"preferences":   "User messages stating rules or preferences",
		"all":           "Every section",
	}
	for _, name := range analyzer.ModeNames {
		selected[name] = cmd.Flags().Bool(name, false, usage[name])
	}
	cmd.MarkFlagsMutuallyExclusive(analyzer.ModeNames...)
	out.register(cmd)

	return cmd
}
