package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dotneet/claude-code-marketplace/internal/parse"
	"github.com/dotneet/claude-code-marketplace/internal/scan"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config and roots, and show log file stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, _, cfg, err := setup(cmd)
			if err != nil {
				return errors.Wrap(err, "config")
			}
			defer cancel()

			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "=== Config ===")
			if cfg.Path != "" {
				fmt.Fprintf(out, "  File: %s (OK)\n", cfg.Path)
			} else {
				fmt.Fprintln(out, "  File: none (using defaults)")
			}
			fmt.Fprintf(out, "  Deadline: %s  Workers: %d\n", cfg.DeadlineDuration(), cfg.Workers)

			fmt.Fprintln(out, "\n=== Roots ===")
			checkDir(out, "Claude", cfg.ClaudeRoot)
			checkDir(out, "Codex", cfg.CodexRoot)

			fmt.Fprintln(out, "\n=== File Scan ===")
			files, err := scan.Discover(ctx, scan.RootsFromConfig(cfg), true)
			if err != nil {
				fmt.Fprintf(out, "  scan error: %v\n", err)
				return nil
			}

			counts := map[parse.Dialect]int{}
			unknown := 0
			var size int64
			for _, f := range files {
				counts[f.Source]++
				size += f.Size
				if d, err := parse.Classify(f.Path); err != nil || d == parse.DialectUnknown {
					unknown++
				}
			}
			fmt.Fprintf(out, "  Claude JSONL files: %d\n", counts[parse.DialectClaude])
			fmt.Fprintf(out, "  Codex  JSONL files: %d\n", counts[parse.DialectCodex])
			fmt.Fprintf(out, "  Unrecognized:       %d\n", unknown)
			fmt.Fprintf(out, "  Total size:         %s\n", humanize.Bytes(uint64(size)))
			return nil
		},
	}
}

func checkDir(out io.Writer, name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Fprintf(out, "  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Fprintf(out, "  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Fprintf(out, "  %s: %s (OK)\n", name, path)
	}
}
