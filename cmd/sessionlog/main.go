package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dotneet/claude-code-marketplace/internal/analyzer"
	"github.com/dotneet/claude-code-marketplace/internal/config"
	"github.com/dotneet/claude-code-marketplace/internal/logger"
	"github.com/dotneet/claude-code-marketplace/internal/report"
)

var version = "dev"

type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	timeout    time.Duration
}

var globals globalOptions

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sessionlog",
		Short:         "Session Log Analyzer - locate and analyze Claude Code and Codex session logs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Configure(globals.logLevel, globals.logFormat)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&globals.configPath, "config", "", "Config file (default ~/.config/sessionlog/config.toml)")
	pf.StringVar(&globals.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVar(&globals.logFormat, "log-format", logger.FormatText, "Log format (text, json)")
	pf.DurationVar(&globals.timeout, "timeout", 0, "Overall deadline (overrides config, e.g. 30s)")

	rootCmd.AddCommand(locateCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(patternsCmd())
	rootCmd.AddCommand(browseCmd())
	rootCmd.AddCommand(openCmd())
	rootCmd.AddCommand(doctorCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(globals.configPath)
	if err != nil {
		return nil, err
	}
	if globals.timeout < 0 {
		return nil, errors.Errorf("--timeout must not be negative")
	}
	if globals.timeout > 0 {
		cfg.Deadline = globals.timeout.String()
	}
	return cfg, nil
}

// setup loads the configuration and returns an analyzer with a context bound
// by the invocation deadline.
func setup(cmd *cobra.Command) (context.Context, context.CancelFunc, *analyzer.Analyzer, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	ctx := logger.With(cmd.Context(), "command", cmd.Name())
	a := analyzer.New(cfg)
	ctx, cancel := a.WithDeadline(ctx)
	return ctx, cancel, a, cfg, nil
}

func checkLimit(limit int) error {
	if limit < 0 {
		return errors.Errorf("--limit must not be negative, got %d", limit)
	}
	return nil
}

// outputFlags are the --json/--format flags shared by reporting commands.
type outputFlags struct {
	json   bool
	format string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.json, "json", false, "Output JSON (same as --format json)")
	cmd.Flags().StringVar(&o.format, "format", "text", "Output format (text, json, yaml)")
}

func (o *outputFlags) writer(cmd *cobra.Command, cfg *config.Config) (*report.Writer, error) {
	format, err := report.ParseFormat(o.format, o.json)
	if err != nil {
		return nil, err
	}
	return report.NewWriter(cmd.OutOrStdout(), format, cfg.DisplayWidth), nil
}
