package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/onionsearch/internal/config"
	"github.com/nao1215/onionsearch/internal/database"
	"github.com/nao1215/onionsearch/internal/log"
	"github.com/nao1215/onionsearch/internal/report"
	"github.com/spf13/cobra"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// flagValue returns the string form of a local or inherited flag, or "".
func flagValue(cmd *cobra.Command, name string) string {
	if f := cmd.Flag(name); f != nil {
		return f.Value.String()
	}
	return ""
}

// override stores the value of flag name in dst when the user set the flag.
// Flags left at their default do not mask values from the configuration file.
func override[T any](cmd *cobra.Command, name string, dst *T, get func(string) (T, error)) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := get(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// loadConfig builds the configuration from defaults, the YAML file and the
// global flags. Command flags are applied by each command afterwards.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.ConfigFilePath = flagValue(cmd, "config")

	if _, err := cfg.Load(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.Verbose = getVerboseFlag(cmd)
	if dir := flagValue(cmd, "data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	return cfg, nil
}

// setupLogger creates the secure logger for the command and installs it as
// the slog default.
func setupLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	var logger *slog.Logger
	if flagValue(cmd, "log-json") == "true" {
		logger = log.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)
	} else {
		logger = log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	}
	slog.SetDefault(logger)
	return logger
}

// signalContext returns the command context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// openDB opens the page store in the configured data directory.
// With create false a missing database is an error.
func openDB(cfg *config.Config, logger *slog.Logger, create bool) (*database.CrawlDB, error) {
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = create
	opts.Logger = logger

	db, err := database.Open(cfg.DataDir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", db.Path())
	return db, nil
}

// addReportFlags registers the output format flags shared by search and assess.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().Bool("markdown", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// applyReportFlags copies the format flags into cfg.
func applyReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	if err := override(cmd, "json", &cfg.JSONReport, cmd.Flags().GetBool); err != nil {
		return err
	}
	return override(cmd, "markdown", &cfg.MarkdownReport, cmd.Flags().GetBool)
}

// newReportWriter returns the writer for the configured format.
func newReportWriter(w io.Writer, cfg *config.Config) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(w, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
}

// openOutput returns the destination selected by --output, or stdout.
// The returned close function must always be called.
func openOutput(cmd *cobra.Command) (io.Writer, func() error, error) {
	path, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, nil, err
	}
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports list crawled onion URLs; keep them owner-readable only.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-selected output path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
