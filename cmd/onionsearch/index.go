package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/onionsearch/internal/config"
	"github.com/nao1215/onionsearch/internal/index"
	"github.com/nao1215/onionsearch/internal/text"
	"github.com/spf13/cobra"
)

// NewIndexCmd creates the index command.
func NewIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the search indices from the stored pages",
		Long: `Index reads every stored page and rebuilds the boolean, TF-IDF and BM25
indices used by the search command.

Searches running during a rebuild keep using the previous indices.
The tokenizer settings of the configuration file must not change between
indexing and searching.`,
		Args: cobra.NoArgs,
		RunE: runIndexCmd,
	}
}

// runIndexCmd executes the index command.
func runIndexCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg)
	ctx, cancel := signalContext(cmd)
	defer cancel()

	db, err := openDB(cfg, logger, false)
	if err != nil {
		return err
	}
	defer db.Close()

	counts, err := db.Counts(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Database: %d pages, %d links\n", counts.Pages, counts.Links)

	stats, err := rebuildIndex(ctx, cfg, db, logger)
	if err != nil {
		return err
	}
	printIndexStats(cmd.OutOrStdout(), stats, cfg.IndexPath())
	return nil
}

// rebuildIndex builds every artifact from source into the configured index directory.
func rebuildIndex(ctx context.Context, cfg *config.Config, source index.CorpusSource, logger *slog.Logger) (index.BuildStats, error) {
	builder := index.NewBuilder(source,
		index.NewFileStore(cfg.IndexPath()),
		text.NewTokenizer(cfg.Tokenizer),
		index.WithSteps(
			index.BooleanStep{},
			index.TFIDFStep{},
			index.BM25Step{K1: cfg.BM25K1, B: cfg.BM25B},
		),
		index.WithBuilderLogger(logger),
	)

	stats, err := builder.Build(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to build index: %w", err)
	}
	return stats, nil
}

// printIndexStats writes the index build summary.
func printIndexStats(w io.Writer, stats index.BuildStats, dir string) {
	fmt.Fprintf(w, "Indexed %d documents (%d terms) in %s\n",
		stats.Documents, stats.Terms, stats.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Artifacts: %s\n", strings.Join(stats.Artifacts, ", "))
	fmt.Fprintf(w, "Index directory: %s\n", dir)
}
