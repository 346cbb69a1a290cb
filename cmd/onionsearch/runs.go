package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/onionsearch/internal/database"
	"github.com/spf13/cobra"
)

// defaultRunsLimit is the number of crawl runs listed by default.
const defaultRunsLimit = 10

// NewRunsCmd creates the runs command.
func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent crawl runs",
		Long: `Runs prints the history of crawl invocations recorded in the database,
most recent first: seeds, depth, concurrency and the number of pages saved.`,
		Args: cobra.NoArgs,
		RunE: runRunsCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultRunsLimit, "Maximum number of runs to list")

	return cmd
}

// runRunsCmd executes the runs command.
func runRunsCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	if limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cmd, cfg)
	ctx, cancel := signalContext(cmd)
	defer cancel()

	db, err := openDB(cfg, logger, false)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	printRuns(cmd.OutOrStdout(), runs)
	return nil
}

// printRuns writes one block per crawl run.
func printRuns(w io.Writer, runs []*database.CrawlRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No crawl runs recorded.")
		return
	}

	for _, run := range runs {
		fmt.Fprintf(w, "Run %s\n", run.ID)
		fmt.Fprintf(w, "  Started:  %s\n", run.StartedAt.Local().Format(time.DateTime))
		if run.FinishedAt.IsZero() {
			fmt.Fprintln(w, "  Finished: in progress or interrupted")
		} else {
			fmt.Fprintf(w, "  Finished: %s (%s)\n",
				run.FinishedAt.Local().Format(time.DateTime),
				run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
		}
		fmt.Fprintf(w, "  Seeds:    %s\n", strings.Join(run.Seeds, ", "))
		fmt.Fprintf(w, "  Depth: %d  Concurrency: %d  Saved: %d\n",
			run.MaxDepth, run.Concurrency, run.PagesSaved)
	}
}
