package main

import (
	"fmt"
	"time"

	"github.com/nao1215/onionsearch/internal/config"
	"github.com/nao1215/onionsearch/internal/report"
	"github.com/nao1215/onionsearch/internal/risk"
	"github.com/nao1215/onionsearch/internal/text"
	"github.com/spf13/cobra"
)

// NewAssessCmd creates the assess command.
func NewAssessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Score recently crawled pages against risk keyword categories",
		Long: `Assess counts risk keywords in the most recently visited pages and
prints each page's risk score and category breakdown, highest score first.

Categories can be replaced in the configuration file under risk.categories.

Examples:
  # Assess the 5 most recent pages
  onionsearch assess

  # Assess the 20 most recent pages and write a Markdown report
  onionsearch assess -t 20 --markdown -o report.md`,
		Args: cobra.NoArgs,
		RunE: runAssessCmd,
	}

	cmd.Flags().IntP("top", "t", config.DefaultAssessTop,
		"Number of recently visited pages to assess")
	addReportFlags(cmd)

	return cmd
}

// runAssessCmd executes the assess command.
func runAssessCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := override(cmd, "top", &cfg.AssessTop, cmd.Flags().GetInt); err != nil {
		return err
	}
	if err := applyReportFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	assessor, err := risk.NewAssessor(text.NewTokenizer(cfg.Tokenizer), cfg.RiskCategories)
	if err != nil {
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

	pages, err := db.RecentPages(ctx, cfg.AssessTop)
	if err != nil {
		return err
	}

	results := assessor.AssessPages(pages)
	risk.SortByScore(results)

	w, closeOutput, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // write errors are reported by the writer

	_, err = newReportWriter(w, cfg).WriteAssessment(&report.AssessmentReport{
		Pages:       results,
		GeneratedAt: time.Now(),
	})
	return err
}
