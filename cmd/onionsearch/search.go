package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/onionsearch/internal/config"
	"github.com/nao1215/onionsearch/internal/database"
	"github.com/nao1215/onionsearch/internal/index"
	"github.com/nao1215/onionsearch/internal/model"
	"github.com/nao1215/onionsearch/internal/report"
	"github.com/nao1215/onionsearch/internal/text"
	"github.com/spf13/cobra"
)

// pageGetter resolves document IDs to stored pages.
type pageGetter interface {
	GetPage(ctx context.Context, id int64) (*model.Page, error)
}

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the crawled pages",
		Long: `Search runs a query against the indices built by the index command.

Models:
  boolean  pages containing every query term, in ascending ID order
  tfidf    pages ranked by cosine similarity of TF-IDF vectors
  bm25     pages ranked by Okapi BM25

Examples:
  # Top 5 TF-IDF results
  onionsearch search -q "bitcoin market"

  # Top 10 BM25 results as Markdown
  onionsearch search -q "forum" -m bm25 -n 10 --markdown`,
		Args: cobra.NoArgs,
		RunE: runSearchCmd,
	}

	cmd.Flags().StringP("query", "q", "", "Search query")
	cmd.Flags().StringP("model", "m", model.ModelTFIDF.String(),
		"Retrieval model: boolean, tfidf or bm25")
	cmd.Flags().IntP("limit", "n", config.DefaultSearchLimit, "Maximum number of results")
	addReportFlags(cmd)

	_ = cmd.MarkFlagRequired("query") //nolint:errcheck // flag is defined above

	return cmd
}

// runSearchCmd executes the search command.
func runSearchCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := override(cmd, "limit", &cfg.SearchLimit, cmd.Flags().GetInt); err != nil {
		return err
	}
	if err := applyReportFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	query, err := cmd.Flags().GetString("query")
	if err != nil {
		return err
	}
	modelName, err := cmd.Flags().GetString("model")
	if err != nil {
		return err
	}
	m, err := model.ParseModel(modelName)
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

	results, err := searchPages(ctx, cfg, db, m, query, logger)
	if index.IsNotFound(err) {
		return fmt.Errorf("%w [index directory: %s]", err, cfg.IndexPath())
	}
	if err != nil {
		return err
	}

	w, closeOutput, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // write errors are reported by the writer

	_, err = newReportWriter(w, cfg).WriteSearch(&report.SearchReport{
		Query:       query,
		Model:       m,
		Results:     results,
		GeneratedAt: time.Now(),
	})
	return err
}

// searchPages runs q with model m and resolves up to cfg.SearchLimit hits to
// pages. Ranked hits with a non-positive score share no term with the query
// and are dropped. Hits whose page has disappeared are skipped.
func searchPages(ctx context.Context, cfg *config.Config, pages pageGetter, m model.Model, q string, logger *slog.Logger) ([]model.Result, error) {
	engine := index.NewEngine(index.NewFileStore(cfg.IndexPath()), text.NewTokenizer(cfg.Tokenizer))

	hits, err := engine.Search(ctx, m, q)
	if err != nil {
		return nil, err
	}
	logger.Debug("query executed", "model", m.String(), "hits", len(hits))

	results := make([]model.Result, 0, min(cfg.SearchLimit, len(hits)))
	for _, hit := range hits {
		if len(results) >= cfg.SearchLimit {
			break
		}
		if m.Ranked() && hit.Score <= 0 {
			continue
		}

		page, err := pages.GetPage(ctx, hit.DocID)
		if errors.Is(err, database.ErrPageNotFound) {
			logger.Debug("indexed page no longer stored", "id", hit.DocID)
			continue
		}
		if err != nil {
			return nil, err
		}

		result := model.Result{Page: page}
		if m.Ranked() {
			score := hit.Score
			result.Score = &score
		}
		results = append(results, result)
	}
	return results, nil
}
