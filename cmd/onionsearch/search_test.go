package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/onionsearch/internal/config"
	"github.com/nao1215/onionsearch/internal/database"
	"github.com/nao1215/onionsearch/internal/index"
	"github.com/nao1215/onionsearch/internal/model"
	"github.com/nao1215/onionsearch/internal/report"
)

func TestIndexCmd(t *testing.T) {
	t.Parallel()

	t.Run("builds every artifact", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.seedDB(t, marketPages...)

		out, err := env.run(t, "index")
		if err != nil {
			t.Fatalf("index failed: %v", err)
		}
		if !strings.Contains(out, "Database: 4 pages, 0 links") || !strings.Contains(out, "Indexed 4 documents") {
			t.Errorf("unexpected output %q", out)
		}

		for _, m := range model.Models {
			path := filepath.Join(env.dataDir, "indices", index.FileName(m))
			if _, err := os.Stat(path); err != nil {
				t.Errorf("expected %s artifact: %v", m, err)
			}
		}
	})

	t.Run("fails without database", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		if _, err := env.run(t, "index"); err == nil {
			t.Fatal("expected error when no crawl has run")
		}
	})
}

func TestSearchCmd(t *testing.T) {
	t.Parallel()

	t.Run("ranked results with scores", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.seedDB(t, marketPages...)
		if _, err := env.run(t, "index"); err != nil {
			t.Fatalf("index failed: %v", err)
		}

		for _, m := range []string{"tfidf", "bm25"} {
			out, err := env.run(t, "search", "-q", "market", "-m", m)
			if err != nil {
				t.Fatalf("search -m %s failed: %v", m, err)
			}
			if !strings.Contains(out, "• Bitcoin Market (URL: http://a.onion) [Score: ") {
				t.Errorf("%s: expected a.onion with score, got %q", m, out)
			}
			if !strings.Contains(out, "• Market News (URL: http://c.onion) [Score: ") {
				t.Errorf("%s: expected c.onion with score, got %q", m, out)
			}
			if strings.Contains(out, "b.onion") || strings.Contains(out, "d.onion") {
				t.Errorf("%s: unrelated pages must not be listed, got %q", m, out)
			}
		}
	})

	t.Run("boolean results carry no score", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.seedDB(t, marketPages...)
		if _, err := env.run(t, "index"); err != nil {
			t.Fatalf("index failed: %v", err)
		}

		out, err := env.run(t, "search", "-q", "bitcoin market", "-m", "boolean")
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if !strings.Contains(out, "• Bitcoin Market (URL: http://a.onion)\n") {
			t.Errorf("expected a.onion without score, got %q", out)
		}
		if strings.Contains(out, "c.onion") {
			t.Errorf("c.onion lacks 'bitcoin', got %q", out)
		}
	})

	t.Run("JSON output respects limit", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.seedDB(t, marketPages...)
		if _, err := env.run(t, "index"); err != nil {
			t.Fatalf("index failed: %v", err)
		}

		out, err := env.run(t, "search", "-q", "market", "-m", "bm25", "-n", "1", "--json")
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}

		var doc report.JSONSearch
		if err := json.Unmarshal([]byte(out), &doc); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if doc.Model != "bm25" || doc.Query != "market" {
			t.Errorf("unexpected header %+v", doc)
		}
		if len(doc.Results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(doc.Results))
		}
		if doc.Results[0].Score == nil || *doc.Results[0].Score <= 0 {
			t.Errorf("expected positive score, got %v", doc.Results[0].Score)
		}
	})

	t.Run("no results", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.seedDB(t, marketPages...)
		if _, err := env.run(t, "index"); err != nil {
			t.Fatalf("index failed: %v", err)
		}

		out, err := env.run(t, "search", "-q", "nonexistentterm")
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if !strings.Contains(out, "No results found.") {
			t.Errorf("expected no results message, got %q", out)
		}
	})

	t.Run("index not built", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.seedDB(t, marketPages...)

		_, err := env.run(t, "search", "-q", "market")
		if err == nil {
			t.Fatal("expected error before indexing")
		}
		if !index.IsNotFound(err) {
			t.Errorf("expected index not found, got %v", err)
		}
		if !strings.Contains(err.Error(), "run the index command") {
			t.Errorf("expected hint to run index, got %v", err)
		}
		if !strings.Contains(err.Error(), filepath.Join(env.dataDir, "indices")) {
			t.Errorf("expected index directory in error, got %v", err)
		}
	})

	t.Run("unknown model", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.seedDB(t, marketPages...)

		_, err := env.run(t, "search", "-q", "market", "-m", "lsi")
		if !errors.Is(err, model.ErrUnknownModel) {
			t.Errorf("expected ErrUnknownModel, got %v", err)
		}
	})

	t.Run("query flag is required", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		if _, err := env.run(t, "search"); err == nil {
			t.Fatal("expected error without --query")
		}
	})

	t.Run("writes report file", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.seedDB(t, marketPages...)
		if _, err := env.run(t, "index"); err != nil {
			t.Fatalf("index failed: %v", err)
		}

		reportPath := filepath.Join(t.TempDir(), "reports", "search.md")
		if _, err := env.run(t, "search", "-q", "market", "--markdown", "-o", reportPath); err != nil {
			t.Fatalf("search failed: %v", err)
		}

		content, err := os.ReadFile(reportPath)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(content), "# Search Results") {
			t.Errorf("expected Markdown heading, got %q", content)
		}
	})
}

// stalePages reports every page as deleted except keep.
type stalePages struct {
	keep *model.Page
}

func (s stalePages) GetPage(_ context.Context, id int64) (*model.Page, error) {
	if id == s.keep.ID {
		return s.keep, nil
	}
	return nil, database.ErrPageNotFound
}

func TestSearchPagesSkipsMissing(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedDB(t, marketPages...)
	if _, err := env.run(t, "index"); err != nil {
		t.Fatalf("index failed: %v", err)
	}

	cfg := config.NewConfig()
	cfg.DataDir = env.dataDir

	// Page IDs follow insertion order, so c.onion is 3.
	keep := &model.Page{ID: 3, URL: "http://c.onion", Title: "Market News"}
	results, err := searchPages(context.Background(), cfg, stalePages{keep: keep},
		model.ModelBM25, "market", slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("searchPages failed: %v", err)
	}
	if len(results) != 1 || results[0].Page != keep {
		t.Fatalf("expected only the stored page, got %+v", results)
	}
}
