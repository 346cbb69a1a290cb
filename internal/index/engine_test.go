package index

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/nao1215/onionsearch/internal/model"
	"github.com/nao1215/onionsearch/internal/text"
)

// sliceSource serves a fixed corpus.
type sliceSource struct {
	docs []model.Document
	err  error
}

func (s sliceSource) AllDocuments(context.Context) ([]model.Document, error) {
	return s.docs, s.err
}

// plainTokenizer splits on whitespace without any normalization.
func plainTokenizer() *text.Tokenizer {
	return text.NewTokenizer(text.Options{})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testDocs = []model.Document{
	{ID: 10, Text: "onion forum market"},
	{ID: 20, Text: "forum wiki"},
	{ID: 30, Text: "market market drugs"},
}

// buildInto builds all artifacts from docs into a temporary FileStore.
func buildInto(t *testing.T, docs []model.Document) *FileStore {
	t.Helper()

	store := NewFileStore(filepath.Join(t.TempDir(), "indices"))
	b := NewBuilder(sliceSource{docs: docs}, store, plainTokenizer(), WithBuilderLogger(quietLogger()))
	if _, err := b.Build(context.Background()); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return store
}

// TestBuilder tests a full rebuild.
func TestBuilder(t *testing.T) {
	t.Parallel()

	t.Run("writes all three artifacts", func(t *testing.T) {
		t.Parallel()

		store := NewFileStore(filepath.Join(t.TempDir(), "indices"))
		b := NewBuilder(sliceSource{docs: testDocs}, store, plainTokenizer(), WithBuilderLogger(quietLogger()))

		stats, err := b.Build(context.Background())
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		if stats.Documents != 3 || stats.Terms != 5 {
			t.Errorf("unexpected stats %+v", stats)
		}
		if !reflect.DeepEqual(stats.Artifacts, []string{"boolean", "tfidf", "bm25"}) {
			t.Errorf("unexpected artifacts %v", stats.Artifacts)
		}

		for _, name := range []string{"boolean_index.json", "tfidf_index.json", "bm25_index.json"} {
			if _, err := os.Stat(filepath.Join(store.Dir(), name)); err != nil {
				t.Errorf("missing artifact %s: %v", name, err)
			}
		}
	})

	t.Run("corpus error is returned", func(t *testing.T) {
		t.Parallel()

		want := errors.New("database is locked")
		store := NewFileStore(t.TempDir())
		b := NewBuilder(sliceSource{err: want}, store, plainTokenizer(), WithBuilderLogger(quietLogger()))

		if _, err := b.Build(context.Background()); !errors.Is(err, want) {
			t.Errorf("expected wrapped corpus error, got %v", err)
		}
	})

	t.Run("cancelled build stops before saving", func(t *testing.T) {
		t.Parallel()

		store := NewFileStore(t.TempDir())
		b := NewBuilder(sliceSource{docs: testDocs}, store, plainTokenizer(), WithBuilderLogger(quietLogger()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := b.Build(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if _, err := store.Load(context.Background(), model.ModelBoolean); !errors.Is(err, ErrIndexNotFound) {
			t.Errorf("expected no artifact, got %v", err)
		}
	})

	t.Run("publishes to the engine", func(t *testing.T) {
		t.Parallel()

		store := NewFileStore(t.TempDir())
		engine := NewEngine(store, plainTokenizer())
		b := NewBuilder(sliceSource{docs: testDocs}, store, plainTokenizer(),
			WithPublisher(engine),
			WithSteps(BooleanStep{}),
			WithBuilderLogger(quietLogger()),
		)
		if _, err := b.Build(context.Background()); err != nil {
			t.Fatalf("build failed: %v", err)
		}
		if engine.boolean.Load() == nil {
			t.Error("boolean artifact was not published")
		}
		if engine.tfidf.Load() != nil {
			t.Error("tfidf step was not configured and must not be published")
		}
	})
}

// TestFileStore tests artifact persistence.
func TestFileStore(t *testing.T) {
	t.Parallel()

	t.Run("missing artifact", func(t *testing.T) {
		t.Parallel()

		store := NewFileStore(t.TempDir())
		for _, m := range model.Models {
			if _, err := store.Load(context.Background(), m); !errors.Is(err, ErrIndexNotFound) {
				t.Errorf("%s: expected ErrIndexNotFound, got %v", m, err)
			}
		}
	})

	t.Run("round trip preserves queries", func(t *testing.T) {
		t.Parallel()

		store := NewFileStore(t.TempDir())
		c := NewCorpus(testDocs, plainTokenizer())
		built := BuildBM25(c, DefaultK1, DefaultB)
		if err := store.Save(context.Background(), built); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		loaded, err := store.Load(context.Background(), model.ModelBM25)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		bm, ok := loaded.(*BM25Index)
		if !ok {
			t.Fatalf("unexpected artifact type %T", loaded)
		}
		q := []string{"market"}
		if !reflect.DeepEqual(bm.Query(q), built.Query(q)) {
			t.Error("loaded artifact scores differ from built artifact")
		}
	})

	t.Run("save replaces and leaves no temp files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		store := NewFileStore(dir)
		ctx := context.Background()

		first := BuildBoolean(corpusOf([]string{"a"}))
		second := BuildBoolean(corpusOf([]string{"b"}))
		if err := store.Save(ctx, first); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if err := store.Save(ctx, second); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		loaded, err := store.Load(ctx, model.ModelBoolean)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if _, ok := loaded.(*BooleanIndex).Postings["b"]; !ok {
			t.Error("second save did not replace the artifact")
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("read dir failed: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("expected only the artifact file, got %d entries", len(entries))
		}
	})

	t.Run("corrupt artifact", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		store := NewFileStore(dir)
		if err := os.WriteFile(store.Path(model.ModelTFIDF), []byte("{not json"), 0600); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if _, err := store.Load(context.Background(), model.ModelTFIDF); !errors.Is(err, ErrCorruptIndex) {
			t.Errorf("expected ErrCorruptIndex, got %v", err)
		}
	})
}

// TestEngine tests querying through the engine.
func TestEngine(t *testing.T) {
	t.Parallel()

	store := buildInto(t, testDocs)
	engine := NewEngine(store, plainTokenizer())
	ctx := context.Background()

	t.Run("boolean", func(t *testing.T) {
		t.Parallel()

		ids, err := engine.Boolean(ctx, "forum market")
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if !reflect.DeepEqual(ids, []int64{10}) {
			t.Errorf("got %v, expected [10]", ids)
		}
	})

	t.Run("bm25 ranks repeated terms higher", func(t *testing.T) {
		t.Parallel()

		hits, err := engine.BM25(ctx, "market")
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(hits) != 3 || hits[0].DocID != 30 {
			t.Errorf("expected doc 30 first, got %+v", hits)
		}
	})

	t.Run("tfidf", func(t *testing.T) {
		t.Parallel()

		hits, err := engine.TFIDF(ctx, "wiki")
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(hits) != 3 || hits[0].DocID != 20 || hits[0].Score <= 0 {
			t.Errorf("expected doc 20 first, got %+v", hits)
		}
	})

	t.Run("search dispatches by model", func(t *testing.T) {
		t.Parallel()

		for _, m := range model.Models {
			hits, err := engine.Search(ctx, m, "forum")
			if err != nil {
				t.Fatalf("%s: query failed: %v", m, err)
			}
			if len(hits) == 0 {
				t.Errorf("%s: expected hits", m)
			}
			if !m.Ranked() {
				for _, h := range hits {
					if h.Score != 0 {
						t.Errorf("boolean hit carries a score: %+v", h)
					}
				}
			}
		}

		if _, err := engine.Search(ctx, model.Model(99), "forum"); !errors.Is(err, model.ErrUnknownModel) {
			t.Errorf("expected ErrUnknownModel, got %v", err)
		}
	})

	t.Run("empty query", func(t *testing.T) {
		t.Parallel()

		for _, m := range model.Models {
			hits, err := engine.Search(ctx, m, "   ")
			if err != nil {
				t.Errorf("%s: empty query must not fail: %v", m, err)
			}
			if len(hits) != 0 {
				t.Errorf("%s: expected no hits, got %v", m, hits)
			}
		}
	})

	t.Run("concurrent queries", func(t *testing.T) {
		t.Parallel()

		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := engine.BM25(ctx, "forum"); err != nil {
					t.Errorf("query failed: %v", err)
				}
			}()
		}
		wg.Wait()
	})
}

// TestEngineNotFound tests queries before any build.
func TestEngineNotFound(t *testing.T) {
	t.Parallel()

	engine := NewEngine(NewFileStore(t.TempDir()), plainTokenizer())
	for _, m := range model.Models {
		_, err := engine.Search(context.Background(), m, "forum")
		if !IsNotFound(err) {
			t.Errorf("%s: expected index not found, got %v", m, err)
		}
	}

	// An empty query never touches the store.
	if _, err := engine.Search(context.Background(), model.ModelBM25, ""); err != nil {
		t.Errorf("empty query must not fail: %v", err)
	}
}

// TestEnginePublishSwap tests that a published artifact replaces the loaded one.
func TestEnginePublishSwap(t *testing.T) {
	t.Parallel()

	store := buildInto(t, testDocs)
	engine := NewEngine(store, plainTokenizer())
	ctx := context.Background()

	ids, err := engine.Boolean(ctx, "wiki")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{20}) {
		t.Fatalf("got %v, expected [20]", ids)
	}

	next := BuildBoolean(NewCorpus([]model.Document{{ID: 40, Text: "wiki"}}, plainTokenizer()))
	if err := engine.Publish(next); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	ids, err = engine.Boolean(ctx, "wiki")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{40}) {
		t.Errorf("got %v, expected [40] after publish", ids)
	}
}

// TestEngineEmptyCorpus tests queries against artifacts of an empty corpus.
func TestEngineEmptyCorpus(t *testing.T) {
	t.Parallel()

	store := buildInto(t, nil)
	engine := NewEngine(store, plainTokenizer())
	for _, m := range model.Models {
		hits, err := engine.Search(context.Background(), m, "anything")
		if err != nil {
			t.Errorf("%s: unexpected error: %v", m, err)
		}
		if len(hits) != 0 {
			t.Errorf("%s: expected no hits, got %v", m, hits)
		}
	}
}
