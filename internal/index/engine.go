package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nao1215/onionsearch/internal/model"
	"github.com/nao1215/onionsearch/internal/text"
)

// Engine answers queries against the three artifacts.
// Each artifact sits behind an atomic pointer: Publish swaps in a new one and
// every query works on the pointer it loaded at its start.
// An Engine is safe for concurrent use.
type Engine struct {
	store     ArtifactStore
	tokenizer *text.Tokenizer

	boolean atomic.Pointer[BooleanIndex]
	tfidf   atomic.Pointer[TFIDFIndex]
	bm25    atomic.Pointer[BM25Index]

	// loadMu serializes lazy loads so one artifact is decoded once.
	loadMu sync.Mutex
}

// NewEngine creates an Engine that lazily loads artifacts from store and
// tokenizes queries with tok.
func NewEngine(store ArtifactStore, tok *text.Tokenizer) *Engine {
	return &Engine{store: store, tokenizer: tok}
}

// Publish installs a freshly built artifact.
func (e *Engine) Publish(a Artifact) error {
	switch v := a.(type) {
	case *BooleanIndex:
		e.boolean.Store(v)
	case *TFIDFIndex:
		e.tfidf.Store(v)
	case *BM25Index:
		e.bm25.Store(v)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownArtifact, a)
	}
	return nil
}

// Search runs q against the artifact of model m. Boolean hits carry a zero
// score. A query without tokens returns an empty result and no error.
func (e *Engine) Search(ctx context.Context, m model.Model, q string) ([]model.Hit, error) {
	switch m {
	case model.ModelBoolean:
		ids, err := e.Boolean(ctx, q)
		if err != nil {
			return nil, err
		}
		hits := make([]model.Hit, len(ids))
		for i, id := range ids {
			hits[i] = model.Hit{DocID: id}
		}
		return hits, nil
	case model.ModelTFIDF:
		return e.TFIDF(ctx, q)
	case model.ModelBM25:
		return e.BM25(ctx, q)
	default:
		return nil, model.ErrUnknownModel
	}
}

// Boolean returns the IDs of documents containing every query token,
// sorted ascending.
func (e *Engine) Boolean(ctx context.Context, q string) ([]int64, error) {
	tokens := e.tokenizer.Tokens(q)
	if len(tokens) == 0 {
		return []int64{}, nil
	}
	idx, err := loadArtifact(ctx, e, &e.boolean, model.ModelBoolean)
	if err != nil {
		return nil, err
	}
	return idx.Query(tokens), nil
}

// TFIDF ranks every document by cosine similarity with q.
func (e *Engine) TFIDF(ctx context.Context, q string) ([]model.Hit, error) {
	tokens := e.tokenizer.Tokens(q)
	if len(tokens) == 0 {
		return []model.Hit{}, nil
	}
	idx, err := loadArtifact(ctx, e, &e.tfidf, model.ModelTFIDF)
	if err != nil {
		return nil, err
	}
	return idx.Query(tokens), nil
}

// BM25 ranks every document by its BM25 score for q.
func (e *Engine) BM25(ctx context.Context, q string) ([]model.Hit, error) {
	tokens := e.tokenizer.Tokens(q)
	if len(tokens) == 0 {
		return []model.Hit{}, nil
	}
	idx, err := loadArtifact(ctx, e, &e.bm25, model.ModelBM25)
	if err != nil {
		return nil, err
	}
	return idx.Query(tokens), nil
}

// loadArtifact returns the published artifact, loading it from the store on
// first use. A missing artifact is not cached, so a later build is picked up.
func loadArtifact[T any](ctx context.Context, e *Engine, ptr *atomic.Pointer[T], m model.Model) (*T, error) {
	if v := ptr.Load(); v != nil {
		return v, nil
	}

	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	if v := ptr.Load(); v != nil {
		return v, nil
	}

	a, err := e.store.Load(ctx, m)
	if err != nil {
		return nil, err
	}
	v, ok := any(a).(*T)
	if !ok {
		return nil, fmt.Errorf("%w: store returned %T for %s", ErrUnknownArtifact, a, m)
	}
	ptr.Store(v)
	return v, nil
}

// IsNotFound reports whether err means an artifact has not been built.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrIndexNotFound)
}
