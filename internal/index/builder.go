package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/onionsearch/internal/model"
	"github.com/nao1215/onionsearch/internal/text"
)

// CorpusSource provides the documents to index.
type CorpusSource interface {
	AllDocuments(ctx context.Context) ([]model.Document, error)
}

// Publisher receives freshly built artifacts.
type Publisher interface {
	Publish(a Artifact) error
}

// Step builds one artifact from the tokenized corpus.
type Step interface {
	// Do builds the artifact.
	Do(ctx context.Context, c *Corpus) (Artifact, error)

	// Name returns the step's name for logging purposes.
	Name() string
}

// BooleanStep builds the BooleanIndex.
type BooleanStep struct{}

// Do implements Step.
func (BooleanStep) Do(_ context.Context, c *Corpus) (Artifact, error) {
	return BuildBoolean(c), nil
}

// Name implements Step.
func (BooleanStep) Name() string { return model.ModelBoolean.String() }

// TFIDFStep builds the TFIDFIndex.
type TFIDFStep struct{}

// Do implements Step.
func (TFIDFStep) Do(_ context.Context, c *Corpus) (Artifact, error) {
	return BuildTFIDF(c), nil
}

// Name implements Step.
func (TFIDFStep) Name() string { return model.ModelTFIDF.String() }

// BM25Step builds the BM25Index with the given parameters.
type BM25Step struct {
	K1 float64
	B  float64
}

// Do implements Step.
func (s BM25Step) Do(_ context.Context, c *Corpus) (Artifact, error) {
	return BuildBM25(c, s.K1, s.B), nil
}

// Name implements Step.
func (BM25Step) Name() string { return model.ModelBM25.String() }

// DefaultSteps returns the steps for all three artifacts.
func DefaultSteps() []Step {
	return []Step{
		BooleanStep{},
		TFIDFStep{},
		BM25Step{K1: DefaultK1, B: DefaultB},
	}
}

// BuildStats summarizes an index build.
type BuildStats struct {
	Documents int
	Terms     int
	Artifacts []string
	Elapsed   time.Duration
}

// Builder rebuilds every artifact from the corpus.
type Builder struct {
	source    CorpusSource
	store     ArtifactStore
	tokenizer *text.Tokenizer
	steps     []Step
	publisher Publisher
	logger    *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithSteps replaces the default steps.
func WithSteps(steps ...Step) BuilderOption {
	return func(b *Builder) {
		b.steps = steps
	}
}

// WithPublisher publishes each saved artifact, typically to a query Engine.
func WithPublisher(p Publisher) BuilderOption {
	return func(b *Builder) {
		b.publisher = p
	}
}

// WithBuilderLogger sets a custom logger.
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates a Builder reading from source and saving to store.
// tok must be the same tokenizer the query Engine uses.
func NewBuilder(source CorpusSource, store ArtifactStore, tok *text.Tokenizer, opts ...BuilderOption) *Builder {
	b := &Builder{
		source:    source,
		store:     store,
		tokenizer: tok,
		steps:     DefaultSteps(),
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = slog.Default()
	}

	return b
}

// Build reads the corpus, tokenizes it once and runs every step in order.
// It stops at the first failing step; artifacts saved before the failure
// stay in place.
func (b *Builder) Build(ctx context.Context) (BuildStats, error) {
	start := time.Now()

	docs, err := b.source.AllDocuments(ctx)
	if err != nil {
		return BuildStats{}, fmt.Errorf("failed to read corpus: %w", err)
	}

	corpus := NewCorpus(docs, b.tokenizer)
	stats := BuildStats{Documents: corpus.Len()}
	b.logger.Info("corpus loaded", "documents", corpus.Len())

	for _, step := range b.steps {
		select {
		case <-ctx.Done():
			b.logger.Warn("index build cancelled", "step", step.Name(), "reason", ctx.Err())
			return stats, ctx.Err()
		default:
		}

		b.logger.Info("building index", "step", step.Name())

		artifact, err := step.Do(ctx, corpus)
		if err != nil {
			return stats, fmt.Errorf("failed to build %s index: %w", step.Name(), err)
		}
		if err := b.store.Save(ctx, artifact); err != nil {
			return stats, err
		}
		if b.publisher != nil {
			if err := b.publisher.Publish(artifact); err != nil {
				return stats, err
			}
		}

		if bi, ok := artifact.(*BooleanIndex); ok {
			stats.Terms = len(bi.Postings)
		}
		stats.Artifacts = append(stats.Artifacts, step.Name())
		b.logger.Debug("index saved", "step", step.Name())
	}

	stats.Elapsed = time.Since(start)
	return stats, nil
}
