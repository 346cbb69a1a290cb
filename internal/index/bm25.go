package index

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/nao1215/onionsearch/internal/model"
)

const (
	// DefaultK1 controls term-frequency saturation.
	DefaultK1 = 1.5

	// DefaultB controls document-length normalization.
	DefaultB = 0.75
)

// BM25Index holds the statistics needed to score documents with Okapi BM25.
// DocLens[i], Corpus[i] and DocIDs[i] refer to the same document.
type BM25Index struct {
	DF      map[string]int     `json:"df"`
	IDF     map[string]float64 `json:"idf"`
	DocLens []int              `json:"doc_lens"`
	AvgLen  float64            `json:"avg_len"`
	Corpus  [][]string         `json:"corpus"`
	DocIDs  []int64            `json:"doc_ids"`
	K1      float64            `json:"k1"`
	B       float64            `json:"b"`

	tfOnce sync.Once
	tf     []map[string]int
}

// BuildBM25 computes BM25 statistics over c with the given parameters.
func BuildBM25(c *Corpus, k1, b float64) *BM25Index {
	n := c.Len()
	idx := &BM25Index{
		DF:      make(map[string]int),
		IDF:     make(map[string]float64),
		DocLens: make([]int, n),
		Corpus:  make([][]string, n),
		DocIDs:  slices.Clone(c.DocIDs),
		K1:      k1,
		B:       b,
	}

	total := 0
	for i, tokens := range c.Tokens {
		idx.Corpus[i] = slices.Clone(tokens)
		idx.DocLens[i] = len(tokens)
		total += len(tokens)

		seen := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			idx.DF[t]++
		}
	}
	if n > 0 {
		idx.AvgLen = float64(total) / float64(n)
	}

	for t, df := range idx.DF {
		idx.IDF[t] = math.Log((float64(n)-float64(df)+0.5)/(float64(df)+0.5) + 1)
	}
	return idx
}

// Model implements Artifact.
func (x *BM25Index) Model() model.Model {
	return model.ModelBM25
}

// Validate implements Artifact.
func (x *BM25Index) Validate() error {
	if len(x.DocLens) != len(x.DocIDs) || len(x.Corpus) != len(x.DocIDs) {
		return fmt.Errorf("%w: bm25 arrays have different lengths", ErrCorruptIndex)
	}
	for i, tokens := range x.Corpus {
		if len(tokens) != x.DocLens[i] {
			return fmt.Errorf("%w: bm25 length of document %d does not match its tokens", ErrCorruptIndex, i)
		}
	}
	return nil
}

// termFreqs returns per-document term counts, computed once from Corpus.
func (x *BM25Index) termFreqs() []map[string]int {
	x.tfOnce.Do(func() {
		x.tf = make([]map[string]int, len(x.Corpus))
		for i, tokens := range x.Corpus {
			m := make(map[string]int, len(tokens))
			for _, t := range tokens {
				m[t]++
			}
			x.tf[i] = m
		}
	})
	return x.tf
}

// Score returns the BM25 score of document i for the query tokens.
// Repeated query tokens contribute once per occurrence.
func (x *BM25Index) Score(tokens []string, i int) float64 {
	tf := x.termFreqs()[i]
	var score float64
	for _, t := range tokens {
		f := float64(tf[t])
		if f == 0 {
			continue
		}
		norm := x.K1 * (1 - x.B + x.B*float64(x.DocLens[i])/x.AvgLen)
		score += x.IDF[t] * f * (x.K1 + 1) / (f + norm)
	}
	return score
}

// Query scores every document and returns all of them sorted by descending
// score. Ties keep corpus order.
func (x *BM25Index) Query(tokens []string) []model.Hit {
	if len(tokens) == 0 {
		return []model.Hit{}
	}

	hits := make([]model.Hit, len(x.DocIDs))
	for i, id := range x.DocIDs {
		hits[i] = model.Hit{DocID: id, Score: x.Score(tokens, i)}
	}
	sortHits(hits)
	return hits
}

// sortHits orders hits by descending score, keeping the input order of ties.
func sortHits(hits []model.Hit) {
	slices.SortStableFunc(hits, func(a, b model.Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
}
