package index

import (
	"fmt"
	"math"
	"slices"

	"github.com/nao1215/onionsearch/internal/model"
)

// SparseVector is a row of the document-term matrix. Indices are strictly
// increasing column numbers and Values are their weights.
type SparseVector struct {
	Indices []int     `json:"i"`
	Values  []float64 `json:"v"`
}

// TFIDFIndex is an L2-normalized TF-IDF document-term matrix together with
// the fitted vectorizer state (Vocabulary and IDF) needed to transform queries
// into the same space. Rows[i] belongs to DocIDs[i].
//
// Weights follow the common smoothed formulation: raw term counts,
// idf(t) = ln((1+N)/(1+df(t))) + 1, rows scaled to unit length.
type TFIDFIndex struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
	Rows       []SparseVector `json:"rows"`
	DocIDs     []int64        `json:"doc_ids"`
}

// BuildTFIDF fits the vectorizer on c and transforms every document.
// Columns are assigned in sorted token order.
func BuildTFIDF(c *Corpus) *TFIDFIndex {
	df := make(map[string]int)
	for _, tokens := range c.Tokens {
		seen := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	slices.Sort(terms)

	n := float64(c.Len())
	idx := &TFIDFIndex{
		Vocabulary: make(map[string]int, len(terms)),
		IDF:        make([]float64, len(terms)),
		Rows:       make([]SparseVector, c.Len()),
		DocIDs:     slices.Clone(c.DocIDs),
	}
	for col, t := range terms {
		idx.Vocabulary[t] = col
		idx.IDF[col] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	for i, tokens := range c.Tokens {
		idx.Rows[i] = idx.Transform(tokens)
	}
	return idx
}

// Transform maps tokens into the fitted space. Tokens outside the vocabulary
// are ignored. A query with no known tokens yields the zero vector.
func (x *TFIDFIndex) Transform(tokens []string) SparseVector {
	counts := make(map[int]float64)
	for _, t := range tokens {
		if col, ok := x.Vocabulary[t]; ok {
			counts[col]++
		}
	}

	v := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for col := range counts {
		v.Indices = append(v.Indices, col)
	}
	slices.Sort(v.Indices)

	var norm float64
	for _, col := range v.Indices {
		w := counts[col] * x.IDF[col]
		v.Values = append(v.Values, w)
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range v.Values {
			v.Values[i] /= norm
		}
	}
	return v
}

// Dot returns the inner product of two sparse vectors. For unit vectors it is
// their cosine similarity.
func (v SparseVector) Dot(o SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] < o.Indices[j]:
			i++
		case v.Indices[i] > o.Indices[j]:
			j++
		default:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		}
	}
	return sum
}

// Model implements Artifact.
func (x *TFIDFIndex) Model() model.Model {
	return model.ModelTFIDF
}

// Validate implements Artifact.
func (x *TFIDFIndex) Validate() error {
	if len(x.Rows) != len(x.DocIDs) {
		return fmt.Errorf("%w: tfidf has %d rows for %d documents", ErrCorruptIndex, len(x.Rows), len(x.DocIDs))
	}
	if len(x.Vocabulary) != len(x.IDF) {
		return fmt.Errorf("%w: tfidf vocabulary and idf sizes differ", ErrCorruptIndex)
	}
	for t, col := range x.Vocabulary {
		if col < 0 || col >= len(x.IDF) {
			return fmt.Errorf("%w: column %d of %q out of range", ErrCorruptIndex, col, t)
		}
	}
	for i, row := range x.Rows {
		if len(row.Indices) != len(row.Values) {
			return fmt.Errorf("%w: tfidf row %d is malformed", ErrCorruptIndex, i)
		}
	}
	return nil
}

// Query scores every document by cosine similarity with the query tokens and
// returns all documents sorted by descending score. Ties keep corpus order.
func (x *TFIDFIndex) Query(tokens []string) []model.Hit {
	if len(tokens) == 0 {
		return []model.Hit{}
	}

	q := x.Transform(tokens)
	hits := make([]model.Hit, len(x.Rows))
	for i, row := range x.Rows {
		hits[i] = model.Hit{DocID: x.DocIDs[i], Score: q.Dot(row)}
	}
	sortHits(hits)
	return hits
}
