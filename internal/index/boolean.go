package index

import (
	"fmt"
	"slices"

	"github.com/nao1215/onionsearch/internal/model"
)

// BooleanIndex maps each token to the sorted, unique IDs of the documents
// containing it.
type BooleanIndex struct {
	Postings map[string][]int64 `json:"postings"`
}

// BuildBoolean builds a BooleanIndex from c.
func BuildBoolean(c *Corpus) *BooleanIndex {
	idx := &BooleanIndex{Postings: make(map[string][]int64)}
	for i, tokens := range c.Tokens {
		id := c.DocIDs[i]
		seen := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			idx.Postings[t] = append(idx.Postings[t], id)
		}
	}
	for t, ids := range idx.Postings {
		slices.Sort(ids)
		idx.Postings[t] = slices.Compact(ids)
	}
	return idx
}

// Model implements Artifact.
func (b *BooleanIndex) Model() model.Model {
	return model.ModelBoolean
}

// Validate implements Artifact.
func (b *BooleanIndex) Validate() error {
	if b.Postings == nil {
		return fmt.Errorf("%w: boolean postings missing", ErrCorruptIndex)
	}
	for t, ids := range b.Postings {
		if !slices.IsSorted(ids) {
			return fmt.Errorf("%w: postings of %q are not sorted", ErrCorruptIndex, t)
		}
	}
	return nil
}

// Query intersects the postings of every token in order. An unknown token
// empties the result. The result is sorted ascending and carries no score.
func (b *BooleanIndex) Query(tokens []string) []int64 {
	if len(tokens) == 0 {
		return []int64{}
	}

	first, ok := b.Postings[tokens[0]]
	if !ok {
		return []int64{}
	}
	result := slices.Clone(first)

	for _, t := range tokens[1:] {
		if len(result) == 0 {
			break
		}
		result = intersectSorted(result, b.Postings[t])
	}
	return result
}

// intersectSorted returns the IDs present in both sorted slices.
func intersectSorted(a, b []int64) []int64 {
	out := make([]int64, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}
