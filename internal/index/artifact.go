package index

import (
	"github.com/nao1215/onionsearch/internal/model"
	"github.com/nao1215/onionsearch/internal/text"
)

// Artifact is a built, immutable index structure.
type Artifact interface {
	// Model returns the retrieval model the artifact serves.
	Model() model.Model

	// Validate checks that the parallel arrays of the artifact line up.
	Validate() error
}

// Corpus is the tokenized snapshot every artifact is built from.
// Tokens[i] belongs to document DocIDs[i].
type Corpus struct {
	DocIDs []int64
	Tokens [][]string
}

// NewCorpus tokenizes documents with tok, keeping their order.
func NewCorpus(docs []model.Document, tok *text.Tokenizer) *Corpus {
	c := &Corpus{
		DocIDs: make([]int64, len(docs)),
		Tokens: make([][]string, len(docs)),
	}
	for i, d := range docs {
		c.DocIDs[i] = d.ID
		c.Tokens[i] = tok.Tokens(d.Text)
	}
	return c
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	return len(c.DocIDs)
}
