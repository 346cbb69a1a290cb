package model

import (
	"errors"
	"strings"
)

// ErrUnknownModel is returned when a search model name is not recognized.
var ErrUnknownModel = errors.New("unknown search model: must be one of boolean, tfidf, bm25")

// Model selects the retrieval algorithm used for a query.
type Model int

const (
	// ModelBoolean intersects postings; results carry no score.
	ModelBoolean Model = iota
	// ModelTFIDF ranks by cosine similarity in TF-IDF space.
	ModelTFIDF
	// ModelBM25 ranks by the Okapi BM25 score.
	ModelBM25
)

// Models lists every supported model in display order.
var Models = []Model{ModelBoolean, ModelTFIDF, ModelBM25}

// String returns the model name as accepted by ParseModel.
func (m Model) String() string {
	switch m {
	case ModelBoolean:
		return "boolean"
	case ModelTFIDF:
		return "tfidf"
	case ModelBM25:
		return "bm25"
	default:
		return unknownStr
	}
}

// Ranked reports whether results of the model carry a score.
func (m Model) Ranked() bool {
	return m == ModelTFIDF || m == ModelBM25
}

// ParseModel converts a model name into a Model. Matching is case-insensitive.
func ParseModel(name string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "boolean", "bool":
		return ModelBoolean, nil
	case "tfidf", "tf-idf":
		return ModelTFIDF, nil
	case "bm25":
		return ModelBM25, nil
	default:
		return 0, ErrUnknownModel
	}
}

// unknownStr is the string representation for unknown values.
const unknownStr = "unknown"

// Hit is a single query result.
type Hit struct {
	// DocID is the document (page) identifier.
	DocID int64 `json:"doc_id"`

	// Score is the ranking score. It is zero for boolean results.
	Score float64 `json:"score"`
}

// Result is a Hit resolved against the store for display.
type Result struct {
	// Page is the matched page.
	Page *Page `json:"page"`

	// Score is the ranking score. Nil for unranked models.
	Score *float64 `json:"score,omitempty"`
}
