package risk

import (
	"errors"
	"math"
	"testing"

	"github.com/nao1215/onionsearch/internal/model"
	"github.com/nao1215/onionsearch/internal/text"
)

func newTestAssessor(t *testing.T) *Assessor {
	t.Helper()

	a, err := NewAssessor(text.NewTokenizer(text.DefaultOptions()), DefaultCategories())
	if err != nil {
		t.Fatalf("failed to create assessor: %v", err)
	}
	return a
}

// TestAssess tests keyword scoring.
func TestAssess(t *testing.T) {
	t.Parallel()

	a := newTestAssessor(t)

	t.Run("no hits", func(t *testing.T) {
		t.Parallel()

		r := a.Assess("a quiet library of poetry")
		if r.Score != 0 || len(r.Categories) != 0 {
			t.Errorf("expected zero result, got %+v", r)
		}
		if r.TopCategory() != "" {
			t.Errorf("expected no top category, got %q", r.TopCategory())
		}
	})

	t.Run("single category", func(t *testing.T) {
		t.Parallel()

		// 2 hits in one of 5 categories: 2 / (2*5).
		r := a.Assess("cheap guns and a rifle")
		if math.Abs(r.Score-0.2) > 1e-9 {
			t.Errorf("expected score 0.2, got %v", r.Score)
		}
		if r.Categories["weapons"] != 1 {
			t.Errorf("expected weapons share 1, got %v", r.Categories)
		}
		if r.TopCategory() != "weapons" {
			t.Errorf("expected top category weapons, got %q", r.TopCategory())
		}
	})

	t.Run("mixed categories", func(t *testing.T) {
		t.Parallel()

		// weapons 1, drugs 2, fraud 1: total 4, max 2 -> 4 / 10.
		r := a.Assess("gun cocaine heroin bitcoin")
		if math.Abs(r.Score-0.4) > 1e-9 {
			t.Errorf("expected score 0.4, got %v", r.Score)
		}
		if math.Abs(r.Categories["drugs"]-0.5) > 1e-9 {
			t.Errorf("expected drugs share 0.5, got %v", r.Categories)
		}
		if r.TopCategory() != "drugs" {
			t.Errorf("expected top category drugs, got %q", r.TopCategory())
		}
	})

	t.Run("score is capped at one", func(t *testing.T) {
		t.Parallel()

		r := a.Assess("gun drug bomb scam murder")
		if r.Score != 1 {
			t.Errorf("expected score 1, got %v", r.Score)
		}
	})
}

// TestNewAssessor tests constructor validation.
func TestNewAssessor(t *testing.T) {
	t.Parallel()

	tok := text.NewTokenizer(text.DefaultOptions())

	if _, err := NewAssessor(tok, nil); !errors.Is(err, ErrNoCategories) {
		t.Errorf("expected ErrNoCategories, got %v", err)
	}
	if _, err := NewAssessor(tok, []Category{{Keywords: []string{"x"}}}); err == nil {
		t.Error("expected error for unnamed category")
	}
}

// TestAssessPages tests page assessment.
func TestAssessPages(t *testing.T) {
	t.Parallel()

	a := newTestAssessor(t)
	pages := []*model.Page{
		{ID: 1, Title: "Market", Content: "bitcoin only"},
		{ID: 2, Title: "Blog", Content: "gardening tips"},
	}

	results := a.AssessPages(pages)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Page.ID != 1 || results[0].Result.Score == 0 {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if results[1].Result.Score != 0 {
		t.Errorf("expected zero score for second page, got %v", results[1].Result.Score)
	}
}

func TestSortByScore(t *testing.T) {
	t.Parallel()

	results := []PageResult{
		{Page: &model.Page{ID: 1}, Result: Result{Score: 0.2}},
		{Page: &model.Page{ID: 2}, Result: Result{Score: 0.9}},
		{Page: &model.Page{ID: 3}, Result: Result{Score: 0.2}},
		{Page: &model.Page{ID: 4}, Result: Result{Score: 0}},
	}
	SortByScore(results)

	want := []int64{2, 1, 3, 4}
	for i, id := range want {
		if results[i].Page.ID != id {
			t.Fatalf("position %d: got page %d, want %d", i, results[i].Page.ID, id)
		}
	}
}
