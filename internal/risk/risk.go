// Package risk scores page text against keyword categories.
package risk

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/nao1215/onionsearch/internal/model"
	"github.com/nao1215/onionsearch/internal/text"
)

// ErrNoCategories is returned when an Assessor is built without categories.
var ErrNoCategories = errors.New("at least one risk category is required")

// Category is a named keyword set.
type Category struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// DefaultCategories returns the built-in categories.
func DefaultCategories() []Category {
	return []Category{
		{Name: "weapons", Keywords: []string{"gun", "pistol", "rifle", "ammo", "weapon", "firearm"}},
		{Name: "drugs", Keywords: []string{"drug", "cocaine", "heroin", "meth", "mdma", "cannabis"}},
		{Name: "extremism", Keywords: []string{"terror", "bomb", "attack", "jihad", "isis", "al-qaeda"}},
		{Name: "fraud", Keywords: []string{"bitcoin", "scam", "fraud", "counterfeit", "phishing"}},
		{Name: "hitman", Keywords: []string{"hitman", "assassin", "kill", "murder", "bounty"}},
	}
}

// Result is the risk of one text.
type Result struct {
	// Score is in [0, 1]. Zero means no keyword matched.
	Score float64 `json:"score"`

	// Categories maps each matched category to its share of all hits.
	Categories map[string]float64 `json:"categories"`
}

// TopCategory returns the category with the largest share, or "" when
// nothing matched. Ties go to the alphabetically first name.
func (r Result) TopCategory() string {
	names := make([]string, 0, len(r.Categories))
	for name := range r.Categories {
		names = append(names, name)
	}
	slices.Sort(names)

	top := ""
	best := 0.0
	for _, name := range names {
		if r.Categories[name] > best {
			top, best = name, r.Categories[name]
		}
	}
	return top
}

// PageResult pairs a page with its assessment.
type PageResult struct {
	Page   *model.Page `json:"page"`
	Result Result      `json:"result"`
}

// Assessor scores text by counting keyword hits per category.
// Keywords go through the same tokenizer as the text, so inflected forms
// ("guns", "bombing") count as hits.
type Assessor struct {
	tokenizer  *text.Tokenizer
	categories []string
	// terms maps a normalized keyword to the categories it belongs to.
	terms map[string][]int
}

// NewAssessor creates an Assessor for categories using tok.
func NewAssessor(tok *text.Tokenizer, categories []Category) (*Assessor, error) {
	if len(categories) == 0 {
		return nil, ErrNoCategories
	}

	a := &Assessor{
		tokenizer:  tok,
		categories: make([]string, len(categories)),
		terms:      make(map[string][]int),
	}
	for i, c := range categories {
		if c.Name == "" {
			return nil, fmt.Errorf("risk category %d has no name", i)
		}
		a.categories[i] = c.Name
		for _, kw := range c.Keywords {
			for _, term := range tok.Tokens(kw) {
				if !slices.Contains(a.terms[term], i) {
					a.terms[term] = append(a.terms[term], i)
				}
			}
		}
	}
	return a, nil
}

// Assess scores s. With h_c hits in category c, the score is
// min(1, Σh_c / (max(h_c) · |categories|)) and each matched category gets
// h_c / Σh_c.
func (a *Assessor) Assess(s string) Result {
	hits := make([]int, len(a.categories))
	for _, tok := range a.tokenizer.Tokens(s) {
		for _, c := range a.terms[tok] {
			hits[c]++
		}
	}

	total, maxHits := 0, 0
	for _, h := range hits {
		total += h
		maxHits = max(maxHits, h)
	}
	if total == 0 {
		return Result{Categories: map[string]float64{}}
	}

	r := Result{
		Score:      min(1, float64(total)/float64(maxHits*len(a.categories))),
		Categories: make(map[string]float64),
	}
	for i, h := range hits {
		if h > 0 {
			r.Categories[a.categories[i]] = float64(h) / float64(total)
		}
	}
	return r
}

// AssessPages scores every page's title and content, keeping page order.
func (a *Assessor) AssessPages(pages []*model.Page) []PageResult {
	results := make([]PageResult, len(pages))
	for i, p := range pages {
		results[i] = PageResult{Page: p, Result: a.Assess(p.Text())}
	}
	return results
}

// SortByScore orders results by descending score. Equal scores keep their order.
func SortByScore(results []PageResult) {
	slices.SortStableFunc(results, func(a, b PageResult) int {
		return cmp.Compare(b.Result.Score, a.Result.Score)
	})
}
