package text

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Options toggles the individual normalization steps of the tokenizer.
// Every step is enabled by DefaultOptions.
type Options struct {
	// Lowercase folds case so that "Forum" and "forum" are the same term.
	Lowercase bool `yaml:"lowercase"`

	// StripPunctuation deletes punctuation inside words ("don't" -> "dont").
	// When false, punctuation separates tokens instead.
	StripPunctuation bool `yaml:"strip_punctuation"`

	// RemoveStopwords drops common English function words.
	RemoveStopwords bool `yaml:"remove_stopwords"`

	// Lemmatize reduces words to a shared stem ("markets" -> "market").
	Lemmatize bool `yaml:"lemmatize"`
}

// DefaultOptions returns Options with every step enabled.
func DefaultOptions() Options {
	return Options{
		Lowercase:        true,
		StripPunctuation: true,
		RemoveStopwords:  true,
		Lemmatize:        true,
	}
}

// Tokenizer converts text into terms with a fixed set of Options.
// The zero value has every step disabled; use NewTokenizer or DefaultOptions.
// A Tokenizer is safe for concurrent use.
type Tokenizer struct {
	opts Options
}

// NewTokenizer creates a Tokenizer with the given options.
func NewTokenizer(opts Options) *Tokenizer {
	return &Tokenizer{opts: opts}
}

// Options returns the options the tokenizer was created with.
func (t *Tokenizer) Options() Options {
	return t.opts
}

// Preprocess tokenizes text with DefaultOptions.
func Preprocess(s string) []string {
	return NewTokenizer(DefaultOptions()).Tokens(s)
}

// Tokens converts s into an ordered list of terms.
// The output is deterministic for identical input and options.
// Empty or purely non-alphabetic input yields an empty, non-nil slice.
func (t *Tokenizer) Tokens(s string) []string {
	tokens := make([]string, 0)
	if s == "" {
		return tokens
	}

	s = norm.NFKC.String(s)
	if t.opts.Lowercase {
		// Casers carry state and must not be shared between goroutines.
		s = cases.Fold().String(s)
	}

	if t.opts.StripPunctuation {
		s = strings.Map(func(r rune) rune {
			if isPunct(r) {
				return -1
			}
			return r
		}, s)
	}

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || isPunct(r)
	})

	for _, field := range fields {
		if !isAlpha(field) {
			continue
		}
		if t.opts.RemoveStopwords && IsStopword(field) {
			continue
		}
		if t.opts.Lemmatize {
			field = english.Stem(field, false)
			if field == "" {
				continue
			}
		}
		tokens = append(tokens, field)
	}

	return tokens
}

// isPunct reports whether r is punctuation or a symbol.
func isPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// isAlpha reports whether s consists only of letters.
func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
