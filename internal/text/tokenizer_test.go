package text

import (
	"reflect"
	"testing"
)

// TestPreprocess tests the default tokenizer pipeline.
func TestPreprocess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
		{
			name:  "stopwords only",
			input: "the and of a",
			want:  []string{},
		},
		{
			name:  "plural forms reduce to a shared term",
			input: "Markets market MARKETS",
			want:  []string{"market", "market", "market"},
		},
		{
			name:  "punctuation and digits are dropped",
			input: "forum, 2024 forums!",
			want:  []string{"forum", "forum"},
		},
		{
			name:  "mixed alphanumeric tokens are dropped",
			input: "abc123 cat",
			want:  []string{"cat"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Preprocess(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Preprocess(%q) = %v, expected %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestTokenizerOptions tests that each step can be toggled independently.
func TestTokenizerOptions(t *testing.T) {
	t.Parallel()

	t.Run("all steps disabled keeps case and stopwords", func(t *testing.T) {
		t.Parallel()

		tok := NewTokenizer(Options{})
		got := tok.Tokens("The Hidden, Wiki")
		want := []string{"The", "Hidden", "Wiki"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, expected %v", got, want)
		}
	})

	t.Run("lowercase only", func(t *testing.T) {
		t.Parallel()

		tok := NewTokenizer(Options{Lowercase: true})
		got := tok.Tokens("The Hidden Wiki")
		want := []string{"the", "hidden", "wiki"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, expected %v", got, want)
		}
	})

	t.Run("strip punctuation joins word parts", func(t *testing.T) {
		t.Parallel()

		tok := NewTokenizer(Options{Lowercase: true, StripPunctuation: true})
		got := tok.Tokens("e-mail")
		want := []string{"email"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, expected %v", got, want)
		}
	})

	t.Run("punctuation splits when not stripped", func(t *testing.T) {
		t.Parallel()

		tok := NewTokenizer(Options{Lowercase: true})
		got := tok.Tokens("e-mail")
		want := []string{"e", "mail"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, expected %v", got, want)
		}
	})

	t.Run("stopwords removed without stemming", func(t *testing.T) {
		t.Parallel()

		tok := NewTokenizer(Options{Lowercase: true, RemoveStopwords: true})
		got := tok.Tokens("the markets of the deep web")
		want := []string{"markets", "deep", "web"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, expected %v", got, want)
		}
	})

	t.Run("options are reported back", func(t *testing.T) {
		t.Parallel()

		opts := Options{Lowercase: true, Lemmatize: true}
		if got := NewTokenizer(opts).Options(); got != opts {
			t.Errorf("got %+v, expected %+v", got, opts)
		}
	})
}

// TestTokenizerUnicode tests normalization of non-ASCII input.
func TestTokenizerUnicode(t *testing.T) {
	t.Parallel()

	tok := NewTokenizer(Options{Lowercase: true})

	// Fullwidth letters normalize to ASCII under NFKC.
	got := tok.Tokens("ＦＯＲＵＭ")
	want := []string{"forum"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, expected %v", got, want)
	}
}

// TestTokenizerDeterministic tests that repeated calls agree.
func TestTokenizerDeterministic(t *testing.T) {
	t.Parallel()

	input := "Onion services host forums, markets and wikis."
	first := Preprocess(input)
	for range 10 {
		if got := Preprocess(input); !reflect.DeepEqual(got, first) {
			t.Fatalf("non-deterministic output: %v vs %v", got, first)
		}
	}
}

// TestIsStopword tests stopword lookups.
func TestIsStopword(t *testing.T) {
	t.Parallel()

	for _, w := range []string{"the", "and", "don't", "wouldn't", "i"} {
		if !IsStopword(w) {
			t.Errorf("expected %q to be a stopword", w)
		}
	}
	for _, w := range []string{"onion", "forum", "The"} {
		if IsStopword(w) {
			t.Errorf("expected %q not to be a stopword", w)
		}
	}
}
