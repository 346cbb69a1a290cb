// Package text turns raw page text into index terms.
//
// Preprocess is the single tokenizer shared by the index builder, the query
// engine and the risk assessor. Documents and queries must go through the same
// Options, otherwise query terms will not line up with indexed terms.
//
// The pipeline is:
//
//  1. Unicode NFKC normalization
//  2. Case folding
//  3. Punctuation stripping (or splitting, when stripping is disabled)
//  4. Whitespace tokenization with an alphabetic-only filter
//  5. English stopword removal
//  6. Word reduction with the Snowball English stemmer
//
// # Usage
//
//	tokens := text.Preprocess("Hidden services are listed here")
//	// []string{"hidden", "servic", "list"}
package text
