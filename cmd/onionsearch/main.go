// Package main provides the entry point for the onionsearch CLI.
//
// onionsearch crawls Tor hidden services breadth-first, stores the pages in
// SQLite and answers boolean, TF-IDF and BM25 queries over them.
//
// Usage:
//
//	onionsearch crawl http://example.onion/
//	onionsearch crawl --query "onion forum"
//	onionsearch index
//	onionsearch search -q "market" -m bm25
//
// See --help for all available options.
package main

func main() {
	Execute()
}
