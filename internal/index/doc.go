// Package index builds and queries the search indices.
//
// Three artifacts are built from the same tokenized corpus:
//
//   - BooleanIndex: token -> sorted document IDs, queried by intersection
//   - TFIDFIndex: L2-normalized TF-IDF rows with the fitted vocabulary and
//     IDF vector, queried by cosine similarity
//   - BM25Index: document frequencies, lengths and the tokenized corpus,
//     queried with Okapi BM25 (k1 = 1.5, b = 0.75)
//
// # Building
//
// Builder reads the corpus, tokenizes each document once and runs one Step per
// artifact. Each artifact is saved to the ArtifactStore and published to the
// query Engine. Rebuilding replaces artifacts wholesale.
//
// # Querying
//
// Engine holds each artifact behind an atomic pointer. A query loads the
// pointer once and keeps that artifact for its whole lifetime, so a rebuild
// that publishes a new artifact never changes results mid-query. Artifacts
// are loaded lazily from the store on first use.
//
// Every document ID is a page ID from the database, so results can be
// resolved to URLs and titles.
package index
