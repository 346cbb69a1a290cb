// Package model defines the core data structures shared across onionsearch.
//
// This package contains the following main types:
//   - Page: a fetched onion page as persisted by the crawler
//   - Link: a directed edge between two persisted pages
//   - Document: the (id, text) pair the index builder consumes
//   - Model and Hit: search model selection and query results
//
// Models live in their own package so the crawler, database, index and report
// packages can share them without import cycles.
package model
