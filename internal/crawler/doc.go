// Package crawler discovers and fetches onion pages.
//
// # Architecture
//
// The package is built around the Engine type, which expands a frontier of
// URLs one depth level at a time. A fixed pool of workers, started once per
// run, reads fetch jobs from a bounded channel, so at most N fetches are in
// flight for the whole run. A level barrier guarantees every URL of depth d is
// finished before any URL of depth d+1 is dispatched.
//
// # Components
//
//   - Engine: level-synchronous crawl with exact-URL dedup
//   - Fetcher: single GET through the Tor HTTP client with a timeout
//   - ExtractLinks: onion URL discovery by pattern over raw HTML
//   - ParseDocument: title and visible text of an HTML page
//   - Progress: observer for per-level progress reporting
//
// # Persistence
//
// The engine does not know about SQL. Every worker task opens its own
// Session through a SessionOpener and closes it when the task ends.
//
// # Usage
//
//	fetcher := crawler.NewFetcher(torClient, crawler.WithTimeout(20*time.Second))
//	engine := crawler.NewEngine(fetcher, opener,
//		crawler.WithMaxDepth(2),
//		crawler.WithConcurrency(5),
//	)
//	stats, err := engine.Run(ctx, seeds)
package crawler
