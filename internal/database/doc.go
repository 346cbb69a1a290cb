// Package database provides SQLite-based storage for crawled pages.
//
// The CrawlDB stores:
//   - Pages, one row per unique URL, written once on the first successful fetch
//   - Links between stored pages
//   - Crawl runs, one row per invocation of the crawler
//
// The crawler works through Sessions. Each Session pins a dedicated connection
// from the pool for the lifetime of one crawl task, so concurrent tasks never
// share a connection. WAL mode and a busy timeout let those connections write
// without failing on lock contention.
//
// The index builder reads the corpus with AllDocuments; the search and assess
// commands resolve document IDs with GetPage and RecentPages.
package database
