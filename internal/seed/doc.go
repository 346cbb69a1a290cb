// Package seed finds starting URLs for a crawl by querying an onion search
// engine.
//
// The engine's result page wraps every hit in a redirect link of the form
// /redirect?...&redirect_url=<target>. Discoverer collects those targets,
// keeping only onion URLs.
package seed
