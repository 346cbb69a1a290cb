package crawler

import (
	"regexp"
)

// onionURLRegex matches onion hosts with an optional http(s) scheme.
// Label lengths cover both v2 (16 chars) and v3 (56 chars) addresses.
// A match must not start inside a longer alphanumeric run, so group 1 holds
// the link and group 2 holds the scheme when one was present.
var onionURLRegex = regexp.MustCompile(`(?:^|[^a-zA-Z0-9])((https?://)?[a-zA-Z0-9]{16,56}\.onion)`)

// ExtractLinks finds onion URLs in raw HTML by pattern, not by DOM traversal.
// Matches without a scheme are prefixed with "http://". The result is
// deduplicated by exact string equality and kept in first-seen order.
// Paths are not captured, so every link points at a service root.
func ExtractLinks(body string) []string {
	matches := onionURLRegex.FindAllStringSubmatch(body, -1)

	seen := make(map[string]struct{}, len(matches))
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		link := m[1]
		if m[2] == "" {
			link = "http://" + link
		}
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}
	return links
}
