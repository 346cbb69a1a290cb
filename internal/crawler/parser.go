package crawler

import (
	"strings"

	"golang.org/x/net/html"
)

// ParsedPage is the text extracted from an HTML document.
type ParsedPage struct {
	// Title is the trimmed text of the <title> element, or empty.
	Title string

	// Text is every visible text node, trimmed and joined by single spaces.
	Text string
}

// ParseDocument extracts the title and visible text of an HTML document.
// Script and style contents are not text. Input that cannot be parsed yields
// an empty ParsedPage; parsing never fails the crawl of a page.
func ParseDocument(body string) ParsedPage {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return ParsedPage{}
	}

	var (
		result   ParsedPage
		parts    []string
		hasTitle bool
	)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			case "title":
				if !hasTitle {
					hasTitle = true
					result.Title = strings.TrimSpace(nodeText(n))
				}
			}
		case html.TextNode:
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	result.Text = strings.Join(parts, " ")
	return result
}

// nodeText concatenates the direct text children of n.
func nodeText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
