package pipeline

import (
	"net/url"
	"strings"

	"github.com/samber/lo"
)

var docKeywords = []string{
	"documentation", "docs", "api", "reference", "guide", "tutorial",
	"getting started", "examples", "syntax", "parameters", "returns",
	"installation", "configuration", "usage", "methods", "properties",
}

var docPathSegments = []string{
	"/docs/", "/documentation/", "/api/", "/reference/", "/guide/",
	"/tutorial/", "/examples/", "/help/", "/support/",
}

var docHostPrefixes = []string{
	"docs.", "documentation.", "api.", "developer.", "help.",
	"support.", "learn.", "tutorial.",
}

// LooksLikeDocumentation reports whether a sample of page text, or the URL it
// came from, suggests technical documentation.
func LooksLikeDocumentation(text, rawURL string) bool {
	lowerText := strings.ToLower(text)
	if lo.SomeBy(docKeywords, func(k string) bool { return strings.Contains(lowerText, k) }) {
		return true
	}

	lowerURL := strings.ToLower(rawURL)
	if lo.SomeBy(docPathSegments, func(s string) bool { return strings.Contains(lowerURL, s) }) {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return lo.SomeBy(docHostPrefixes, func(p string) bool { return strings.Contains(host, p) })
}
