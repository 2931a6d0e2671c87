// Package crawl: URL rules.
// Provides helpers to pull candidate URLs out of free text, validate them,
// and recognize schemes that must never reach the network.
package crawl

import (
	"net/url"
	"regexp"
	"strings"
)

// restrictedPrefixes are browser-internal, extension-internal and local-file
// URL classes. Matching is a prefix test, never a network probe.
var restrictedPrefixes = []string{
	"chrome://",
	"chrome-extension://",
	"moz-extension://",
	"edge://",
	"about:",
	"file://",
}

// urlPattern matches http(s) URLs embedded in chat text.
var urlPattern = regexp.MustCompile(`(?i)https?://[^\s]+`)

// IsRestricted reports whether rawURL belongs to a non-fetchable class.
func IsRestricted(rawURL string) bool {
	lower := strings.ToLower(strings.TrimSpace(rawURL))
	for _, prefix := range restrictedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// IsAbsolute reports whether rawURL parses as an absolute URL.
// Restricted URLs such as file:///etc/hosts count as absolute.
func IsAbsolute(rawURL string) bool {
	if strings.TrimSpace(rawURL) == "" || strings.ContainsAny(rawURL, " \t\n") {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !parsed.IsAbs() {
		return false
	}
	if parsed.Scheme == "http" || parsed.Scheme == "https" {
		return parsed.Host != ""
	}
	return true
}

// ExtractURLs scans free text for http(s) URLs, strips copy-paste punctuation,
// and returns them in order of first appearance without duplicates.
func ExtractURLs(text string) []string {
	q := NewQueue()
	for _, match := range urlPattern.FindAllString(text, -1) {
		cleaned := sanitize(match)
		if !IsAbsolute(cleaned) {
			continue
		}
		q.Add(cleaned)
	}
	return q.All()
}

// trailingPunctuation is stripped from the end of matched URLs.
const trailingPunctuation = ",.;:!?)]}>\"'"

// sanitize removes punctuation that usually belongs to the surrounding sentence.
func sanitize(match string) string {
	cleaned := strings.TrimRight(match, trailingPunctuation)
	tail := match[len(cleaned):]
	// Keep a closing paren that balances one inside the URL, e.g. wiki links.
	if strings.HasPrefix(tail, ")") && strings.Count(cleaned, "(") > strings.Count(cleaned, ")") {
		cleaned += ")"
	}
	return cleaned
}

// NormalizeURL strips fragments and trailing slashes for deduplication.
func NormalizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	// Remove fragment.
	parsed.Fragment = ""

	// Remove trailing slash (but keep root "/").
	if parsed.Path != "/" {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}

	return parsed.String()
}

// Host returns the lowercased host of rawURL, or "" if it does not parse.
func Host(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}
