// Package extract isolates the readable part of an HTML page.
// Documentation pages carry heavy chrome (navigation, sidebars, footers);
// dropping it before normalization leaves more of the length cap for text.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoContainer is returned when a document has no usable content root.
var ErrNoContainer = errors.New("no content container found in HTML")

// noiseSelectors are removed before the container is chosen.
var noiseSelectors = []string{
	"script", "style", "noscript", "template",
	"nav", "footer", "header", "aside",
	"img", "picture", "figure", "figcaption",
	"iframe", "video", "audio",
	"svg", "canvas",
	"form", "button", "input", "select", "textarea",
	".sidebar", ".menu", ".navigation", ".toc", ".ads", ".advertisement",
	"[role=navigation]", "[aria-hidden=true]",
}

// containerSelectors are tried in order; the first match wins.
var containerSelectors = []string{
	"main", "article", "[role=main]", ".markdown-body", ".content", "body",
}

// MainContent returns the HTML fragment holding the page's main content.
func MainContent(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	var content *goquery.Selection
	for _, sel := range containerSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			content = found.First()
			break
		}
	}
	if content == nil {
		return "", ErrNoContainer
	}

	result, err := goquery.OuterHtml(content)
	if err != nil {
		return "", fmt.Errorf("serializing content: %w", err)
	}
	return result, nil
}

// Title returns the document title, falling back to the first <h1>.
func Title(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}
