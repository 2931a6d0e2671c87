// Package render: Markdown renderer.
// One section per URL, then the summary line. The PDF renderer lays out the
// same document.
package render

import (
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/docpipe/core"
)

// MarkdownRenderer writes a crawl summary as a Markdown report.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render returns the Markdown report.
func (r *MarkdownRenderer) Render(summary *core.CrawlSummary) ([]byte, error) {
	return []byte(Markdown(summary)), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}

// Markdown builds the report text.
func Markdown(summary *core.CrawlSummary) string {
	var b strings.Builder
	b.WriteString("# Crawl Report\n\n")
	for _, e := range summary.Entries {
		fmt.Fprintf(&b, "## %s\n\n", e.URL)
		fmt.Fprintf(&b, "**Status:** %s\n\n", Tag(e.Outcome))
		if e.Outcome.Kind != core.Succeeded {
			fmt.Fprintf(&b, "%s\n\n", Describe(e.Outcome))
			continue
		}
		if e.Content == nil || e.Content.Text == "" {
			b.WriteString("_No content._\n\n")
			continue
		}
		b.WriteString("```\n")
		b.WriteString(e.Content.Text)
		b.WriteString("\n```\n\n")
	}
	b.WriteString("---\n\n")
	b.WriteString(SummaryLine(summary))
	b.WriteString("\n")
	return b.String()
}
