// Package render provides output renderers for crawl summaries.
// This file implements the prompt renderer, whose text is appended to a
// chat message so the model sees what each URL yielded.
package render

import (
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/docpipe/core"
)

// BlockSeparator joins the blocks of a prompt addendum.
const BlockSeparator = "\n\n---\n\n"

// Suggestions is appended once when every non-skipped URL failed.
const Suggestions = "Alternative approaches when crawling fails:\n" +
	"1. Copy and paste the content directly into the chat\n" +
	"2. Use the browser's \"View Page Source\" and copy relevant sections\n" +
	"3. Try accessing the URL in a new tab and describe what you see\n" +
	"4. Some documentation sites have API endpoints that might be more accessible\n" +
	"5. Use the \"What page am I on?\" feature if you're already on the documentation page"

// PromptRenderer produces the plain-text prompt addendum.
type PromptRenderer struct{}

// NewPromptRenderer creates a PromptRenderer.
func NewPromptRenderer() *PromptRenderer {
	return &PromptRenderer{}
}

// Render returns the prompt addendum for summary.
func (r *PromptRenderer) Render(summary *core.CrawlSummary) ([]byte, error) {
	return []byte(Prompt(summary)), nil
}

// Extension returns the file extension for prompt output.
func (r *PromptRenderer) Extension() string {
	return ".txt"
}

// Prompt renders summary as one block per entry, a summary line and, when
// nothing succeeded, the suggestions block.
func Prompt(summary *core.CrawlSummary) string {
	blocks := make([]string, 0, len(summary.Entries)+2)
	for _, e := range summary.Entries {
		blocks = append(blocks, Block(e))
	}
	blocks = append(blocks, SummaryLine(summary))
	if summary.SuccessCount == 0 && summary.ErrorCount > 0 {
		blocks = append(blocks, Suggestions)
	}
	return strings.Join(blocks, BlockSeparator)
}

// Block renders a single entry.
func Block(e core.CrawlEntry) string {
	if e.Outcome.Kind == core.Succeeded {
		text := ""
		if e.Content != nil {
			text = e.Content.Text
		}
		return fmt.Sprintf("[SUCCESS] %s:\n%s", e.URL, text)
	}
	return fmt.Sprintf("[%s] %s - %s", Tag(e.Outcome), e.URL, Describe(e.Outcome))
}

// SummaryLine returns the success/failure count line.
func SummaryLine(summary *core.CrawlSummary) string {
	return fmt.Sprintf("Crawling Summary: %d successful, %d failed", summary.SuccessCount, summary.ErrorCount)
}

// Tag returns the bracketed label for an outcome, without brackets.
func Tag(o core.FetchOutcome) string {
	switch {
	case o.Kind == core.Succeeded:
		return "SUCCESS"
	case o.Kind == core.Skipped:
		return "SKIPPED"
	case o.Reason == core.ReasonCorsBlocked:
		return "CORS ERROR"
	case o.Reason == core.ReasonNetworkError:
		return "NETWORK ERROR"
	default:
		return "ERROR"
	}
}

// Describe returns the user-facing explanation for a non-successful outcome.
func Describe(o core.FetchOutcome) string {
	switch {
	case o.Kind == core.Skipped:
		return "Browser internal or local file URL"
	case o.Reason == core.ReasonCorsBlocked:
		return "This website blocks direct access from extensions. Try copying the content manually or use a different approach."
	case o.Reason == core.ReasonNetworkError:
		return "Network error or server unavailable. Check your internet connection."
	case o.Reason == core.ReasonHTTPError:
		return fmt.Sprintf("HTTP %d: %s", o.StatusCode, o.Detail)
	default:
		return o.Detail
	}
}
