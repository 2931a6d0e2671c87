package render

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gaurav-prasanna/docpipe/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mixedSummary() *core.CrawlSummary {
	return &core.CrawlSummary{
		Entries: []core.CrawlEntry{
			{
				URL:     "https://docs.example.com/a",
				Outcome: core.SucceededOutcome("https://docs.example.com/a", "<p>A</p>", core.ContentHTML, "text/html"),
				Content: &core.NormalizedContent{SourceURL: "https://docs.example.com/a", Text: "Alpha docs"},
			},
			{URL: "chrome://settings", Outcome: core.SkippedOutcome("chrome://settings", core.ReasonRestrictedScheme)},
			{URL: "https://cors.example.com", Outcome: core.FailedOutcome("https://cors.example.com", core.ReasonCorsBlocked, "denied")},
			{URL: "https://down.example.com", Outcome: core.FailedOutcome("https://down.example.com", core.ReasonNetworkError, "refused")},
			{URL: "https://example.com/missing", Outcome: core.HTTPErrorOutcome("https://example.com/missing", http.StatusNotFound)},
		},
		SuccessCount: 1,
		ErrorCount:   3,
		SkippedCount: 1,
	}
}

func TestPromptBlocks(t *testing.T) {
	got := Prompt(mixedSummary())
	blocks := strings.Split(got, BlockSeparator)

	require.Len(t, blocks, 6)
	assert.Equal(t, "[SUCCESS] https://docs.example.com/a:\nAlpha docs", blocks[0])
	assert.Equal(t, "[SKIPPED] chrome://settings - Browser internal or local file URL", blocks[1])
	assert.Equal(t, "[CORS ERROR] https://cors.example.com - This website blocks direct access from extensions. Try copying the content manually or use a different approach.", blocks[2])
	assert.Equal(t, "[NETWORK ERROR] https://down.example.com - Network error or server unavailable. Check your internet connection.", blocks[3])
	assert.Equal(t, "[ERROR] https://example.com/missing - HTTP 404: Not Found", blocks[4])
	assert.Equal(t, "Crawling Summary: 1 successful, 3 failed", blocks[5])
	assert.NotContains(t, got, "Alternative approaches")
}

func TestPromptSuggestionsOnlyWhenNothingSucceeded(t *testing.T) {
	summary := &core.CrawlSummary{ErrorCount: 3}
	for _, u := range []string{"https://a.test", "https://b.test", "https://c.test"} {
		summary.Entries = append(summary.Entries, core.CrawlEntry{URL: u, Outcome: core.FailedOutcome(u, core.ReasonNetworkError, "")})
	}

	got := Prompt(summary)

	assert.Equal(t, 1, strings.Count(got, "Alternative approaches when crawling fails:"))
	assert.True(t, strings.HasSuffix(got, Suggestions))
}

func TestPromptSkippedOnlyHasNoSuggestions(t *testing.T) {
	summary := &core.CrawlSummary{
		Entries:      []core.CrawlEntry{{URL: "about:blank", Outcome: core.SkippedOutcome("about:blank", core.ReasonRestrictedScheme)}},
		SkippedCount: 1,
	}

	got := Prompt(summary)

	assert.NotContains(t, got, "Alternative approaches")
	assert.Contains(t, got, "Crawling Summary: 0 successful, 0 failed")
}

func TestJSONRenderer(t *testing.T) {
	data, err := NewJSONRenderer().Render(mixedSummary())
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	assert.EqualValues(t, 5, report["total"])
	assert.EqualValues(t, 3, report["error_count"])

	entries := report["entries"].([]any)
	require.Len(t, entries, 5)
	first := entries[0].(map[string]any)
	assert.Equal(t, "SUCCESS", first["status"])
	assert.Equal(t, "Alpha docs", first["content"].(map[string]any)["text"])
	last := entries[4].(map[string]any)
	assert.Equal(t, "HTTP 404: Not Found", last["message"])
	assert.Equal(t, "http_error", last["outcome"].(map[string]any)["reason"])
}

func TestMarkdownRenderer(t *testing.T) {
	data, err := NewMarkdownRenderer().Render(mixedSummary())
	require.NoError(t, err)
	md := string(data)

	assert.True(t, strings.HasPrefix(md, "# Crawl Report\n"))
	assert.Contains(t, md, "## https://docs.example.com/a\n\n**Status:** SUCCESS\n\n```\nAlpha docs\n```")
	assert.Contains(t, md, "HTTP 404: Not Found")
	assert.Contains(t, md, "Crawling Summary: 1 successful, 3 failed")
}

func TestPDFRenderer(t *testing.T) {
	r := NewPDFRenderer()
	data, err := r.Render(mixedSummary())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Equal(t, ".pdf", r.Extension())
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, ".txt", NewPromptRenderer().Extension())
	assert.Equal(t, ".json", NewJSONRenderer().Extension())
	assert.Equal(t, ".md", NewMarkdownRenderer().Extension())
}
