// Package render: JSON renderer.
// Emits the crawl summary as indented JSON: every entry with its outcome and
// normalized content, followed by the aggregate counts.
package render

import (
	"encoding/json"
	"fmt"

	"github.com/gaurav-prasanna/docpipe/core"
)

// jsonReport is the on-disk JSON shape.
type jsonReport struct {
	Total        int         `json:"total"`
	SuccessCount int         `json:"success_count"`
	ErrorCount   int         `json:"error_count"`
	SkippedCount int         `json:"skipped_count"`
	Entries      []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	URL     string                  `json:"url"`
	Status  string                  `json:"status"`
	Message string                  `json:"message,omitempty"`
	Outcome core.FetchOutcome       `json:"outcome"`
	Content *core.NormalizedContent `json:"content,omitempty"`
}

// JSONRenderer produces a structured JSON report.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render marshals summary into the report shape.
func (r *JSONRenderer) Render(summary *core.CrawlSummary) ([]byte, error) {
	report := jsonReport{
		Total:        summary.Total(),
		SuccessCount: summary.SuccessCount,
		ErrorCount:   summary.ErrorCount,
		SkippedCount: summary.SkippedCount,
		Entries:      make([]jsonEntry, 0, len(summary.Entries)),
	}
	for _, e := range summary.Entries {
		entry := jsonEntry{
			URL:     e.URL,
			Status:  Tag(e.Outcome),
			Outcome: e.Outcome,
			Content: e.Content,
		}
		if e.Outcome.Kind != core.Succeeded {
			entry.Message = Describe(e.Outcome)
		}
		report.Entries = append(report.Entries, entry)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}
