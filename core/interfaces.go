// Package core defines the pipeline types and interfaces for docpipe.
// Each stage of the pipeline is a clean, testable interface; failures
// travel between stages as tagged values rather than errors.
package core

import (
	"context"
	"fmt"
	"net/http"
)

// ContentType is the declared content type of a fetched body.
type ContentType int

const (
	ContentUnknown ContentType = iota
	ContentHTML
	ContentJSON
	ContentPlainText
)

// String returns the lowercase name used in logs and reports.
func (c ContentType) String() string {
	switch c {
	case ContentHTML:
		return "html"
	case ContentJSON:
		return "json"
	case ContentPlainText:
		return "text"
	default:
		return "unknown"
	}
}

// MarshalText lets ContentType render as its name in JSON reports.
func (c ContentType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// OutcomeKind tags a FetchOutcome.
type OutcomeKind int

const (
	Succeeded OutcomeKind = iota
	Skipped
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Succeeded:
		return "succeeded"
	case Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// MarshalText lets OutcomeKind render as its name in JSON reports.
func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Reason explains a Skipped or Failed outcome.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonRestrictedScheme
	ReasonNetworkError
	ReasonCorsBlocked
	ReasonHTTPError
)

func (r Reason) String() string {
	switch r {
	case ReasonRestrictedScheme:
		return "restricted_scheme"
	case ReasonNetworkError:
		return "network_error"
	case ReasonCorsBlocked:
		return "cors_blocked"
	case ReasonHTTPError:
		return "http_error"
	default:
		return ""
	}
}

// MarshalText lets Reason render as its name in JSON reports.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// FetchOutcome is the result of fetching a single URL. Exactly one of the
// Succeeded, Skipped or Failed shapes is populated, selected by Kind.
type FetchOutcome struct {
	URL  string      `json:"url"`
	Kind OutcomeKind `json:"kind"`

	// Skipped / Failed.
	Reason     Reason `json:"reason,omitempty"`
	StatusCode int    `json:"status_code,omitempty"` // HttpError only
	Detail     string `json:"detail,omitempty"`      // underlying error text, never parsed

	// Succeeded.
	Body           string      `json:"-"`
	ContentType    ContentType `json:"content_type"`
	RawContentType string      `json:"raw_content_type,omitempty"`
}

// SkippedOutcome builds a Skipped outcome.
func SkippedOutcome(url string, reason Reason) FetchOutcome {
	return FetchOutcome{URL: url, Kind: Skipped, Reason: reason}
}

// FailedOutcome builds a Failed outcome for a transport-level reason.
func FailedOutcome(url string, reason Reason, detail string) FetchOutcome {
	return FetchOutcome{URL: url, Kind: Failed, Reason: reason, Detail: detail}
}

// HTTPErrorOutcome builds a Failed{HttpError(status)} outcome.
func HTTPErrorOutcome(url string, status int) FetchOutcome {
	return FetchOutcome{
		URL:        url,
		Kind:       Failed,
		Reason:     ReasonHTTPError,
		StatusCode: status,
		Detail:     http.StatusText(status),
	}
}

// SucceededOutcome builds a Succeeded outcome.
func SucceededOutcome(url, body string, ct ContentType, rawContentType string) FetchOutcome {
	return FetchOutcome{
		URL:            url,
		Kind:           Succeeded,
		Body:           body,
		ContentType:    ct,
		RawContentType: rawContentType,
	}
}

// Label returns the short human description used in logs.
func (o FetchOutcome) Label() string {
	switch {
	case o.Kind == Succeeded:
		return "ok"
	case o.Reason == ReasonHTTPError:
		return fmt.Sprintf("HTTP %d", o.StatusCode)
	default:
		return o.Reason.String()
	}
}

// NormalizedContent is the bounded text excerpt derived from a successful fetch.
type NormalizedContent struct {
	SourceURL string `json:"source_url"`
	Text      string `json:"text"`
	Truncated bool   `json:"truncated"`
}

// CrawlEntry is one URL's record in a CrawlSummary.
type CrawlEntry struct {
	URL     string             `json:"url"`
	Outcome FetchOutcome       `json:"outcome"`
	Content *NormalizedContent `json:"content,omitempty"`
}

// CrawlSummary is the ordered result of crawling a batch of URLs.
type CrawlSummary struct {
	Entries      []CrawlEntry `json:"entries"`
	SuccessCount int          `json:"success_count"`
	ErrorCount   int          `json:"error_count"`
	SkippedCount int          `json:"skipped_count"`
}

// Total returns the number of URLs the summary covers.
func (s *CrawlSummary) Total() int {
	return s.SuccessCount + s.ErrorCount + s.SkippedCount
}

// Accessibility is the result of probing a single URL.
type Accessibility struct {
	URL                    string       `json:"url"`
	Accessible             bool         `json:"accessible"`
	LooksLikeDocumentation bool         `json:"looks_like_documentation"`
	ContentType            ContentType  `json:"content_type"`
	Sample                 string       `json:"sample,omitempty"`
	Outcome                FetchOutcome `json:"outcome"`
}

// Fetcher retrieves a URL and classifies the result. It never returns an error;
// every failure is a Failed or Skipped outcome.
type Fetcher interface {
	Fetch(ctx context.Context, url string) FetchOutcome
}

// Normalizer turns a fetched body into a bounded text excerpt. maxChars <= 0
// disables truncation.
type Normalizer interface {
	Normalize(body string, ct ContentType, maxChars int) NormalizedContent
}

// Renderer converts a CrawlSummary into a final output format.
type Renderer interface {
	Render(summary *CrawlSummary) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".md", ".pdf").
	Extension() string
}
