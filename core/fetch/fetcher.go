// Package fetch implements the Fetcher interface.
// It performs HTTP GET requests with a browser-like header set, falls back
// once to a degraded request mode on transport failure, and classifies every
// result into a core.FetchOutcome.
package fetch

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gaurav-prasanna/docpipe/core"
	"github.com/gaurav-prasanna/docpipe/crawl"
	"github.com/rs/zerolog"
)

const (
	DefaultTimeoutSecs = 30
	DefaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config controls the HTTP fetcher.
type Config struct {
	TimeoutSecs int    `yaml:"timeout_seconds"`
	UserAgent   string `yaml:"user_agent"`
	// Origin, when set, turns on cross-origin enforcement (see HTTPTransport).
	Origin string `yaml:"origin"`
}

// WithDefaults fills zero fields.
func (c Config) WithDefaults() Config {
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = DefaultTimeoutSecs
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}

// HTTPFetcher fetches URLs through a Transport.
type HTTPFetcher struct {
	transport Transport
	header    http.Header
	log       zerolog.Logger
}

// New creates an HTTPFetcher backed by net/http.
func New(cfg Config, log zerolog.Logger) *HTTPFetcher {
	cfg = cfg.WithDefaults()
	transport := NewHTTPTransport(time.Duration(cfg.TimeoutSecs)*time.Second, cfg.Origin)
	return NewWithTransport(transport, cfg, log)
}

// NewWithTransport creates an HTTPFetcher over an arbitrary Transport.
func NewWithTransport(transport Transport, cfg Config, log zerolog.Logger) *HTTPFetcher {
	cfg = cfg.WithDefaults()
	return &HTTPFetcher{
		transport: transport,
		header:    browserHeaders(cfg.UserAgent),
		log:       log.With().Str("component", "fetcher").Logger(),
	}
}

func browserHeaders(userAgent string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.5")
	h.Set("DNT", "1")
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}

// Fetch retrieves rawURL and classifies the result. It never panics on
// network input and never returns an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) core.FetchOutcome {
	if crawl.IsRestricted(rawURL) {
		return core.SkippedOutcome(rawURL, core.ReasonRestrictedScheme)
	}

	resp, err := f.transport.RoundTrip(ctx, rawURL, ModeCORS, f.header.Clone())
	if err != nil {
		f.log.Debug().Err(err).Str("url", rawURL).Msg("Primary request failed, retrying in no-cors mode")

		fallback, fallbackErr := f.transport.RoundTrip(ctx, rawURL, ModeNoCORS, nil)
		switch {
		case fallbackErr == nil && fallback.Opaque:
			return core.FailedOutcome(rawURL, core.ReasonCorsBlocked, "response is opaque; content not readable")
		case fallbackErr == nil:
			resp = fallback
		case IsCrossOrigin(err) || IsCrossOrigin(fallbackErr):
			return core.FailedOutcome(rawURL, core.ReasonCorsBlocked, errors.Join(err, fallbackErr).Error())
		default:
			return core.FailedOutcome(rawURL, core.ReasonNetworkError, errors.Join(err, fallbackErr).Error())
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return core.HTTPErrorOutcome(rawURL, resp.StatusCode)
	}

	raw := resp.Header.Get("Content-Type")
	return core.SucceededOutcome(rawURL, string(resp.Body), DetectContentType(raw), raw)
}

// DetectContentType maps a Content-Type header value to a declared content type.
func DetectContentType(header string) core.ContentType {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(header, ";")[0]))
	switch {
	case mediaType == "":
		return core.ContentUnknown
	case mediaType == "text/html", mediaType == "application/xhtml+xml":
		return core.ContentHTML
	case mediaType == "application/json", strings.HasSuffix(mediaType, "+json"):
		return core.ContentJSON
	case mediaType == "text/plain":
		return core.ContentPlainText
	default:
		return core.ContentUnknown
	}
}
