// Package fetch: request transport.
// A Transport performs a single GET in a given request mode and reports
// transport failures as *TransportError, so callers can tell a cross-origin
// denial from a plain network failure without inspecting message text.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Mode selects how a request is made.
type Mode int

const (
	// ModeCORS is a full cross-origin-capable request whose body is readable.
	ModeCORS Mode = iota
	// ModeNoCORS is the degraded retry; its body may come back opaque.
	ModeNoCORS
)

func (m Mode) String() string {
	if m == ModeNoCORS {
		return "no-cors"
	}
	return "cors"
}

// Response is what a Transport returns when a response was received.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Opaque is set when the body is not readable by the caller.
	Opaque bool
}

// Transport performs one request attempt.
type Transport interface {
	RoundTrip(ctx context.Context, rawURL string, mode Mode, header http.Header) (*Response, error)
}

// TransportError is a failure to obtain any response at all.
type TransportError struct {
	URL  string
	Mode Mode
	// CrossOrigin marks a denial by cross-origin policy rather than by the network.
	CrossOrigin bool
	Err         error
}

func (e *TransportError) Error() string {
	kind := "network error"
	if e.CrossOrigin {
		kind = "cross-origin denied"
	}
	return fmt.Sprintf("%s (%s) fetching %s: %v", kind, e.Mode, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsCrossOrigin reports whether err carries a cross-origin denial.
func IsCrossOrigin(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.CrossOrigin
}

var errOriginNotAllowed = errors.New("response does not allow the requesting origin")

// HTTPTransport is a Transport backed by net/http.
//
// When origin is non-empty it enforces the browser's cross-origin read rule:
// a response must carry an Access-Control-Allow-Origin of "*" or origin.
// In ModeCORS a disallowed response is a cross-origin TransportError; in
// ModeNoCORS it is returned as an opaque response with status 0.
type HTTPTransport struct {
	client *http.Client
	origin string
}

// NewHTTPTransport creates an HTTPTransport with the given timeout and origin.
func NewHTTPTransport(timeout time.Duration, origin string) *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{Timeout: timeout},
		origin: strings.TrimRight(strings.TrimSpace(origin), "/"),
	}
}

// RoundTrip performs a single GET.
func (t *HTTPTransport) RoundTrip(ctx context.Context, rawURL string, mode Mode, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Mode: mode, Err: fmt.Errorf("creating request: %w", err)}
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Sec-Fetch-Mode", mode.String())
	if t.origin != "" {
		req.Header.Set("Origin", t.origin)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Mode: mode, Err: err}
	}
	defer resp.Body.Close()

	if !t.allowsOrigin(resp.Header) {
		if mode == ModeCORS {
			return nil, &TransportError{URL: rawURL, Mode: mode, CrossOrigin: true, Err: errOriginNotAllowed}
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return &Response{Opaque: true, Header: http.Header{}}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Mode: mode, Err: fmt.Errorf("reading response body: %w", err)}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (t *HTTPTransport) allowsOrigin(h http.Header) bool {
	if t.origin == "" {
		return true
	}
	allow := strings.TrimSpace(h.Get("Access-Control-Allow-Origin"))
	return allow == "*" || strings.EqualFold(strings.TrimRight(allow, "/"), t.origin)
}
