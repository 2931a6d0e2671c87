package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gaurav-prasanna/docpipe/core"
	"github.com/gaurav-prasanna/docpipe/core/fetch"
	"github.com/gaurav-prasanna/docpipe/core/normalize"
	"github.com/gaurav-prasanna/docpipe/core/render"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher delegates to FetchFn and records the URLs it saw.
type fakeFetcher struct {
	FetchFn func(ctx context.Context, url string) core.FetchOutcome

	mu   sync.Mutex
	seen []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) core.FetchOutcome {
	f.mu.Lock()
	f.seen = append(f.seen, url)
	f.mu.Unlock()
	return f.FetchFn(ctx, url)
}

func newTestPipeline(f core.Fetcher, cfg Config) *Pipeline {
	return New(f, normalize.New(normalize.Config{}, zerolog.Nop()), cfg, zerolog.Nop())
}

func TestCrawlMixedKeepsOrderAndCounts(t *testing.T) {
	var inFlight, maxInFlight int32
	f := &fakeFetcher{FetchFn: func(_ context.Context, url string) core.FetchOutcome {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		// Earlier URLs finish later so completion order differs from input order.
		if strings.HasSuffix(url, "/0") {
			time.Sleep(30 * time.Millisecond)
		}
		switch {
		case strings.HasPrefix(url, "chrome://"):
			return core.SkippedOutcome(url, core.ReasonRestrictedScheme)
		case strings.Contains(url, "fail"):
			return core.FailedOutcome(url, core.ReasonNetworkError, "refused")
		default:
			return core.SucceededOutcome(url, "  body of "+url+"  ", core.ContentPlainText, "text/plain")
		}
	}}
	urls := []string{
		"https://a.test/0",
		"chrome://settings",
		"https://fail.test/1",
		"https://a.test/2",
		"https://a.test/0",
		"https://fail.test/3",
	}

	summary, err := newTestPipeline(f, Config{Concurrency: 3}).Crawl(context.Background(), urls)
	require.NoError(t, err)

	require.Len(t, summary.Entries, 5)
	gotOrder := make([]string, 0, len(summary.Entries))
	for _, e := range summary.Entries {
		gotOrder = append(gotOrder, e.URL)
	}
	assert.Equal(t, []string{"https://a.test/0", "chrome://settings", "https://fail.test/1", "https://a.test/2", "https://fail.test/3"}, gotOrder)

	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 2, summary.ErrorCount)
	assert.Equal(t, 1, summary.SkippedCount)
	assert.Equal(t, len(summary.Entries), summary.Total())
	assert.Len(t, f.seen, 5)
	assert.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(3))

	require.NotNil(t, summary.Entries[0].Content)
	assert.Equal(t, "body of https://a.test/0", summary.Entries[0].Content.Text)
	assert.Equal(t, "https://a.test/0", summary.Entries[0].Content.SourceURL)
	assert.Nil(t, summary.Entries[1].Content)
	assert.Nil(t, summary.Entries[2].Content)
}

func TestCrawlInvalidURLFetchesNothing(t *testing.T) {
	f := &fakeFetcher{FetchFn: func(_ context.Context, url string) core.FetchOutcome {
		return core.SucceededOutcome(url, "", core.ContentPlainText, "")
	}}

	for _, bad := range []string{"not a url", "/relative/path", "", "https://"} {
		summary, err := newTestPipeline(f, Config{}).Crawl(context.Background(), []string{"https://ok.test", bad})
		assert.ErrorIs(t, err, ErrInvalidURL, bad)
		assert.Nil(t, summary)
	}
	assert.Empty(t, f.seen)
}

func TestCrawlEmptyInput(t *testing.T) {
	summary, err := newTestPipeline(&fakeFetcher{}, Config{}).Crawl(context.Background(), nil)
	require.NoError(t, err)

	assert.Empty(t, summary.Entries)
	assert.Equal(t, 0, summary.Total())
	assert.Equal(t, "Crawling Summary: 0 successful, 0 failed", render.Prompt(summary))
}

func TestCrawlTruncatesAtCrawlCap(t *testing.T) {
	f := &fakeFetcher{FetchFn: func(_ context.Context, url string) core.FetchOutcome {
		return core.SucceededOutcome(url, strings.Repeat("x", normalize.CrawlCap+500), core.ContentPlainText, "text/plain")
	}}

	summary, err := newTestPipeline(f, Config{}).Crawl(context.Background(), []string{"https://big.test"})
	require.NoError(t, err)

	content := summary.Entries[0].Content
	require.NotNil(t, content)
	assert.True(t, content.Truncated)
	assert.Equal(t, strings.Repeat("x", normalize.CrawlCap)+normalize.TruncationMarker, content.Text)
}

func TestCrawlHTTP404RendersError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	p := newTestPipeline(fetch.New(fetch.Config{}, zerolog.Nop()), Config{})
	target := server.URL + "/missing"

	summary, err := p.Crawl(context.Background(), []string{target})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ErrorCount)
	assert.Contains(t, render.Prompt(summary), "[ERROR] "+target+" - HTTP 404: Not Found")
}

func TestCrawlAllFailingAddsSuggestionsOnce(t *testing.T) {
	f := &fakeFetcher{FetchFn: func(_ context.Context, url string) core.FetchOutcome {
		return core.FailedOutcome(url, core.ReasonCorsBlocked, "denied")
	}}

	summary, err := newTestPipeline(f, Config{}).Crawl(context.Background(),
		[]string{"https://a.test", "https://b.test", "https://c.test"})
	require.NoError(t, err)

	out := render.Prompt(summary)
	assert.Equal(t, 3, strings.Count(out, "[CORS ERROR]"))
	assert.Equal(t, 1, strings.Count(out, render.Suggestions))
	assert.Contains(t, out, "Crawling Summary: 0 successful, 3 failed")
}

func TestTestAccessibility(t *testing.T) {
	f := &fakeFetcher{FetchFn: func(_ context.Context, url string) core.FetchOutcome {
		if strings.Contains(url, "down") {
			return core.FailedOutcome(url, core.ReasonNetworkError, "refused")
		}
		return core.SucceededOutcome(url, "<p>"+strings.Repeat("z", 2000)+"</p>", core.ContentHTML, "text/html")
	}}
	p := newTestPipeline(f, Config{})

	ok := p.TestAccessibility(context.Background(), "https://docs.example.com/guide/intro")
	assert.True(t, ok.Accessible)
	assert.True(t, ok.LooksLikeDocumentation)
	assert.Equal(t, core.ContentHTML, ok.ContentType)
	assert.Equal(t, strings.Repeat("z", normalize.SampleCap)+normalize.TruncationMarker, ok.Sample)

	down := p.TestAccessibility(context.Background(), "https://down.example.com/docs/")
	assert.False(t, down.Accessible)
	assert.False(t, down.LooksLikeDocumentation)
	assert.Equal(t, core.ReasonNetworkError, down.Outcome.Reason)
}

func TestLooksLikeDocumentation(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		url      string
		expected bool
	}{
		{"host and path without keywords", "zzz qqq", "https://docs.example.com/guide/intro", true},
		{"keyword in text", "See the INSTALLATION steps", "https://example.com/", true},
		{"path segment", "zzz", "https://example.com/Reference/strings", true},
		{"host prefix", "zzz", "https://developer.example.com/", true},
		{"nothing", "hello world", "https://example.com/blog/post", false},
		{"unparseable url", "zzz", "://", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LooksLikeDocumentation(tt.text, tt.url))
		})
	}
}
