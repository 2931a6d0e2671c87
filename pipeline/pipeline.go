// Package pipeline composes a Fetcher and a Normalizer into the two
// user-facing operations: crawling a batch of URLs into a CrawlSummary and
// probing a single URL for accessibility.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/gaurav-prasanna/docpipe/core"
	"github.com/gaurav-prasanna/docpipe/core/normalize"
	"github.com/gaurav-prasanna/docpipe/crawl"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel fetches within one crawl.
const DefaultConcurrency = 4

// ErrInvalidURL is returned by Crawl when an input is not an absolute URL.
var ErrInvalidURL = errors.New("invalid URL")

// Config controls a Pipeline.
type Config struct {
	Concurrency int `yaml:"concurrency"`
	CrawlCap    int `yaml:"crawl_cap"`
	SampleCap   int `yaml:"sample_cap"`
}

// WithDefaults fills zero fields. Caps left at zero take the standard values;
// a negative cap disables truncation.
func (c Config) WithDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.CrawlCap == 0 {
		c.CrawlCap = normalize.CrawlCap
	}
	if c.SampleCap == 0 {
		c.SampleCap = normalize.SampleCap
	}
	return c
}

// Pipeline runs fetch and normalize for batches of URLs.
type Pipeline struct {
	fetcher    core.Fetcher
	normalizer core.Normalizer
	cfg        Config
	log        zerolog.Logger
}

// New creates a Pipeline.
func New(fetcher core.Fetcher, normalizer core.Normalizer, cfg Config, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		normalizer: normalizer,
		cfg:        cfg.WithDefaults(),
		log:        log.With().Str("component", "pipeline").Logger(),
	}
}

// Crawl fetches and normalizes every distinct URL in urls. Entries keep the
// order of first appearance. The only error is ErrInvalidURL, returned before
// any fetch is attempted.
func (p *Pipeline) Crawl(ctx context.Context, urls []string) (*core.CrawlSummary, error) {
	queue := crawl.NewQueue()
	for _, u := range urls {
		if !crawl.IsAbsolute(u) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidURL, u)
		}
		queue.Add(u)
	}
	distinct := queue.All()

	entries := make([]core.CrawlEntry, len(distinct))
	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for i, u := range distinct {
		g.Go(func() error {
			entries[i] = p.crawlOne(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	summary := &core.CrawlSummary{Entries: entries}
	for _, e := range entries {
		switch e.Outcome.Kind {
		case core.Succeeded:
			summary.SuccessCount++
		case core.Skipped:
			summary.SkippedCount++
		default:
			summary.ErrorCount++
		}
	}

	p.log.Info().
		Int("urls", len(distinct)).
		Int("success", summary.SuccessCount).
		Int("errors", summary.ErrorCount).
		Int("skipped", summary.SkippedCount).
		Msg("Crawl complete")
	return summary, nil
}

func (p *Pipeline) crawlOne(ctx context.Context, rawURL string) core.CrawlEntry {
	outcome := p.fetcher.Fetch(ctx, rawURL)
	entry := core.CrawlEntry{URL: rawURL, Outcome: outcome}

	switch outcome.Kind {
	case core.Succeeded:
		content := p.normalizer.Normalize(outcome.Body, outcome.ContentType, p.cfg.CrawlCap)
		content.SourceURL = rawURL
		entry.Content = &content
		p.log.Debug().Str("url", rawURL).Str("kind", outcome.Kind.String()).
			Str("content_type", outcome.ContentType.String()).Bool("truncated", content.Truncated).Msg("Fetched")
	case core.Skipped:
		p.log.Debug().Str("url", rawURL).Str("kind", outcome.Kind.String()).
			Str("reason", outcome.Reason.String()).Msg("Skipped")
	default:
		p.log.Warn().Str("url", rawURL).Str("kind", outcome.Kind.String()).
			Str("reason", outcome.Label()).Str("detail", outcome.Detail).Msg("Fetch failed")
	}
	return entry
}

// TestAccessibility fetches rawURL once and reports whether its content is
// readable and whether it looks like documentation.
func (p *Pipeline) TestAccessibility(ctx context.Context, rawURL string) core.Accessibility {
	outcome := p.fetcher.Fetch(ctx, rawURL)
	result := core.Accessibility{URL: rawURL, Outcome: outcome}
	if outcome.Kind != core.Succeeded {
		return result
	}

	sample := p.normalizer.Normalize(outcome.Body, outcome.ContentType, p.cfg.SampleCap)
	result.Accessible = true
	result.ContentType = outcome.ContentType
	result.Sample = sample.Text
	result.LooksLikeDocumentation = LooksLikeDocumentation(sample.Text, rawURL)
	return result
}
