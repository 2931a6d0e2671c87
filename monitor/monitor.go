// Package monitor re-crawls a persisted list of documentation URLs on a
// schedule and records when their normalized content changes.
package monitor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gaurav-prasanna/docpipe/core"
	"github.com/gaurav-prasanna/docpipe/core/normalize"
	"github.com/gaurav-prasanna/docpipe/crawl"
	"github.com/gaurav-prasanna/docpipe/store"
	"github.com/google/uuid"
	cronlib "github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultInterval is how often CrawlAll runs once started.
const DefaultInterval = 5 * time.Minute

var (
	// ErrInvalidURL is returned by Add for anything but an http(s) URL with a host.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrAlreadyMonitored is returned by Add for a URL already in the list.
	ErrAlreadyMonitored = errors.New("URL is already being monitored")
	// ErrInProgress is returned by CrawlOne while the same URL is being crawled.
	ErrInProgress = errors.New("crawl already in progress")
	// ErrRunning is returned by Start on a monitor that is already scheduled.
	ErrRunning = errors.New("monitor already running")
)

// Config controls a Monitor.
type Config struct {
	Interval time.Duration `yaml:"interval"`
	// SnapshotDir, when set, also writes changed content to disk.
	SnapshotDir string `yaml:"snapshot_dir"`
}

// WithDefaults fills zero fields.
func (c Config) WithDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	return c
}

// Store is the persistence a Monitor needs.
type Store interface {
	AddURL(ctx context.Context, u *store.MonitoredURL) error
	GetURL(ctx context.Context, id string) (*store.MonitoredURL, error)
	FindURL(ctx context.Context, rawURL string) (*store.MonitoredURL, error)
	ListURLs(ctx context.Context) ([]*store.MonitoredURL, error)
	UpdateURL(ctx context.Context, u *store.MonitoredURL) error
	RemoveURL(ctx context.Context, id string) error
	Stats(ctx context.Context) (store.Stats, error)
	AddSnapshot(ctx context.Context, snap *store.Snapshot) error
}

// SnapshotWriter stores changed content outside the database.
type SnapshotWriter interface {
	WriteSnapshot(rawURL, content string, at time.Time) (string, error)
}

// ChangeEvent describes a detected content change.
type ChangeEvent struct {
	URL        *store.MonitoredURL
	Content    string
	DetectedAt time.Time
}

// Report summarizes one CrawlAll pass.
type Report struct {
	Crawled int
	Changed int
	Failed  int
	Skipped int
}

// Monitor tracks a set of URLs for content changes.
type Monitor struct {
	store      Store
	fetcher    core.Fetcher
	normalizer core.Normalizer
	snapshots  SnapshotWriter
	cfg        Config
	log        zerolog.Logger

	// OnChange, if set, is called after a change has been persisted.
	OnChange func(ChangeEvent)

	now func() time.Time

	mu       sync.Mutex
	inFlight map[string]bool
	cron     *cronlib.Cron
}

// New creates a Monitor. snapshots may be nil.
func New(st Store, fetcher core.Fetcher, normalizer core.Normalizer, snapshots SnapshotWriter, cfg Config, log zerolog.Logger) *Monitor {
	return &Monitor{
		store:      st,
		fetcher:    fetcher,
		normalizer: normalizer,
		snapshots:  snapshots,
		cfg:        cfg.WithDefaults(),
		log:        log.With().Str("component", "monitor").Logger(),
		now:        time.Now,
		inFlight:   make(map[string]bool),
	}
}

// Add starts monitoring rawURL. The record begins in the pending state.
func (m *Monitor) Add(ctx context.Context, rawURL string) (*store.MonitoredURL, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	if _, err := m.store.FindURL(ctx, rawURL); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyMonitored, rawURL)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("checking existing URL: %w", err)
	}

	record := &store.MonitoredURL{
		ID:      uuid.NewString(),
		URL:     rawURL,
		Name:    strings.TrimPrefix(crawl.Host(rawURL), "www."),
		Status:  store.StatusPending,
		AddedAt: m.now().UTC(),
	}
	if err := m.store.AddURL(ctx, record); err != nil {
		return nil, err
	}
	m.log.Info().Str("id", record.ID).Str("url", rawURL).Msg("Monitoring URL")
	return record, nil
}

// AddAndCrawl adds rawURL and crawls it once so the record leaves the
// pending state straight away. A failed fetch is recorded on the URL, not
// returned.
func (m *Monitor) AddAndCrawl(ctx context.Context, rawURL string) (*store.MonitoredURL, error) {
	record, err := m.Add(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	crawled, _, err := m.CrawlOne(ctx, record.ID)
	if err != nil {
		return record, fmt.Errorf("initial crawl of %s: %w", rawURL, err)
	}
	return crawled, nil
}

// Remove stops monitoring the URL with the given id.
func (m *Monitor) Remove(ctx context.Context, id string) error {
	return m.store.RemoveURL(ctx, id)
}

// List returns every monitored URL.
func (m *Monitor) List(ctx context.Context) ([]*store.MonitoredURL, error) {
	return m.store.ListURLs(ctx)
}

// Stats counts monitored URLs by status.
func (m *Monitor) Stats(ctx context.Context) (store.Stats, error) {
	return m.store.Stats(ctx)
}

func (m *Monitor) acquire(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight[id] {
		return false
	}
	m.inFlight[id] = true
	return true
}

func (m *Monitor) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, id)
}

// CrawlOne fetches a monitored URL, updates its record and reports whether
// its content changed since the previous successful crawl.
func (m *Monitor) CrawlOne(ctx context.Context, id string) (*store.MonitoredURL, bool, error) {
	if !m.acquire(id) {
		return nil, false, ErrInProgress
	}
	defer m.release(id)

	record, err := m.store.GetURL(ctx, id)
	if err != nil {
		return nil, false, err
	}

	now := m.now().UTC()
	outcome := m.fetcher.Fetch(ctx, record.URL)
	record.LastCrawled = &now

	changed := false
	var content string
	if outcome.Kind == core.Succeeded {
		normalized := m.normalizer.Normalize(outcome.Body, outcome.ContentType, normalize.CrawlCap)
		content = normalized.Text
		hash := contentHash(content)

		if hash != record.ContentHash {
			if record.ContentHash != "" {
				changed = true
				record.ChangeCount++
				record.LastChanged = &now
			}
			if err := m.store.AddSnapshot(ctx, &store.Snapshot{
				URLID: record.ID, Content: content, ContentHash: hash, CapturedAt: now,
			}); err != nil {
				return nil, false, err
			}
		}
		record.Content = content
		record.ContentType = outcome.ContentType.String()
		record.ContentHash = hash
		record.Status = store.StatusOnline
		record.ErrorCount = 0
		record.LastError = ""
	} else {
		record.Status = store.StatusError
		record.ErrorCount++
		record.LastError = strings.TrimSpace(outcome.Label() + " " + outcome.Detail)
		m.log.Warn().Str("id", record.ID).Str("url", record.URL).Str("reason", outcome.Label()).Msg("Monitored URL failed")
	}

	if err := m.store.UpdateURL(ctx, record); err != nil {
		return nil, false, err
	}

	if changed {
		m.log.Info().Str("id", record.ID).Str("url", record.URL).Int("change_count", record.ChangeCount).Msg("Content changed")
		if m.snapshots != nil {
			if path, err := m.snapshots.WriteSnapshot(record.URL, content, now); err != nil {
				m.log.Warn().Err(err).Str("url", record.URL).Msg("Writing snapshot file failed")
			} else {
				m.log.Debug().Str("path", path).Msg("Snapshot written")
			}
		}
		if m.OnChange != nil {
			m.OnChange(ChangeEvent{URL: record, Content: content, DetectedAt: now})
		}
	}
	return record, changed, nil
}

// CrawlAll crawls every monitored URL once.
func (m *Monitor) CrawlAll(ctx context.Context) (Report, error) {
	urls, err := m.store.ListURLs(ctx)
	if err != nil {
		return Report{}, err
	}

	var report Report
	for _, u := range urls {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		record, changed, err := m.CrawlOne(ctx, u.ID)
		switch {
		case errors.Is(err, ErrInProgress), errors.Is(err, store.ErrNotFound):
			report.Skipped++
			continue
		case err != nil:
			return report, fmt.Errorf("crawling %s: %w", u.URL, err)
		}
		report.Crawled++
		if changed {
			report.Changed++
		}
		if record.Status == store.StatusError {
			report.Failed++
		}
	}
	m.log.Info().Int("crawled", report.Crawled).Int("changed", report.Changed).
		Int("failed", report.Failed).Int("skipped", report.Skipped).Msg("Monitor pass complete")
	return report, nil
}

// Start schedules CrawlAll every configured interval until Stop is called.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cron != nil {
		return ErrRunning
	}

	c := cronlib.New()
	schedule := "@every " + m.cfg.Interval.String()
	if _, err := c.AddFunc(schedule, func() {
		if _, err := m.CrawlAll(ctx); err != nil {
			m.log.Error().Err(err).Msg("Scheduled crawl failed")
		}
	}); err != nil {
		return fmt.Errorf("scheduling %q: %w", schedule, err)
	}
	c.Start()
	m.cron = c
	m.log.Info().Dur("interval", m.cfg.Interval).Msg("Monitor started")
	return nil
}

// Stop cancels the schedule and waits for a running pass to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	m.log.Info().Msg("Monitor stopped")
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
