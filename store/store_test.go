package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

// setupTestStore creates an in-memory store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newURL(id, rawURL string, status Status, added time.Time) *MonitoredURL {
	return &MonitoredURL{ID: id, URL: rawURL, Name: "example.com", Status: status, AddedAt: added}
}

func TestAddAndGetURL(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	added := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.AddURL(ctx, newURL("id-1", "https://example.com/docs", StatusPending, added)))

	got, err := s.GetURL(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/docs", got.URL)
	assert.Equal(t, StatusPending, got.Status)
	assert.True(t, added.Equal(got.AddedAt))
	assert.Nil(t, got.LastCrawled)
	assert.Nil(t, got.LastChanged)

	byURL, err := s.FindURL(ctx, "https://example.com/docs")
	require.NoError(t, err)
	assert.Equal(t, "id-1", byURL.ID)
}

func TestAddURLRejectsDuplicateAddress(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.AddURL(ctx, newURL("id-1", "https://example.com", StatusPending, now)))
	assert.Error(t, s.AddURL(ctx, newURL("id-2", "https://example.com", StatusPending, now)))
}

func TestGetURLNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetURL(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.RemoveURL(context.Background(), "missing"), ErrNotFound)
	assert.ErrorIs(t, s.UpdateURL(context.Background(), &MonitoredURL{ID: "missing"}), ErrNotFound)
}

func TestUpdateURL(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddURL(ctx, newURL("id-1", "https://example.com", StatusPending, time.Now())))

	crawled := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	u, err := s.GetURL(ctx, "id-1")
	require.NoError(t, err)
	u.Status = StatusOnline
	u.LastCrawled = &crawled
	u.LastChanged = &crawled
	u.ChangeCount = 2
	u.Content = "hello"
	u.ContentType = "text"
	u.ContentHash = "abc"
	require.NoError(t, s.UpdateURL(ctx, u))

	got, err := s.GetURL(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, StatusOnline, got.Status)
	require.NotNil(t, got.LastCrawled)
	assert.True(t, crawled.Equal(*got.LastCrawled))
	assert.Equal(t, 2, got.ChangeCount)
	assert.Equal(t, "hello", got.Content)
	assert.Equal(t, "abc", got.ContentHash)
}

func TestListURLsAndStats(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.AddURL(ctx, newURL("b", "https://b.test", StatusOnline, base.Add(time.Minute))))
	require.NoError(t, s.AddURL(ctx, newURL("a", "https://a.test", StatusError, base)))
	require.NoError(t, s.AddURL(ctx, newURL("c", "https://c.test", StatusPending, base.Add(2*time.Minute))))
	require.NoError(t, s.AddURL(ctx, newURL("d", "https://d.test", StatusOnline, base.Add(3*time.Minute))))

	urls, err := s.ListURLs(ctx)
	require.NoError(t, err)
	require.Len(t, urls, 4)
	assert.Equal(t, "a", urls[0].ID)
	assert.Equal(t, "d", urls[3].ID)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 4, Online: 2, Error: 1, Pending: 1}, stats)
}

func TestSnapshotsCascadeOnRemove(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddURL(ctx, newURL("id-1", "https://example.com", StatusOnline, time.Now())))

	first := &Snapshot{URLID: "id-1", Content: "v1", ContentHash: "h1", CapturedAt: time.Now()}
	second := &Snapshot{URLID: "id-1", Content: "v2", ContentHash: "h2", CapturedAt: time.Now()}
	require.NoError(t, s.AddSnapshot(ctx, first))
	require.NoError(t, s.AddSnapshot(ctx, second))

	snaps, err := s.ListSnapshots(ctx, "id-1")
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "v2", snaps[0].Content)

	require.NoError(t, s.RemoveURL(ctx, "id-1"))
	snaps, err = s.ListSnapshots(ctx, "id-1")
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestOpenFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "docpipe.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, path, s.Path())
}

func TestCredentials(t *testing.T) {
	keyring.MockInit()
	c := NewCredentials()

	_, err := c.Get()
	assert.ErrorIs(t, err, ErrNoCredential)

	require.NoError(t, c.Set("sk-test-key-123456789012"))
	got, err := c.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-test-key-123456789012", got)

	require.NoError(t, c.Delete())
	_, err = c.Get()
	assert.ErrorIs(t, err, ErrNoCredential)
	assert.NoError(t, c.Delete())
}
