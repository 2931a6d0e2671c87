package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
)

// Status is the health of a monitored URL.
type Status string

const (
	StatusPending Status = "pending"
	StatusOnline  Status = "online"
	StatusError   Status = "error"
)

// MonitoredURL is a URL checked periodically for content changes.
type MonitoredURL struct {
	ID          string
	URL         string
	Name        string
	Status      Status
	LastCrawled *time.Time
	LastChanged *time.Time
	ChangeCount int
	ErrorCount  int
	LastError   string
	Content     string
	ContentType string
	ContentHash string
	AddedAt     time.Time
}

// Stats counts monitored URLs by status.
type Stats struct {
	Total   int
	Online  int
	Error   int
	Pending int
}

// Snapshot is a stored copy of content captured when a change was detected.
type Snapshot struct {
	ID          int64
	URLID       string
	Content     string
	ContentHash string
	CapturedAt  time.Time
}

const urlColumns = `id, url, name, status, last_crawled, last_changed, change_count,
	error_count, last_error, content, content_type, content_hash, added_at`

// AddURL inserts a new monitored URL.
func (s *Store) AddURL(ctx context.Context, u *MonitoredURL) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO monitored_urls (`+urlColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.URL, u.Name, string(u.Status), nullTime(u.LastCrawled), nullTime(u.LastChanged),
		u.ChangeCount, u.ErrorCount, u.LastError, u.Content, u.ContentType, u.ContentHash, u.AddedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting monitored URL: %w", err)
	}
	return nil
}

// GetURL returns the monitored URL with the given id.
func (s *Store) GetURL(ctx context.Context, id string) (*MonitoredURL, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+urlColumns+` FROM monitored_urls WHERE id = ?`, id)
	return scanURL(row)
}

// FindURL returns the monitored URL with the given address.
func (s *Store) FindURL(ctx context.Context, rawURL string) (*MonitoredURL, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+urlColumns+` FROM monitored_urls WHERE url = ?`, rawURL)
	return scanURL(row)
}

// ListURLs returns all monitored URLs, oldest first.
func (s *Store) ListURLs(ctx context.Context) ([]*MonitoredURL, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+urlColumns+` FROM monitored_urls ORDER BY added_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing monitored URLs: %w", err)
	}
	defer rows.Close()

	var urls []*MonitoredURL
	for rows.Next() {
		u, err := scanURL(rows)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing monitored URLs: %w", err)
	}
	return urls, nil
}

// UpdateURL writes every mutable field of u.
func (s *Store) UpdateURL(ctx context.Context, u *MonitoredURL) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE monitored_urls
		SET name = ?, status = ?, last_crawled = ?, last_changed = ?, change_count = ?,
			error_count = ?, last_error = ?, content = ?, content_type = ?, content_hash = ?
		WHERE id = ?
	`, u.Name, string(u.Status), nullTime(u.LastCrawled), nullTime(u.LastChanged), u.ChangeCount,
		u.ErrorCount, u.LastError, u.Content, u.ContentType, u.ContentHash, u.ID)
	if err != nil {
		return fmt.Errorf("updating monitored URL: %w", err)
	}
	return requireAffected(res, u.ID)
}

// RemoveURL deletes a monitored URL and its snapshots.
func (s *Store) RemoveURL(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM monitored_urls WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("removing monitored URL: %w", err)
	}
	return requireAffected(res, id)
}

// Stats counts monitored URLs by status.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	urls, err := s.ListURLs(ctx)
	if err != nil {
		return Stats{}, err
	}
	counts := lo.CountValuesBy(urls, func(u *MonitoredURL) Status { return u.Status })
	return Stats{
		Total:   len(urls),
		Online:  counts[StatusOnline],
		Error:   counts[StatusError],
		Pending: counts[StatusPending],
	}, nil
}

// AddSnapshot records content captured for a monitored URL.
func (s *Store) AddSnapshot(ctx context.Context, snap *Snapshot) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (url_id, content, content_hash, captured_at)
		VALUES (?, ?, ?, ?)
	`, snap.URLID, snap.Content, snap.ContentHash, snap.CapturedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting snapshot ID: %w", err)
	}
	snap.ID = id
	return nil
}

// ListSnapshots returns the snapshots of a monitored URL, newest first.
func (s *Store) ListSnapshots(ctx context.Context, urlID string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT snapshot_id, url_id, content, content_hash, captured_at
		FROM snapshots WHERE url_id = ? ORDER BY snapshot_id DESC
	`, urlID)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.URLID, &snap.Content, &snap.ContentHash, &snap.CapturedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	return snaps, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanURL(row scanner) (*MonitoredURL, error) {
	var (
		u                        MonitoredURL
		status                   string
		lastCrawled, lastChanged sql.NullTime
	)
	err := row.Scan(&u.ID, &u.URL, &u.Name, &status, &lastCrawled, &lastChanged, &u.ChangeCount,
		&u.ErrorCount, &u.LastError, &u.Content, &u.ContentType, &u.ContentHash, &u.AddedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning monitored URL: %w", err)
	}
	u.Status = Status(status)
	if lastCrawled.Valid {
		u.LastCrawled = &lastCrawled.Time
	}
	if lastChanged.Valid {
		u.LastChanged = &lastChanged.Time
	}
	return &u, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("monitored URL %s: %w", id, ErrNotFound)
	}
	return nil
}
