// Package crawl: ordered URL set with deduplication.
// Maintains a seen set so a URL is processed at most once per batch.
package crawl

// Queue is a FIFO of URLs that ignores repeats.
type Queue struct {
	items   []string
	visited map[string]bool
	idx     int // current read position
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{
		visited: make(map[string]bool),
	}
}

// Add enqueues a URL if it hasn't been seen before and reports whether it was added.
func (q *Queue) Add(url string) bool {
	if q.visited[url] {
		return false
	}
	q.visited[url] = true
	q.items = append(q.items, url)
	return true
}

// HasNext returns true if there are unprocessed URLs.
func (q *Queue) HasNext() bool {
	return q.idx < len(q.items)
}

// Next returns the next unprocessed URL and advances the pointer.
func (q *Queue) Next() string {
	url := q.items[q.idx]
	q.idx++
	return url
}

// Len returns the total number of unique URLs seen.
func (q *Queue) Len() int {
	return len(q.visited)
}

// All returns all unique URLs in insertion order.
func (q *Queue) All() []string {
	return q.items
}
