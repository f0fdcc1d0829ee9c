// Package testutil provides helpers for deterministic blocklist feed tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Feed defines a fixed reply for a feed path.
type Feed struct {
	Body string

	// Status is returned instead of the body when not zero.
	Status int

	// ContentType defaults to text/plain; charset=utf-8.
	ContentType string

	// FailFirst requests are answered with 503 before the feed recovers.
	FailFirst int
}

// FeedStub serves fixed blocklist feeds over HTTP.
type FeedStub struct {
	URL    string
	server *httptest.Server

	mu    sync.Mutex
	feeds map[string]Feed
	hits  map[string]int
}

// StartFeedStub starts an HTTP server serving feeds keyed by path, such as
// "/ads.txt". Unknown paths answer 404. The server is closed on cleanup.
func StartFeedStub(t *testing.T, feeds map[string]Feed) *FeedStub {
	t.Helper()

	stub := &FeedStub{
		feeds: make(map[string]Feed, len(feeds)),
		hits:  make(map[string]int),
	}
	for path, feed := range feeds {
		stub.feeds[NormalizePath(path)] = feed
	}
	stub.server = httptest.NewServer(http.HandlerFunc(stub.serve))
	stub.URL = stub.server.URL

	t.Cleanup(stub.Close)
	return stub
}

// Close shuts down the feed server.
func (s *FeedStub) Close() {
	if s.server != nil {
		s.server.Close()
	}
}

// URLFor returns the absolute URL of a feed path.
func (s *FeedStub) URLFor(path string) string {
	return s.URL + NormalizePath(path)
}

// Hits returns how many requests a feed path received.
func (s *FeedStub) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hits[NormalizePath(path)]
}

// SetFeed replaces the reply for a feed path.
func (s *FeedStub) SetFeed(path string, feed Feed) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.feeds[NormalizePath(path)] = feed
}

func (s *FeedStub) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	path := NormalizePath(r.URL.Path)
	s.hits[path]++
	hits := s.hits[path]
	feed, ok := s.feeds[path]
	s.mu.Unlock()

	switch {
	case !ok:
		http.NotFound(w, r)
	case hits <= feed.FailFirst:
		w.WriteHeader(http.StatusServiceUnavailable)
	case feed.Status != 0:
		w.WriteHeader(feed.Status)
	default:
		contentType := feed.ContentType
		if contentType == "" {
			contentType = "text/plain; charset=utf-8"
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(feed.Body))
	}
}

// NormalizePath ensures a leading slash.
func NormalizePath(path string) string {
	trimmed := strings.TrimSpace(path)
	if strings.HasPrefix(trimmed, "/") {
		return trimmed
	}
	return "/" + trimmed
}
