// Package fetcher handles feed downloading and parsing.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"rss_monitor/internal/model"
)

const maxBodySize = 5 * 1024 * 1024

// DefaultTimeout bounds a single feed retrieval.
const DefaultTimeout = 30 * time.Second

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads and parses RSS and Atom feeds.
type Fetcher struct {
	client    HTTPClient
	timeout   time.Duration
	userAgent string
}

// NewHTTPClient returns a client for feed retrieval. It sets no timeout of
// its own; each Fetch is bounded by the fetcher's timeout through the
// request context.
func NewHTTPClient() *http.Client {
	return &http.Client{}
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{
		client:    client,
		timeout:   DefaultTimeout,
		userAgent: "RSSMonitor/1.0",
	}
}

// Fetch downloads the feed at url and returns its entries in feed order,
// which for well-behaved feeds means newest first.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]model.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return Entries(feed), nil
}

// Entries converts parsed feed items into domain entries.
func Entries(feed *gofeed.Feed) []model.Entry {
	if feed == nil {
		return nil
	}
	entries := make([]model.Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, model.Entry{
			Title: strings.TrimSpace(item.Title),
			Link:  strings.TrimSpace(item.Link),
		})
	}
	return entries
}
