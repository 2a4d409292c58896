// Package fetcher retrieves recipe pages over HTTP. Implement the
// Fetcher interface to plug in custom fetching, authentication, or
// anti-bot handling.
package fetcher

import (
	"context"
	"time"
)

// Fetcher abstracts page fetching.
type Fetcher interface {
	// Fetch retrieves page content from a URL.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns a string identifying the fetcher ("static", etc.).
	Type() string
}

// Options controls fetching behavior.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	Headers   map[string]string
}

// Content represents a fetched page.
type Content struct {
	URL         string
	HTML        string
	Title       string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
}
