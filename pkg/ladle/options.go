// Package ladle provides the public API for adaptive recipe extraction:
// HTML cleanup, schema-constrained LLM extraction, validation with
// bounded retries, and content-addressed caching.
package ladle

import (
	"time"

	"github.com/ladlehq/ladle/pkg/cache"
	"github.com/ladlehq/ladle/pkg/cleaner"
	"github.com/ladlehq/ladle/pkg/extractor"
	"github.com/ladlehq/ladle/pkg/fetcher"
	"github.com/ladlehq/ladle/pkg/llm"
	"github.com/ladlehq/ladle/pkg/storage"
)

// Config holds all Ladle configuration.
type Config struct {
	// LLM settings
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration

	// Pipeline settings
	CleanerConfig   *cleaner.Config
	ExtractorConfig *extractor.Config

	// Dependency injection. When set, these take precedence over the
	// settings above.
	LLM     llm.Provider
	Store   cache.Store
	Storage storage.Provider
	Fetcher fetcher.Fetcher
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "gemini",
		Timeout:  120 * time.Second,
	}
}

// Option configures Ladle.
type Option func(*Config)

// WithProvider sets the LLM provider name (gemini, openai, anthropic).
func WithProvider(provider string) Option {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithModel sets the LLM model.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL sets a custom API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithTimeout sets the LLM request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithCleanerConfig overrides the cleanup cascade configuration.
func WithCleanerConfig(cfg cleaner.Config) Option {
	return func(c *Config) {
		c.CleanerConfig = &cfg
	}
}

// WithExtractorConfig overrides the extraction configuration.
func WithExtractorConfig(cfg extractor.Config) Option {
	return func(c *Config) {
		c.ExtractorConfig = &cfg
	}
}

// WithLLM injects a custom LLM provider.
func WithLLM(p llm.Provider) Option {
	return func(c *Config) {
		c.LLM = p
	}
}

// WithStore injects a cache store. Defaults to an in-memory store.
func WithStore(s cache.Store) Option {
	return func(c *Config) {
		c.Store = s
	}
}

// WithStorage injects an object storage provider for uploading
// extraction results. Optional.
func WithStorage(p storage.Provider) Option {
	return func(c *Config) {
		c.Storage = p
	}
}

// WithFetcher injects a custom page fetcher.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(c *Config) {
		c.Fetcher = f
	}
}
