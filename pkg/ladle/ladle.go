package ladle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ladlehq/ladle/internal/logger"
	"github.com/ladlehq/ladle/pkg/cache"
	"github.com/ladlehq/ladle/pkg/cleaner"
	"github.com/ladlehq/ladle/pkg/extractor"
	"github.com/ladlehq/ladle/pkg/fetcher"
	"github.com/ladlehq/ladle/pkg/llm"
	"github.com/ladlehq/ladle/pkg/recipe"
)

// Input identifies the content to extract from. URL takes precedence
// for fingerprinting; when Text is empty the page is fetched from URL.
type Input struct {
	URL  string
	Text string

	// SkipCache bypasses the cache lookup and forces a fresh
	// extraction. The fresh result still overwrites the cached entry.
	SkipCache bool
}

// Output is the result of a pipeline run.
type Output struct {
	// IsRecipe is the page-level verdict. When false, Recipes is empty.
	IsRecipe   bool
	Confidence float64
	Recipes    []recipe.Recipe

	// Canonical is the serialized result as stored in the cache.
	Canonical []byte

	// Provenance.
	Fingerprint string
	Strategy    string
	Reduction   float64
	Attempts    int
	Usage       llm.Usage
	Duration    time.Duration

	// Cached is true when the result came from the cache without a
	// model call.
	Cached bool
	// Version is the cache entry version (0 on first write).
	Version int

	// StorageURL points at the uploaded result when object storage is
	// configured.
	StorageURL string
}

// cachedPayload is the wire shape persisted in the cache and uploaded
// to storage. It is rendered as stable indented JSON, the same form
// recipe.Canonical uses, so replays and uploads are byte-identical.
type cachedPayload struct {
	IsRecipe   bool            `json:"isRecipe"`
	Confidence float64         `json:"confidence"`
	Recipes    []recipe.Recipe `json:"recipes"`
	Strategy   string          `json:"strategy"`
	Reduction  float64         `json:"reduction"`
}

// Ladle is the main entry point for recipe extraction.
type Ladle struct {
	orchestrator *cleaner.Orchestrator
	extractor    *extractor.Extractor
	store        cache.Store
	config       Config

	// group collapses concurrent extractions of the same fingerprint
	// into a single pipeline run. SkipCache requests bypass it.
	group singleflight.Group
}

// New creates a new Ladle instance.
func New(opts ...Option) (*Ladle, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	provider := cfg.LLM
	if provider == nil {
		providerCfg := llm.ProviderConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}

		var err error
		switch cfg.Provider {
		case "openai":
			provider, err = llm.NewOpenAIProvider(providerCfg)
		case "anthropic":
			provider, err = llm.NewAnthropicProvider(providerCfg)
		case "gemini", "":
			provider, err = llm.NewGeminiProvider(providerCfg)
		default:
			return nil, fmt.Errorf("unknown provider: %s (use gemini, openai, or anthropic)", cfg.Provider)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create provider: %w", err)
		}
	}

	cleanerCfg := cleaner.DefaultConfig()
	if cfg.CleanerConfig != nil {
		cleanerCfg = *cfg.CleanerConfig
	}

	extractorCfg := extractor.DefaultConfig()
	if cfg.ExtractorConfig != nil {
		extractorCfg = *cfg.ExtractorConfig
	}

	store := cfg.Store
	if store == nil {
		store = cache.NewMemoryStore()
	}

	return &Ladle{
		orchestrator: cleaner.NewOrchestrator(cleanerCfg),
		extractor:    extractor.New(provider, extractorCfg),
		store:        store,
		config:       cfg,
	}, nil
}

// Extract runs the full pipeline for one page: cache lookup, cleanup
// cascade, schema-constrained extraction with validation retries, and
// cache write-back. Retry exhaustion and provider failures are never
// cached.
func (l *Ladle) Extract(ctx context.Context, input Input) (*Output, error) {
	if input.URL == "" && input.Text == "" {
		return nil, errors.New("input requires a URL or text content")
	}

	fingerprint := cache.Fingerprint(input.URL, input.Text)

	// A forced refresh must always re-extract and bump the entry
	// version, so it cannot join an in-flight run that may answer from
	// the cache.
	if input.SkipCache {
		return l.run(ctx, input, fingerprint)
	}

	v, err, _ := l.group.Do(fingerprint, func() (any, error) {
		return l.run(ctx, input, fingerprint)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Output), nil
}

func (l *Ladle) run(ctx context.Context, input Input, fingerprint string) (*Output, error) {
	if !input.SkipCache {
		entry, err := l.store.Get(ctx, fingerprint)
		if err == nil {
			out, decodeErr := outputFromEntry(entry)
			if decodeErr == nil {
				logger.Debug("cache hit", "fingerprint", fingerprint, "version", entry.Version)
				return out, nil
			}
			logger.Warn("cache entry undecodable, re-extracting",
				"fingerprint", fingerprint, "error", decodeErr)
		} else if err != cache.ErrNotFound {
			return nil, fmt.Errorf("cache lookup failed: %w", err)
		}
	}

	text := input.Text
	if text == "" {
		content, err := l.fetch(ctx, input.URL)
		if err != nil {
			return nil, err
		}
		text = content.HTML
	}

	doc := l.orchestrator.Clean(text)

	result, err := l.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}

	payload := cachedPayload{
		IsRecipe:   result.IsRecipe,
		Confidence: result.Confidence,
		Recipes:    result.Recipes,
		Strategy:   result.Strategy,
		Reduction:  result.Reduction,
	}
	canonical, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize result: %w", err)
	}

	entry, err := l.store.Put(ctx, fingerprint, canonical, result.IsRecipe)
	if err != nil {
		return nil, fmt.Errorf("cache write failed: %w", err)
	}

	out := &Output{
		IsRecipe:    result.IsRecipe,
		Confidence:  result.Confidence,
		Recipes:     result.Recipes,
		Canonical:   canonical,
		Fingerprint: fingerprint,
		Strategy:    result.Strategy,
		Reduction:   result.Reduction,
		Attempts:    result.Attempts,
		Usage:       result.Usage,
		Duration:    result.Duration,
		Version:     entry.Version,
	}

	if l.config.Storage != nil && result.IsRecipe {
		file, err := l.config.Storage.UploadOrUpdate(ctx, "recipes", fingerprint+".json", canonical)
		if err != nil {
			// Storage is best-effort; the result is already cached.
			logger.Warn("result upload failed", "fingerprint", fingerprint, "error", err)
		} else {
			logger.Debug("result uploaded",
				"key", file.ID, "updated", file.Updated)
			out.StorageURL = file.URL
		}
	}

	return out, nil
}

// fetch retrieves page HTML using the configured fetcher, falling back
// to a default static fetcher.
func (l *Ladle) fetch(ctx context.Context, url string) (fetcher.Content, error) {
	f := l.config.Fetcher
	if f == nil {
		f = fetcher.NewStatic(fetcher.DefaultStaticConfig())
	}

	content, err := f.Fetch(ctx, url, fetcher.Options{})
	if err != nil {
		return content, fmt.Errorf("fetch failed: %w", err)
	}
	if content.HTML == "" {
		return content, fmt.Errorf("fetch returned empty body for %s", url)
	}
	return content, nil
}

// CacheStats reports the number of cached entries.
func (l *Ladle) CacheStats(ctx context.Context) (int64, error) {
	return l.store.Count(ctx)
}

// InvalidateCache removes the cached entry for a URL or text.
func (l *Ladle) InvalidateCache(ctx context.Context, input Input) error {
	return l.store.Delete(ctx, cache.Fingerprint(input.URL, input.Text))
}

// Close releases the cache store and any fetcher resources.
func (l *Ladle) Close() error {
	var errs []error
	if l.config.Fetcher != nil {
		if err := l.config.Fetcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := l.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func outputFromEntry(entry *cache.Entry) (*Output, error) {
	var payload cachedPayload
	if err := json.Unmarshal(entry.Result, &payload); err != nil {
		return nil, err
	}
	return &Output{
		IsRecipe:    payload.IsRecipe,
		Confidence:  payload.Confidence,
		Recipes:     payload.Recipes,
		Canonical:   entry.Result,
		Fingerprint: entry.Fingerprint,
		Strategy:    payload.Strategy,
		Reduction:   payload.Reduction,
		Cached:      true,
		Version:     entry.Version,
	}, nil
}
