package ladle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ladlehq/ladle/pkg/cache"
	"github.com/ladlehq/ladle/pkg/extractor"
	"github.com/ladlehq/ladle/pkg/llm"
	"github.com/ladlehq/ladle/pkg/storage"
)

const validRecipeResponse = `{
	"isRecipe": true,
	"confidence": 0.95,
	"internalReasoning": "page contains a complete recipe",
	"recipes": [{
		"title": "Buttermilk Pancakes",
		"ingredients": [{"quantity": 2, "unit": "cups", "name": "flour"}],
		"instructions": [{"step": 1, "text": "Mix the dry ingredients."}]
	}]
}`

const invalidRecipeResponse = `{
	"isRecipe": true,
	"confidence": 0.9,
	"recipes": [{
		"title": "Buttermilk Pancakes",
		"ingredients": [],
		"instructions": [{"step": 1, "text": "Mix the dry ingredients."}]
	}]
}`

const notRecipeResponse = `{
	"isRecipe": false,
	"confidence": 0.85,
	"recipes": []
}`

// fakeProvider replays scripted responses and records the prompts it
// was given.
type fakeProvider struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeProvider) Execute(_ context.Context, req llm.Request) (*llm.Response, error) {
	i := f.calls
	f.calls++
	for _, m := range req.Messages {
		if m.Role == llm.RoleUser {
			f.prompts = append(f.prompts, m.Content)
		}
	}
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.responses) {
		return nil, errors.New("fake provider: no scripted response")
	}
	return &llm.Response{Content: f.responses[i], FinishReason: "STOP"}, nil
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-model" }

func newTestLadle(t *testing.T, provider llm.Provider, store cache.Store, opts ...Option) *Ladle {
	t.Helper()
	opts = append([]Option{WithLLM(provider), WithStore(store)}, opts...)
	l, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l
}

func TestExtractCachesAndReplaysResult(t *testing.T) {
	provider := &fakeProvider{responses: []string{validRecipeResponse}}
	store := cache.NewMemoryStore()
	l := newTestLadle(t, provider, store)

	input := Input{URL: "https://example.com/pancakes", Text: "Buttermilk pancake recipe. 2 cups flour. Mix."}

	first, err := l.Extract(context.Background(), input)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if first.Cached {
		t.Error("first extraction should not be a cache hit")
	}
	if !first.IsRecipe || len(first.Recipes) != 1 {
		t.Fatalf("unexpected result: isRecipe=%v recipes=%d", first.IsRecipe, len(first.Recipes))
	}
	if first.Recipes[0].Title != "Buttermilk Pancakes" {
		t.Errorf("title = %q", first.Recipes[0].Title)
	}
	if first.Version != 0 {
		t.Errorf("first version = %d, want 0", first.Version)
	}

	second, err := l.Extract(context.Background(), input)
	if err != nil {
		t.Fatalf("second Extract() error = %v", err)
	}
	if !second.Cached {
		t.Error("second extraction should be a cache hit")
	}
	if !bytes.Equal(first.Canonical, second.Canonical) {
		t.Error("cached result differs from the original")
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}
}

func TestExtractSkipCacheForcesRefreshAndVersionBump(t *testing.T) {
	provider := &fakeProvider{responses: []string{validRecipeResponse, validRecipeResponse}}
	store := cache.NewMemoryStore()
	l := newTestLadle(t, provider, store)

	input := Input{URL: "https://example.com/pancakes", Text: "pancake recipe content"}

	first, err := l.Extract(context.Background(), input)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	input.SkipCache = true
	refreshed, err := l.Extract(context.Background(), input)
	if err != nil {
		t.Fatalf("Extract() with SkipCache error = %v", err)
	}

	if refreshed.Cached {
		t.Error("SkipCache extraction must not be served from cache")
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2", provider.calls)
	}
	if first.Version != 0 || refreshed.Version != 1 {
		t.Errorf("versions = %d, %d, want 0, 1", first.Version, refreshed.Version)
	}
}

// gatedStore delegates to an inner store but, once armed, parks the
// next Get until released. It lets a test hold one extraction inside
// its cache lookup while another request arrives.
type gatedStore struct {
	cache.Store

	mu      sync.Mutex
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func newGatedStore(inner cache.Store) *gatedStore {
	return &gatedStore{
		Store:   inner,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *gatedStore) arm() {
	s.mu.Lock()
	s.armed = true
	s.mu.Unlock()
}

func (s *gatedStore) Get(ctx context.Context, fingerprint string) (*cache.Entry, error) {
	s.mu.Lock()
	armed := s.armed
	s.armed = false
	s.mu.Unlock()
	if armed {
		close(s.entered)
		<-s.release
	}
	return s.Store.Get(ctx, fingerprint)
}

func TestExtractSkipCacheBypassesInFlightRead(t *testing.T) {
	provider := &fakeProvider{responses: []string{validRecipeResponse, validRecipeResponse}}
	store := newGatedStore(cache.NewMemoryStore())
	l := newTestLadle(t, provider, store)

	input := Input{URL: "https://example.com/pancakes", Text: "pancake recipe content"}

	first, err := l.Extract(context.Background(), input)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if first.Version != 0 {
		t.Fatalf("first version = %d, want 0", first.Version)
	}

	// Hold a normal request inside its cache lookup, then force a
	// refresh for the same fingerprint while it is in flight.
	store.arm()
	inFlight := make(chan *Output, 1)
	go func() {
		out, err := l.Extract(context.Background(), input)
		if err != nil {
			t.Errorf("in-flight Extract() error = %v", err)
		}
		inFlight <- out
	}()
	<-store.entered

	refresh := input
	refresh.SkipCache = true
	refreshed, err := l.Extract(context.Background(), refresh)
	if err != nil {
		t.Fatalf("Extract() with SkipCache error = %v", err)
	}

	if refreshed.Cached {
		t.Error("SkipCache extraction must not be served from cache")
	}
	if refreshed.Version != 1 {
		t.Errorf("refreshed version = %d, want 1", refreshed.Version)
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2 (forced refresh must re-extract)", provider.calls)
	}

	close(store.release)
	parked := <-inFlight
	if parked == nil {
		t.Fatal("in-flight extraction returned no output")
	}
	if !parked.Cached {
		t.Error("parked request should resolve from the cache")
	}
}

func TestExtractRetriesWithFeedback(t *testing.T) {
	provider := &fakeProvider{responses: []string{invalidRecipeResponse, validRecipeResponse}}
	store := cache.NewMemoryStore()
	l := newTestLadle(t, provider, store)

	out, err := l.Extract(context.Background(), Input{Text: "pancake recipe content"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if out.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", out.Attempts)
	}
	if provider.calls != 2 {
		t.Fatalf("provider calls = %d, want 2", provider.calls)
	}

	retryPrompt := provider.prompts[1]
	if !strings.Contains(retryPrompt, "Previous Attempt") {
		t.Error("retry prompt is missing the previous attempt section")
	}
	if !strings.Contains(retryPrompt, "ingredients") {
		t.Error("retry prompt is missing the validation error")
	}
}

func TestExtractExhaustionLeavesCacheEmpty(t *testing.T) {
	cfg := extractor.DefaultConfig()
	cfg.MaxAttempts = 2
	provider := &fakeProvider{responses: []string{invalidRecipeResponse, invalidRecipeResponse}}
	store := cache.NewMemoryStore()
	l := newTestLadle(t, provider, store, WithExtractorConfig(cfg))

	_, err := l.Extract(context.Background(), Input{Text: "pancake recipe content"})

	var exhausted *extractor.RetryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error = %v, want RetryExhaustedError", err)
	}
	if exhausted.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", exhausted.Attempts)
	}

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("cache entries = %d, want 0 after exhaustion", count)
	}
}

func TestExtractBlockedIsTerminalAndUncached(t *testing.T) {
	provider := &fakeProvider{errs: []error{&llm.BlockedError{Reason: "SAFETY"}}}
	store := cache.NewMemoryStore()
	l := newTestLadle(t, provider, store)

	_, err := l.Extract(context.Background(), Input{Text: "some content"})
	if llm.KindOf(err) != llm.FailureBlocked {
		t.Fatalf("failure kind = %v, want BLOCKED", llm.KindOf(err))
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (blocked is terminal)", provider.calls)
	}

	count, _ := store.Count(context.Background())
	if count != 0 {
		t.Errorf("cache entries = %d, want 0", count)
	}
}

func TestExtractNotRecipeVerdictIsCached(t *testing.T) {
	provider := &fakeProvider{responses: []string{notRecipeResponse}}
	store := cache.NewMemoryStore()
	l := newTestLadle(t, provider, store)

	input := Input{URL: "https://example.com/about-us", Text: "We are a family business."}
	out, err := l.Extract(context.Background(), input)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if out.IsRecipe {
		t.Error("expected a not-recipe verdict")
	}

	entry, err := store.Get(context.Background(), out.Fingerprint)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry.IsValid {
		t.Error("not-recipe entries should be marked invalid")
	}

	again, err := l.Extract(context.Background(), input)
	if err != nil {
		t.Fatalf("second Extract() error = %v", err)
	}
	if !again.Cached {
		t.Error("not-recipe verdict should be served from cache")
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}
}

func TestExtractUploadsToStorage(t *testing.T) {
	provider := &fakeProvider{responses: []string{validRecipeResponse}}
	store := cache.NewMemoryStore()
	uploads := storage.NewMemory()
	l := newTestLadle(t, provider, store, WithStorage(uploads))

	out, err := l.Extract(context.Background(), Input{URL: "https://example.com/pancakes", Text: "recipe content"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if out.StorageURL == "" {
		t.Fatal("expected a storage URL")
	}
	content, ok := uploads.Get("recipes", out.Fingerprint+".json")
	if !ok {
		t.Fatal("expected an uploaded object")
	}
	if !bytes.Equal(content, out.Canonical) {
		t.Error("uploaded content differs from the canonical result")
	}
	if !bytes.HasPrefix(content, []byte("{\n  \"isRecipe\"")) {
		t.Error("uploaded artifact is not in the stable indented form")
	}
	var envelope struct {
		IsRecipe bool `json:"isRecipe"`
	}
	if err := json.Unmarshal(content, &envelope); err != nil {
		t.Fatalf("uploaded artifact is not valid JSON: %v", err)
	}
	if !envelope.IsRecipe {
		t.Error("uploaded artifact lost the isRecipe verdict")
	}
}

func TestExtractRequiresInput(t *testing.T) {
	l := newTestLadle(t, &fakeProvider{}, cache.NewMemoryStore())
	if _, err := l.Extract(context.Background(), Input{}); err == nil {
		t.Error("expected an error for empty input")
	}
}

func TestInvalidateCache(t *testing.T) {
	provider := &fakeProvider{responses: []string{validRecipeResponse, validRecipeResponse}}
	store := cache.NewMemoryStore()
	l := newTestLadle(t, provider, store)

	input := Input{URL: "https://example.com/pancakes", Text: "recipe content"}
	if _, err := l.Extract(context.Background(), input); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if err := l.InvalidateCache(context.Background(), input); err != nil {
		t.Fatalf("InvalidateCache() error = %v", err)
	}

	out, err := l.Extract(context.Background(), input)
	if err != nil {
		t.Fatalf("Extract() after invalidation error = %v", err)
	}
	if out.Cached {
		t.Error("expected a fresh extraction after invalidation")
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2", provider.calls)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New(WithProvider("mystery")); err == nil {
		t.Error("expected an error for an unknown provider")
	}
}
