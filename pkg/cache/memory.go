package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and ephemeral
// deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// Get returns the entry for a fingerprint, or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, fingerprint string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[fingerprint]
	if !ok {
		return nil, ErrNotFound
	}
	return copyEntry(entry), nil
}

// Put stores a result, incrementing the version on overwrite.
func (s *MemoryStore) Put(_ context.Context, fingerprint string, result []byte, isValid bool) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stored := make([]byte, len(result))
	copy(stored, result)

	if existing, ok := s.entries[fingerprint]; ok {
		existing.Result = stored
		existing.IsValid = isValid
		existing.UpdatedAt = now
		existing.Version++
		return copyEntry(existing), nil
	}

	entry := &Entry{
		Fingerprint: fingerprint,
		Result:      stored,
		IsValid:     isValid,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     0,
	}
	s.entries[fingerprint] = entry
	return copyEntry(entry), nil
}

// copyEntry returns an entry copy the caller can mutate freely.
func copyEntry(entry *Entry) *Entry {
	copied := *entry
	copied.Result = make([]byte, len(entry.Result))
	copy(copied.Result, entry.Result)
	return &copied
}

// Exists reports whether a fingerprint is cached.
func (s *MemoryStore) Exists(_ context.Context, fingerprint string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[fingerprint]
	return ok, nil
}

// Delete removes an entry.
func (s *MemoryStore) Delete(_ context.Context, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, fingerprint)
	return nil
}

// Count returns the number of cached entries.
func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entries)), nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
