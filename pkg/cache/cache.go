// Package cache provides content-addressable persistence of extraction
// results, keyed by a deterministic fingerprint of the source.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotFound is returned by Get for an unknown fingerprint.
var ErrNotFound = errors.New("cache entry not found")

// Fingerprint derives the stable cache key for an extraction source.
// It hashes the URL when present, falling back to the raw text: two
// fetches of the same URL collapse to the same entry even if the bytes
// differ between fetches (rotating ads, timestamps). Caching is by
// identity of source, not exact bytes.
func Fingerprint(url, text string) string {
	input := url
	if input == "" {
		input = text
	}
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// Entry is one cached extraction result. Entries are owned by the
// store and outlive individual pipeline calls.
type Entry struct {
	Fingerprint string    `json:"fingerprint"`
	Result      []byte    `json:"result"`
	IsValid     bool      `json:"is_valid"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Version starts at 0 and increments only when an explicit
	// re-extraction overwrites an existing fingerprint.
	Version int `json:"version"`
}

// Store is the narrow persistence interface the pipeline consumes.
// Concurrent writers for the same fingerprint are resolved by the
// backend's last-write-wins semantics, not by the pipeline.
type Store interface {
	// Get returns the entry for a fingerprint, or ErrNotFound.
	Get(ctx context.Context, fingerprint string) (*Entry, error)

	// Put stores a result. Writing an existing fingerprint increments
	// its version; a first write is version 0.
	Put(ctx context.Context, fingerprint string, result []byte, isValid bool) (*Entry, error)

	// Exists reports whether a fingerprint is cached.
	Exists(ctx context.Context, fingerprint string) (bool, error)

	// Delete removes an entry. Deleting an unknown fingerprint is not
	// an error. Deletion is a maintenance operation; the pipeline never
	// calls it.
	Delete(ctx context.Context, fingerprint string) error

	// Count returns the number of cached entries.
	Count(ctx context.Context) (int64, error)

	// Close releases backend resources.
	Close() error
}
