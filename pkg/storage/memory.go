package storage

import (
	"context"
	"path"
	"sync"
)

// MemoryProvider keeps uploads in memory. It is used in tests and as a
// stand-in when no object storage is configured.
type MemoryProvider struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory creates an empty in-memory provider.
func NewMemory() *MemoryProvider {
	return &MemoryProvider{objects: make(map[string][]byte)}
}

// UploadOrUpdate stores content under folder/name, overwriting any
// previous upload at the same key.
func (p *MemoryProvider) UploadOrUpdate(_ context.Context, folder, name string, content []byte) (*File, error) {
	key := path.Join(folder, name)

	p.mu.Lock()
	defer p.mu.Unlock()
	_, exists := p.objects[key]
	stored := make([]byte, len(content))
	copy(stored, content)
	p.objects[key] = stored

	return &File{ID: key, URL: "memory://" + key, Updated: exists}, nil
}

// Get returns the last uploaded content for folder/name.
func (p *MemoryProvider) Get(folder, name string) ([]byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	content, ok := p.objects[path.Join(folder, name)]
	return content, ok
}

// Len returns the number of stored objects.
func (p *MemoryProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.objects)
}

var _ Provider = (*MemoryProvider)(nil)
