package partnercache

import (
	"context"
	"sync"
)

type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string]Entry)}
}

func (storage *MemoryStorage) Load(_ context.Context, key string) (Entry, bool, error) {
	storage.mu.RLock()
	defer storage.mu.RUnlock()
	entry, ok := storage.entries[key]
	return entry, ok, nil
}

func (storage *MemoryStorage) Save(_ context.Context, key string, entry Entry) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	storage.entries[key] = entry
	return nil
}

func (storage *MemoryStorage) Delete(_ context.Context, key string) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	delete(storage.entries, key)
	return nil
}
