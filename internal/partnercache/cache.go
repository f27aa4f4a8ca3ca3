// Package partnercache keeps the last fertility projection a partner was
// allowed to see, so a failed or gated refresh never blanks what they had.
package partnercache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/duet/internal/fertility"
	"github.com/terraincognita07/duet/internal/keylock"
)

var (
	ErrNotYetAvailable = errors.New("partner fertility not yet available")
	ErrEmptyKey        = errors.New("partner cache key is empty")
)

// Entry is one cached projection. Version is the owner's profile revision
// the projection was computed from.
type Entry struct {
	Version    int64                `json:"version"`
	Projection fertility.Projection `json:"projection"`
	CachedAt   time.Time            `json:"cached_at"`
}

// Storage persists entries. Load reports found=false for unknown keys.
type Storage interface {
	Load(ctx context.Context, key string) (Entry, bool, error)
	Save(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
}

// Key scopes an entry to one installation and one pairing.
func Key(installationID string, coupleCode string) string {
	return strings.TrimSpace(installationID) + ":" + strings.ToUpper(strings.TrimSpace(coupleCode))
}

type Cache struct {
	storage Storage
	now     func() time.Time
	locks   keylock.Locker
}

func New(storage Storage) *Cache {
	return &Cache{storage: storage, now: time.Now}
}

// Update stores projection under key unless it is empty or older than
// what is already cached. It reports whether the entry was replaced.
func (cache *Cache) Update(ctx context.Context, key string, version int64, projection fertility.Projection) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	if projection.IsEmpty() {
		return false, nil
	}

	unlock := cache.locks.Lock(key)
	defer unlock()

	current, found, err := cache.storage.Load(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load partner cache: %w", err)
	}
	if found && version < current.Version {
		return false, nil
	}

	entry := Entry{Version: version, Projection: projection, CachedAt: cache.now().UTC()}
	if err := cache.storage.Save(ctx, key, entry); err != nil {
		return false, fmt.Errorf("save partner cache: %w", err)
	}
	return true, nil
}

func (cache *Cache) Read(ctx context.Context, key string) (Entry, error) {
	if key == "" {
		return Entry{}, ErrEmptyKey
	}
	entry, found, err := cache.storage.Load(ctx, key)
	if err != nil {
		return Entry{}, fmt.Errorf("load partner cache: %w", err)
	}
	if !found {
		return Entry{}, ErrNotYetAvailable
	}
	return entry, nil
}

// Clear drops the entry for key; used on logout and unpair.
func (cache *Cache) Clear(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	unlock := cache.locks.Lock(key)
	defer unlock()

	if err := cache.storage.Delete(ctx, key); err != nil {
		return fmt.Errorf("clear partner cache: %w", err)
	}
	return nil
}
