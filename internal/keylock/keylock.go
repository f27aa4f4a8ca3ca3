// Package keylock serializes work per string key.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Locker hands out one mutex per key and forgets keys nobody holds.
// The zero value is ready to use.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Lock blocks until key is free and returns the matching unlock func.
func (locker *Locker) Lock(key string) func() {
	locker.mu.Lock()
	if locker.entries == nil {
		locker.entries = make(map[string]*entry)
	}
	held, ok := locker.entries[key]
	if !ok {
		held = &entry{}
		locker.entries[key] = held
	}
	held.refs++
	locker.mu.Unlock()

	held.mu.Lock()
	return func() {
		held.mu.Unlock()

		locker.mu.Lock()
		held.refs--
		if held.refs == 0 {
			delete(locker.entries, key)
		}
		locker.mu.Unlock()
	}
}

func (locker *Locker) size() int {
	locker.mu.Lock()
	defer locker.mu.Unlock()
	return len(locker.entries)
}
