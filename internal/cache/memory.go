package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/muesli/cache2go"
)

// cache2go expires items on idle time; entries carry their own deadline so a
// TTL is absolute from the write.
type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryStore implements Store on top of a cache2go table.
type MemoryStore struct {
	table *cache2go.CacheTable
	mu    sync.Mutex // serializes Increment
	now   func() time.Time
}

// NewMemoryStore returns a store backed by the named cache2go table.
// Tables are process wide: two stores with the same name share entries.
func NewMemoryStore(table string) *MemoryStore {
	return &MemoryStore{table: cache2go.Cache(table), now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.load(key)
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.store(key, value, ttl)
	return nil
}

func (m *MemoryStore) Forget(_ context.Context, key string) error {
	if _, err := m.table.Delete(key); err != nil && !errors.Is(err, cache2go.ErrKeyNotFound) {
		return err
	}
	return nil
}

func (m *MemoryStore) Increment(_ context.Context, key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		cur int64
		ttl time.Duration
	)
	if e, ok := m.load(key); ok {
		n, err := strconv.ParseInt(string(e.value), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("increment %q: value is not an integer", key)
		}
		cur = n
		if !e.expiresAt.IsZero() {
			ttl = e.expiresAt.Sub(m.now())
		}
	}
	next := cur + delta
	m.store(key, []byte(strconv.FormatInt(next, 10)), ttl)
	return next, nil
}

// Len reports the number of live items in the underlying table.
func (m *MemoryStore) Len() int { return m.table.Count() }

// Flush drops every item of the table.
func (m *MemoryStore) Flush() { m.table.Flush() }

func (m *MemoryStore) load(key string) (entry, bool) {
	item, err := m.table.Value(key)
	if err != nil {
		return entry{}, false
	}
	e, ok := item.Data().(entry)
	if !ok {
		return entry{}, false
	}
	if e.expired(m.now()) {
		_, _ = m.table.Delete(key)
		return entry{}, false
	}
	return e, true
}

func (m *MemoryStore) store(key string, value []byte, ttl time.Duration) {
	e := entry{value: append([]byte(nil), value...)}
	lifeSpan := time.Duration(0)
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
		lifeSpan = ttl
	}
	m.table.Add(key, lifeSpan, e)
}

var _ Store = (*MemoryStore)(nil)
