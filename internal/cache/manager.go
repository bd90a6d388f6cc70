package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
)

const (
	DefaultPrefix      = "products"
	DefaultRegistryKey = "product_cache_keys"
	DefaultVersionKey  = "products_cache_version"
	DefaultTTL         = 600 * time.Second
	DefaultRegistryTTL = time.Hour
)

// Options configures a Manager. Zero values take the defaults above.
type Options struct {
	Prefix      string
	RegistryKey string
	VersionKey  string
	TTL         time.Duration
	RegistryTTL time.Duration
	Logger      *slog.Logger
}

// Manager caches listing pages under keys derived from their query
// parameters and records every issued key in a registry entry, so a write can
// evict all of them without pattern deletion.
type Manager struct {
	store       Store
	prefix      string
	registryKey string
	versionKey  string
	ttl         time.Duration
	registryTTL time.Duration
	log         *slog.Logger

	// mu serializes the read-modify-write sequences on the registry and the
	// version counter.
	mu sync.Mutex
}

func NewManager(store Store, opts Options) *Manager {
	m := &Manager{
		store:       store,
		prefix:      opts.Prefix,
		registryKey: opts.RegistryKey,
		versionKey:  opts.VersionKey,
		ttl:         opts.TTL,
		registryTTL: opts.RegistryTTL,
		log:         opts.Logger,
	}
	if m.prefix == "" {
		m.prefix = DefaultPrefix
	}
	if m.registryKey == "" {
		m.registryKey = DefaultRegistryKey
	}
	if m.versionKey == "" {
		m.versionKey = DefaultVersionKey
	}
	if m.ttl <= 0 {
		m.ttl = DefaultTTL
	}
	if m.registryTTL <= 0 {
		m.registryTTL = DefaultRegistryTTL
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	return m
}

// TTL is the lifetime of a cached page.
func (m *Manager) TTL() time.Duration { return m.ttl }

// ComputeKey returns "<prefix>_v<version>_<digest>" where digest covers the
// parameters encoded in name order, so arrival order does not matter.
func (m *Manager) ComputeKey(ctx context.Context, params url.Values) (string, error) {
	version, err := m.Version(ctx)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256([]byte(params.Encode()))
	return fmt.Sprintf("%s_v%d_%s", m.prefix, version, hex.EncodeToString(sum[:16])), nil
}

// Version returns the current cache version, 1 when none was stored yet.
func (m *Manager) Version(ctx context.Context) (int64, error) {
	raw, ok, err := m.store.Get(ctx, m.versionKey)
	if err != nil {
		return 0, fmt.Errorf("read cache version: %w", err)
	}
	if !ok {
		return 1, nil
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || v < 1 {
		m.log.Warn("ignoring malformed cache version", "key", m.versionKey, "value", string(raw))
		return 1, nil
	}
	return v, nil
}

// Register records key in the registry. Registering the same key twice
// leaves the registry unchanged.
func (m *Manager) Register(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys, err := m.registeredKeys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if k == key {
			// refresh the registry TTL all the same
			return m.writeRegistry(ctx, keys)
		}
	}
	return m.writeRegistry(ctx, append(keys, key))
}

// RegisteredKeys returns the keys currently in the registry.
func (m *Manager) RegisteredKeys(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registeredKeys(ctx)
}

// ReadThrough returns the value cached under key, or runs compute, caches its
// result for the configured TTL and returns it. A failed compute caches
// nothing.
func (m *Manager) ReadThrough(ctx context.Context, key string, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	cached, ok, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read cache %q: %w", key, err)
	}
	if ok {
		m.log.Debug("cache hit", "key", key)
		return cached, nil
	}

	m.log.Debug("cache miss", "key", key)
	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.store.Put(ctx, key, value, m.ttl); err != nil {
		return nil, fmt.Errorf("write cache %q: %w", key, err)
	}
	return value, nil
}

// InvalidateAll evicts every registered key, drops the registry and bumps the
// version so keys issued before this call are never served again.
func (m *Manager) InvalidateAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys, err := m.registeredKeys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := m.store.Forget(ctx, k); err != nil {
			return fmt.Errorf("evict %q: %w", k, err)
		}
	}
	if err := m.store.Forget(ctx, m.registryKey); err != nil {
		return fmt.Errorf("evict registry: %w", err)
	}
	if err := m.bumpVersion(ctx); err != nil {
		return err
	}
	m.log.Info("product cache invalidated", "evicted", len(keys))
	return nil
}

func (m *Manager) bumpVersion(ctx context.Context) error {
	v, err := m.store.Increment(ctx, m.versionKey, 1)
	if err != nil {
		return fmt.Errorf("bump cache version: %w", err)
	}
	if v == 1 {
		// Nothing was stored, so keys so far used the implicit version 1.
		if _, err := m.store.Increment(ctx, m.versionKey, 1); err != nil {
			return fmt.Errorf("bump cache version: %w", err)
		}
	}
	return nil
}

func (m *Manager) registeredKeys(ctx context.Context) ([]string, error) {
	raw, ok, err := m.store.Get(ctx, m.registryKey)
	if err != nil {
		return nil, fmt.Errorf("read cache registry: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		m.log.Warn("dropping unreadable cache registry", "error", err)
		return nil, nil
	}
	return dedupe(keys), nil
}

func (m *Manager) writeRegistry(ctx context.Context, keys []string) error {
	raw, err := json.Marshal(keys)
	if err != nil {
		return err
	}
	if err := m.store.Put(ctx, m.registryKey, raw, m.registryTTL); err != nil {
		return fmt.Errorf("write cache registry: %w", err)
	}
	return nil
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Remember is ReadThrough for JSON-encodable values.
func Remember[T any](ctx context.Context, m *Manager, key string, compute func(context.Context) (T, error)) (T, error) {
	var out T
	raw, err := m.ReadThrough(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode cached %q: %w", key, err)
	}
	return out, nil
}
