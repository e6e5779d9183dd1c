package devdraft

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/devdraft/saligen/internal/constants"
)

// Cache stores response bodies by key.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// CacheEntry is one cached response body.
type CacheEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
	ETag      string    `json:"etag,omitempty"`
}

// Expired reports whether the entry is past its expiry time.
func (e *CacheEntry) Expired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}

// MemoryCache is a size-bounded in-process cache. When full, the entry that
// expires soonest is evicted.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
	maxSize int
}

// NewMemoryCache creates a memory cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = constants.DefaultCacheSize
	}

	return &MemoryCache{
		entries: make(map[string]*CacheEntry),
		maxSize: maxSize,
	}
}

// Get returns the entry for key.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrKeyNotFound
	}

	if entry.Expired() {
		return nil, ErrEntryExpired
	}

	return entry, nil
}

// Set stores entry under key.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictLocked()
	}

	c.entries[key] = entry

	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)

	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*CacheEntry)

	return nil
}

// Has reports whether an unexpired entry exists for key.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Cleanup drops expired entries.
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if entry.Expired() {
			delete(c.entries, key)
		}
	}
}

func (c *MemoryCache) evictLocked() {
	var (
		victim   string
		earliest time.Time
	)

	for key, entry := range c.entries {
		if victim == "" || entry.ExpiresAt.Before(earliest) {
			victim = key
			earliest = entry.ExpiresAt
		}
	}

	delete(c.entries, victim)
}

// CacheOptions tunes a CacheManager.
type CacheOptions struct {
	DefaultTTL time.Duration
	Policy     *CachingPolicy
}

// DefaultCacheOptions returns the default cache options.
func DefaultCacheOptions() *CacheOptions {
	return &CacheOptions{
		DefaultTTL: constants.DefaultCacheTTL,
		Policy:     DefaultCachingPolicy(),
	}
}

// CachingPolicy decides which responses are stored.
type CachingPolicy struct {
	CacheGET     bool
	CachePOST    bool
	CacheErrors  bool
	IncludePaths []string
	ExcludePaths []string
}

// DefaultCachingPolicy caches successful GET responses for every path.
func DefaultCachingPolicy() *CachingPolicy {
	return &CachingPolicy{
		CacheGET: true,
	}
}

// ShouldCache reports whether a response to method path with status is cacheable.
func (p *CachingPolicy) ShouldCache(method, path string, status int) bool {
	switch method {
	case http.MethodGet:
		if !p.CacheGET {
			return false
		}
	case http.MethodPost:
		if !p.CachePOST {
			return false
		}
	default:
		return false
	}

	if status >= http.StatusBadRequest && !p.CacheErrors {
		return false
	}

	for _, prefix := range p.ExcludePaths {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}

	if len(p.IncludePaths) == 0 {
		return true
	}

	for _, prefix := range p.IncludePaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

// CacheStats counts CacheManager traffic.
type CacheStats struct {
	Hits   int64
	Misses int64
	Sets   int64
	Shared int64
}

// GetHitRate returns hits over lookups, 0 when there were none.
func (s *CacheStats) GetHitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// CacheManager fronts a Cache with statistics, a caching policy, and
// collapsing of concurrent loads for the same key.
type CacheManager struct {
	cache   Cache
	options *CacheOptions
	group   singleflight.Group

	mu     sync.Mutex
	groups map[string]map[string]struct{}

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
	shared atomic.Int64
}

// NewCacheManager creates a manager over cache. A nil cache disables caching.
func NewCacheManager(cache Cache, options *CacheOptions) *CacheManager {
	if cache == nil {
		cache = NewNoOpCache()
	}

	if options == nil {
		options = DefaultCacheOptions()
	}

	if options.Policy == nil {
		options.Policy = DefaultCachingPolicy()
	}

	return &CacheManager{
		cache:   cache,
		options: options,
		groups:  make(map[string]map[string]struct{}),
	}
}

// Policy returns the caching policy in use.
func (m *CacheManager) Policy() *CachingPolicy {
	return m.options.Policy
}

// GetCacheKey builds the key for method and path with its query parameters
// in sorted order.
func (m *CacheManager) GetCacheKey(method, path string, query url.Values) string {
	key := method + ":" + path
	if len(query) == 0 {
		return key
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(query[k], ","))
	}

	return key + ":" + strings.Join(parts, "&")
}

// Get returns the cached data for key.
func (m *CacheManager) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := m.cache.Get(ctx, key)
	if err != nil {
		m.misses.Add(1)

		return nil, err
	}

	m.hits.Add(1)

	return entry.Data, nil
}

// Set stores data under key for ttl, or the default TTL when ttl is 0.
func (m *CacheManager) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return m.SetWithETag(ctx, key, data, "", ttl)
}

// SetWithETag stores data and its entity tag under key.
func (m *CacheManager) SetWithETag(ctx context.Context, key string, data []byte, etag string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.options.DefaultTTL
	}

	err := m.cache.Set(ctx, key, &CacheEntry{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
		ETag:      etag,
	})
	if err != nil {
		return err
	}

	m.sets.Add(1)

	return nil
}

// Invalidate removes key.
func (m *CacheManager) Invalidate(ctx context.Context, key string) error {
	return m.cache.Delete(ctx, key)
}

// Track records key as a member of group so InvalidateGroup can remove it.
// Membership is kept in memory, so keys written by other processes sharing
// the backend are not known to this manager.
func (m *CacheManager) Track(group, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.groups[group]
	if !ok {
		members = make(map[string]struct{})
		m.groups[group] = members
	}

	members[key] = struct{}{}
}

// InvalidateGroup removes group itself as a key and every key tracked under it.
func (m *CacheManager) InvalidateGroup(ctx context.Context, group string) error {
	m.mu.Lock()
	members := m.groups[group]
	delete(m.groups, group)
	m.mu.Unlock()

	keys := []string{group}
	for key := range members {
		if key != group {
			keys = append(keys, key)
		}
	}

	var firstErr error

	for _, key := range keys {
		err := m.cache.Delete(ctx, key)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// GetOrLoad returns the cached data for key, or calls load once for all
// concurrent callers asking for the same key. The loaded data is stored only
// when load reports it cacheable.
//
// load runs detached from the cancellation of whichever caller started it,
// so one caller giving up does not fail the others. Each caller still
// returns its own ctx.Err() as soon as its ctx is done.
func (m *CacheManager) GetOrLoad(
	ctx context.Context,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (data []byte, cacheable bool, err error),
) ([]byte, error) {
	data, err := m.Get(ctx, key)
	if err == nil {
		return data, nil
	}

	loadCtx := context.WithoutCancel(ctx)

	results := m.group.DoChan(key, func() (interface{}, error) {
		loaded, cacheable, loadErr := load(loadCtx)
		if loadErr != nil {
			return nil, loadErr
		}

		if cacheable {
			_ = m.Set(loadCtx, key, loaded, ttl)
		}

		return loaded, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-results:
		if result.Shared {
			m.shared.Add(1)
		}

		if result.Err != nil {
			return nil, result.Err
		}

		loaded, _ := result.Val.([]byte)

		return loaded, nil
	}
}

// GetStats returns a snapshot of the manager's counters.
func (m *CacheManager) GetStats() CacheStats {
	return CacheStats{
		Hits:   m.hits.Load(),
		Misses: m.misses.Load(),
		Sets:   m.sets.Load(),
		Shared: m.shared.Load(),
	}
}
