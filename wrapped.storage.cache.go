package wrapped

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CachedStorage wraps any TemplateStorage with in-memory caching.
// Get and GetVersion are served from the cache; writes invalidate every
// cached entry of the affected name.
type CachedStorage struct {
	storage TemplateStorage
	config  CacheConfig

	mu          sync.Mutex
	cache       map[cacheKey]*cacheEntry
	byName      map[string]map[cacheKey]struct{} // name -> cache keys
	generations map[string]uint64                // name -> invalidation count
	epoch       uint64                           // InvalidateAll count
	closed      bool
}

// CacheConfig configures the caching behavior.
type CacheConfig struct {
	// TTL is how long cached entries remain valid.
	// Default: 5 minutes.
	TTL time.Duration

	// MaxEntries is the maximum number of cached templates.
	// When exceeded, the least recently accessed entry is evicted.
	// Default: 1000.
	MaxEntries int

	// NegativeCacheTTL is how long to cache "not found" results.
	// Set to 0 to disable negative caching.
	// Default: 30 seconds.
	NegativeCacheTTL time.Duration

	// Logger receives eviction events. Default: no-op.
	Logger *zap.Logger
}

// DefaultCacheConfig returns the default caching configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:              CacheDefaultTTL,
		MaxEntries:       CacheDefaultMaxEntries,
		NegativeCacheTTL: CacheDefaultNegativeCacheTTL,
	}
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries         int
	ValidEntries    int
	NegativeEntries int
}

// cacheEntry represents a cached lookup result.
type cacheEntry struct {
	template   *StoredTemplate
	err        error // set for negative entries
	name       string
	key        cacheKey
	cachedAt   time.Time
	accessedAt time.Time
}

// NewCachedStorage wraps a storage with caching.
func NewCachedStorage(storage TemplateStorage, config CacheConfig) *CachedStorage {
	if config.TTL == 0 {
		config.TTL = CacheDefaultTTL
	}
	if config.MaxEntries == 0 {
		config.MaxEntries = CacheDefaultMaxEntries
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &CachedStorage{
		storage: storage,
		config:  config,
		cache:       make(map[cacheKey]*cacheEntry),
		byName:      make(map[string]map[cacheKey]struct{}),
		generations: make(map[string]uint64),
	}
}

// Get retrieves the latest version of a template, using cache when available.
func (s *CachedStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	return s.cached(ctx, name, cacheKey{name: name}, func() (*StoredTemplate, error) {
		return s.storage.Get(ctx, name)
	})
}

// GetVersion retrieves a specific version, using cache when available.
func (s *CachedStorage) GetVersion(ctx context.Context, name string, version int) (*StoredTemplate, error) {
	if version <= 0 {
		return s.storage.GetVersion(ctx, name, version)
	}
	return s.cached(ctx, name, cacheKey{name: name, version: version}, func() (*StoredTemplate, error) {
		return s.storage.GetVersion(ctx, name, version)
	})
}

// cached serves key from the cache or loads and stores it. A load that
// overlaps an invalidation of name is returned but not cached.
func (s *CachedStorage) cached(ctx context.Context, name string, key cacheKey, load func() (*StoredTemplate, error)) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, NewStorageClosedError()
	}
	if entry, ok := s.cache[key]; ok && s.isValid(entry) {
		entry.accessedAt = time.Now()
		s.mu.Unlock()

		if entry.err != nil {
			return nil, entry.err
		}
		return copyStoredTemplate(entry.template), nil
	}
	generation, epoch := s.generations[name], s.epoch
	s.mu.Unlock()

	tmpl, err := load()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	if s.generations[name] != generation || s.epoch != epoch {
		s.config.Logger.Debug(LogMsgCacheStaleLoad, zap.String(LogFieldTemplateName, name))
		if err != nil {
			return nil, err
		}
		return tmpl, nil
	}

	if err != nil {
		if s.config.NegativeCacheTTL > 0 && IsTemplateNotFound(err) {
			s.addEntry(name, key, nil, err)
		}
		return nil, err
	}

	s.addEntry(name, key, copyStoredTemplate(tmpl), nil)
	return tmpl, nil
}

// Save stores a template and invalidates cache.
func (s *CachedStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if err := s.storage.Save(ctx, tmpl); err != nil {
		return err
	}
	s.Invalidate(tmpl.Name)
	return nil
}

// Delete removes a template and invalidates cache.
func (s *CachedStorage) Delete(ctx context.Context, name string) error {
	if err := s.storage.Delete(ctx, name); err != nil {
		return err
	}
	s.Invalidate(name)
	return nil
}

// List returns templates matching the query (bypasses cache).
func (s *CachedStorage) List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
	return s.storage.List(ctx, query)
}

// Exists checks if a template exists, answering from a cached Get when possible.
func (s *CachedStorage) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, NewStorageClosedError()
	}
	if entry, ok := s.cache[cacheKey{name: name}]; ok && s.isValid(entry) {
		s.mu.Unlock()
		return entry.err == nil, nil
	}
	s.mu.Unlock()

	return s.storage.Exists(ctx, name)
}

// ListVersions returns version numbers (bypasses cache).
func (s *CachedStorage) ListVersions(ctx context.Context, name string) ([]int, error) {
	return s.storage.ListVersions(ctx, name)
}

// Close closes the cache and underlying storage.
func (s *CachedStorage) Close() error {
	s.mu.Lock()
	s.closed = true
	s.cache = nil
	s.byName = nil
	s.generations = nil
	s.mu.Unlock()

	return s.storage.Close()
}

// Invalidate removes every cached entry of a template name. Loads of name
// already in flight are not cached when they complete.
func (s *CachedStorage) Invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.generations[name]++
	for key := range s.byName[name] {
		delete(s.cache, key)
	}
	delete(s.byName, name)
}

// InvalidateAll clears the entire cache.
func (s *CachedStorage) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.epoch++
	s.cache = make(map[cacheKey]*cacheEntry)
	s.byName = make(map[string]map[cacheKey]struct{})
}

// Stats returns cache statistics.
func (s *CachedStorage) Stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var validCount, negativeCount int
	for _, entry := range s.cache {
		if !s.isValid(entry) {
			continue
		}
		if entry.err != nil {
			negativeCount++
		} else {
			validCount++
		}
	}

	return CacheStats{
		Entries:         len(s.cache),
		ValidEntries:    validCount,
		NegativeEntries: negativeCount,
	}
}

// isValid checks if a cache entry is still valid.
func (s *CachedStorage) isValid(entry *cacheEntry) bool {
	ttl := s.config.TTL
	if entry.err != nil {
		ttl = s.config.NegativeCacheTTL
	}
	return time.Since(entry.cachedAt) < ttl
}

// addEntry adds an entry to the cache, evicting if necessary.
// Caller must hold the lock.
func (s *CachedStorage) addEntry(name string, key cacheKey, tmpl *StoredTemplate, err error) {
	if _, exists := s.cache[key]; !exists && len(s.cache) >= s.config.MaxEntries {
		s.evictOldest()
	}

	now := time.Now()
	s.cache[key] = &cacheEntry{
		template:   tmpl,
		err:        err,
		name:       name,
		key:        key,
		cachedAt:   now,
		accessedAt: now,
	}

	keys, ok := s.byName[name]
	if !ok {
		keys = make(map[cacheKey]struct{})
		s.byName[name] = keys
	}
	keys[key] = struct{}{}
}

// evictOldest removes the least recently accessed entry.
// Caller must hold the lock.
func (s *CachedStorage) evictOldest() {
	var oldest *cacheEntry
	for _, entry := range s.cache {
		if oldest == nil || entry.accessedAt.Before(oldest.accessedAt) {
			oldest = entry
		}
	}
	if oldest == nil {
		return
	}

	delete(s.cache, oldest.key)
	if keys := s.byName[oldest.name]; keys != nil {
		delete(keys, oldest.key)
		if len(keys) == 0 {
			delete(s.byName, oldest.name)
		}
	}
	s.config.Logger.Debug(LogMsgCacheEvicted, zap.String(LogFieldTemplateName, oldest.name))
}

// cacheKey identifies a cached lookup; version 0 is the latest version
type cacheKey struct {
	name    string
	version int
}
