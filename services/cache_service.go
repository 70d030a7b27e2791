package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fenilmodi00/ipo-insights/models"
	"github.com/sirupsen/logrus"
)

// CacheEntry represents a cached item with expiration
type CacheEntry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// IsExpired checks if the cache entry has expired
func (ce *CacheEntry) IsExpired() bool {
	return time.Now().After(ce.ExpiresAt)
}

// CacheService is an in-memory TTL cache for backend snapshots. Derived values
// are never cached.
type CacheService struct {
	cache      map[string]*CacheEntry
	mutex      sync.RWMutex
	defaultTTL time.Duration
	maxSize    int
	hits       int64
	misses     int64
}

// NewCacheService creates a cache; expired entries are removed by CleanupExpired
func NewCacheService(defaultTTL time.Duration, maxSize int) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &CacheService{
		cache:      make(map[string]*CacheEntry),
		defaultTTL: defaultTTL,
		maxSize:    maxSize,
	}
}

// Get retrieves a value from cache
func (cs *CacheService) Get(key string) (interface{}, bool) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	entry, exists := cs.cache[key]
	if !exists || entry.IsExpired() {
		cs.misses++
		return nil, false
	}

	cs.hits++
	return entry.Data, true
}

// Set stores a value in cache with default TTL
func (cs *CacheService) Set(key string, value interface{}) {
	cs.SetWithTTL(key, value, cs.defaultTTL)
}

// SetWithTTL stores a value in cache with custom TTL
func (cs *CacheService) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	if _, exists := cs.cache[key]; !exists && len(cs.cache) >= cs.maxSize {
		cs.evictOldest()
	}

	cs.cache[key] = &CacheEntry{
		Data:      value,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// evictOldest removes the entry closest to expiry
func (cs *CacheService) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range cs.cache {
		if oldestKey == "" || entry.ExpiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(cs.cache, oldestKey)
	}
}

// Delete removes a value from cache
func (cs *CacheService) Delete(key string) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	delete(cs.cache, key)
}

// Clear removes all values from cache
func (cs *CacheService) Clear() {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.cache = make(map[string]*CacheEntry)
}

// Size returns the number of items in cache
func (cs *CacheService) Size() int {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	return len(cs.cache)
}

// CleanupExpired removes expired entries and returns how many were dropped
func (cs *CacheService) CleanupExpired() int {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	removed := 0
	for key, entry := range cs.cache {
		if entry.IsExpired() {
			delete(cs.cache, key)
			removed++
		}
	}
	return removed
}

// Stats returns cache statistics
func (cs *CacheService) Stats() map[string]interface{} {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	return map[string]interface{}{
		"size":     len(cs.cache),
		"max_size": cs.maxSize,
		"hits":     cs.hits,
		"misses":   cs.misses,
		"type":     "in-memory",
	}
}

// SnapshotSource supplies raw offering snapshots
type SnapshotSource interface {
	ListIPOs(ctx context.Context) ([]models.IPORecord, error)
	GetIPO(ctx context.Context, id string) (*models.IPORecord, error)
}

const allIPOsCacheKey = "ipos:all"

func ipoCacheKey(id string) string {
	return fmt.Sprintf("ipo:%s", id)
}

// CachedSnapshotSource wraps a SnapshotSource with the snapshot cache
type CachedSnapshotSource struct {
	source SnapshotSource
	cache  *CacheService
}

// NewCachedSnapshotSource creates a cached snapshot source
func NewCachedSnapshotSource(source SnapshotSource, cache *CacheService) *CachedSnapshotSource {
	return &CachedSnapshotSource{
		source: source,
		cache:  cache,
	}
}

// ListIPOs returns every snapshot, using cache when possible
func (c *CachedSnapshotSource) ListIPOs(ctx context.Context) ([]models.IPORecord, error) {
	if cached, found := c.cache.Get(allIPOsCacheKey); found {
		if records, ok := cached.([]models.IPORecord); ok {
			return records, nil
		}
	}

	records, err := c.source.ListIPOs(ctx)
	if err != nil {
		return nil, err
	}

	c.cache.Set(allIPOsCacheKey, records)
	return records, nil
}

// GetIPO returns one snapshot, using cache when possible
func (c *CachedSnapshotSource) GetIPO(ctx context.Context, id string) (*models.IPORecord, error) {
	if cached, found := c.cache.Get(ipoCacheKey(id)); found {
		if record, ok := cached.(*models.IPORecord); ok {
			return record, nil
		}
	}

	record, err := c.source.GetIPO(ctx, id)
	if err != nil {
		return nil, err
	}

	c.cache.Set(ipoCacheKey(id), record)
	return record, nil
}

// Store caches a snapshot fetched elsewhere, such as by the refresh job
func (c *CachedSnapshotSource) Store(record *models.IPORecord) {
	if record == nil || record.Identifier() == "" {
		return
	}
	c.cache.Set(ipoCacheKey(record.Identifier()), record)
}

// StoreList caches a full listing fetched elsewhere
func (c *CachedSnapshotSource) StoreList(records []models.IPORecord) {
	c.cache.Set(allIPOsCacheKey, records)
}

// Refresh bypasses the cache, fetching and storing the full listing
func (c *CachedSnapshotSource) Refresh(ctx context.Context) ([]models.IPORecord, error) {
	records, err := c.source.ListIPOs(ctx)
	if err != nil {
		return nil, err
	}
	c.StoreList(records)
	return records, nil
}

// FetchFresh bypasses the cache for one snapshot
func (c *CachedSnapshotSource) FetchFresh(ctx context.Context, id string) (*models.IPORecord, error) {
	record, err := c.source.GetIPO(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Store(record)
	return record, nil
}

// InvalidateIPO removes an offering and the listing containing it
func (c *CachedSnapshotSource) InvalidateIPO(ipoID string) {
	c.cache.Delete(ipoCacheKey(ipoID))
	c.cache.Delete(allIPOsCacheKey)

	logrus.WithFields(logrus.Fields{
		"component": "CachedSnapshotSource",
		"ipo_id":    ipoID,
	}).Debug("Invalidated IPO snapshot")
}

// Cache returns the underlying cache
func (c *CachedSnapshotSource) Cache() *CacheService {
	return c.cache
}
