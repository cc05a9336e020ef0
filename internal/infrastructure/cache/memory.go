package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopchat/backend/internal/domain"
)

// cacheItem holds one cached search result with its expiration
type cacheItem struct {
	Products   []domain.Product
	Expiration time.Time
}

// ProductCache is a thread-safe in-memory cache of storefront search results
type ProductCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
	done  chan struct{}
	once  sync.Once
}

// NewProductCache creates a cache that sweeps expired entries every interval
func NewProductCache(interval time.Duration) *ProductCache {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	cache := &ProductCache{
		data: make(map[string]cacheItem),
		done: make(chan struct{}),
	}

	go cache.cleanupExpired(interval)

	return cache
}

// Key normalizes a storefront query into a cache key
func Key(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// Get retrieves the products cached for key
func (c *ProductCache) Get(ctx context.Context, key string) ([]domain.Product, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || time.Now().After(item.Expiration) {
		return nil, domain.ErrCacheMiss
	}

	out := make([]domain.Product, len(item.Products))
	copy(out, item.Products)
	return out, nil
}

// Set stores products under key for ttl
func (c *ProductCache) Set(ctx context.Context, key string, products []domain.Product, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	stored := make([]domain.Product, len(products))
	copy(stored, products)

	c.data[key] = cacheItem{
		Products:   stored,
		Expiration: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes a key from the cache
func (c *ProductCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Size returns the current number of entries, expired or not
func (c *ProductCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all entries
func (c *ProductCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
}

// Close stops the cleanup goroutine
func (c *ProductCache) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *ProductCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.removeExpired(time.Now())
		}
	}
}

func (c *ProductCache) removeExpired(now time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for key, item := range c.data {
		if now.After(item.Expiration) {
			delete(c.data, key)
		}
	}
}
