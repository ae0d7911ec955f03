// Package cache holds the derived allowed-object views used by the authorizer.
// Entries are never the source of truth and are dropped per object kind.
package cache

import (
	"context"
	"hash/fnv"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/poyrazK/dnsadmin/internal/core/domain"
)

// shardCount determines the number of internal shards to reduce lock contention.
const shardCount = 64

type cacheEntry struct {
	ids       []string
	expiresAt time.Time
}

type cacheShard struct {
	mu    sync.RWMutex
	items map[string]cacheEntry
}

// viewKey identifies a view by kind and the normalized group set.
func viewKey(kind domain.ObjectKind, groups []string) string {
	g := slices.Clone(groups)
	slices.Sort(g)
	g = slices.Compact(g)
	return string(kind) + ":" + strings.Join(g, ",")
}

// LocalViewCache is a sharded, in-process ports.ViewCache.
type LocalViewCache struct {
	shards [shardCount]*cacheShard
	ttl    time.Duration
}

// NewLocalViewCache creates a cache whose entries expire after ttl.
func NewLocalViewCache(ttl time.Duration) *LocalViewCache {
	c := &LocalViewCache{ttl: ttl}
	for i := 0; i < shardCount; i++ {
		c.shards[i] = &cacheShard{items: make(map[string]cacheEntry)}
	}
	return c
}

func (c *LocalViewCache) getShard(key string) *cacheShard {
	h := fnv.New32a()
	h.Write([]byte(key)) // #nosec G104
	return c.shards[h.Sum32()%shardCount]
}

func (c *LocalViewCache) GetAllowed(_ context.Context, kind domain.ObjectKind, groups []string) ([]string, bool, error) {
	key := viewKey(kind, groups)
	shard := c.getShard(key)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	item, found := shard.items[key]
	if !found || time.Now().After(item.expiresAt) {
		return nil, false, nil
	}
	return slices.Clone(item.ids), true, nil
}

func (c *LocalViewCache) SetAllowed(_ context.Context, kind domain.ObjectKind, groups []string, ids []string) error {
	key := viewKey(kind, groups)
	shard := c.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	shard.items[key] = cacheEntry{ids: slices.Clone(ids), expiresAt: time.Now().Add(c.ttl)}
	return nil
}

// Invalidate drops every view of kind.
func (c *LocalViewCache) Invalidate(_ context.Context, kind domain.ObjectKind) error {
	prefix := string(kind) + ":"
	for _, shard := range c.shards {
		shard.mu.Lock()
		for k := range shard.items {
			if strings.HasPrefix(k, prefix) {
				delete(shard.items, k)
			}
		}
		shard.mu.Unlock()
	}
	return nil
}

// Flush removes all items from all shards in the cache.
func (c *LocalViewCache) Flush() {
	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.items = make(map[string]cacheEntry)
		shard.mu.Unlock()
	}
}

// Cleanup deletes items that have passed their expiration time.
func (c *LocalViewCache) Cleanup() {
	now := time.Now()
	for _, shard := range c.shards {
		shard.mu.Lock()
		for k, v := range shard.items {
			if now.After(v.expiresAt) {
				delete(shard.items, k)
			}
		}
		shard.mu.Unlock()
	}
}

// Run calls Cleanup every interval until ctx is cancelled.
func (c *LocalViewCache) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Cleanup()
		}
	}
}
