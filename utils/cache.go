package utils

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cppla/board/config"
)

const defaultCacheTTL = 10 * time.Minute

// Cache key prefixes, invalidated on writes.
const (
	CacheKeyCategoryTree = "board:categories:tree"
	CachePrefixCategory  = "board:categories:"
)

type cacheItem struct {
	data      []byte
	expiresAt time.Time
}

// localCache is the in-process store used when Redis is disabled.
type localCache struct {
	items *lru.Cache[string, cacheItem]
}

var (
	local   *localCache
	localMu sync.Mutex
)

func getLocalCache() *localCache {
	localMu.Lock()
	defer localMu.Unlock()
	if local == nil {
		l, err := lru.New[string, cacheItem](config.Get().CacheSize)
		if err != nil {
			Sugar.Errorf("create lru cache: %v", err)
			return nil
		}
		local = &localCache{items: l}
	}
	return local
}

// ResetCache drops the in-process cache; the next use recreates it with the current size.
func ResetCache() {
	localMu.Lock()
	local = nil
	localMu.Unlock()
}

func (c *localCache) get(key string) ([]byte, bool) {
	it, ok := c.items.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(it.expiresAt) {
		c.items.Remove(key)
		return nil, false
	}
	return it.data, true
}

func (c *localCache) set(key string, b []byte, ttl time.Duration) {
	c.items.Add(key, cacheItem{data: b, expiresAt: time.Now().Add(ttl)})
}

func (c *localCache) deletePrefix(prefix string) {
	for _, k := range c.items.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.items.Remove(k)
		}
	}
}

// CacheGetBytes returns cached bytes for key from Redis or the local LRU.
func CacheGetBytes(key string) ([]byte, bool) {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		b, err := rc.Get(ctx, key).Bytes()
		if err != nil {
			Sugar.Debugf("cache get miss key=%s err=%v", key, err)
			return nil, false
		}
		return b, true
	}
	if !config.Get().CacheEnabled {
		return nil, false
	}
	if lc := getLocalCache(); lc != nil {
		return lc.get(key)
	}
	return nil, false
}

// CacheSetBytes stores bytes under key; ttl <= 0 uses the default.
func CacheSetBytes(key string, b []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, key, b, ttl).Err(); err != nil {
			Sugar.Warnf("cache set failed key=%s err=%v", key, err)
		}
		return
	}
	if !config.Get().CacheEnabled {
		return
	}
	if lc := getLocalCache(); lc != nil {
		lc.set(key, b, ttl)
	}
}

// CacheGetJSON decodes the cached value at key into out.
func CacheGetJSON(key string, out interface{}) bool {
	b, ok := CacheGetBytes(key)
	if !ok {
		return false
	}
	return json.Unmarshal(b, out) == nil
}

// CacheSetJSON marshals v and stores it under key.
func CacheSetJSON(key string, v interface{}, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	CacheSetBytes(key, b, ttl)
}

// InvalidateByPrefix deletes every key starting with prefix.
func InvalidateByPrefix(prefix string) {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		var cursor uint64
		for i := 0; i < 10; i++ { // bounded number of SCAN rounds
			keys, cur, err := rc.Scan(ctx, cursor, prefix+"*", 1000).Result()
			if err != nil {
				break
			}
			cursor = cur
			if len(keys) > 0 {
				pipe := rc.Pipeline()
				for _, k := range keys {
					pipe.Del(ctx, k)
				}
				_, _ = pipe.Exec(ctx)
			}
			if cursor == 0 {
				break
			}
		}
		return
	}
	localMu.Lock()
	lc := local
	localMu.Unlock()
	if lc != nil {
		lc.deletePrefix(prefix)
	}
}
