package recommend

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/peergram/go-suggest/service/logger"
	"github.com/peergram/go-suggest/service/persist"
	"github.com/peergram/go-suggest/service/redis"
)

const suggestionCacheSize = 10000

// SuggestionCache stores each user's most recent computed suggestion list.
// Entries expire lazily after the cache's TTL; a miss (expired or absent)
// triggers recomputation by the engine. The cache is owned exclusively by
// the engine. Cache failures degrade to misses, never to errors.
type SuggestionCache interface {
	Get(ctx context.Context, userID persist.DBID) ([]Candidate, bool)
	Set(ctx context.Context, userID persist.DBID, candidates []Candidate)
	Invalidate(ctx context.Context, userID persist.DBID)
	InvalidateAll(ctx context.Context)
}

type memorySuggestionCache struct {
	lru *expirable.LRU[persist.DBID, []Candidate]
}

// NewMemorySuggestionCache returns the default in-process suggestion cache.
func NewMemorySuggestionCache(ttl time.Duration) SuggestionCache {
	return &memorySuggestionCache{
		lru: expirable.NewLRU[persist.DBID, []Candidate](suggestionCacheSize, nil, ttl),
	}
}

func (c *memorySuggestionCache) Get(ctx context.Context, userID persist.DBID) ([]Candidate, bool) {
	return c.lru.Get(userID)
}

func (c *memorySuggestionCache) Set(ctx context.Context, userID persist.DBID, candidates []Candidate) {
	c.lru.Add(userID, candidates)
}

func (c *memorySuggestionCache) Invalidate(ctx context.Context, userID persist.DBID) {
	c.lru.Remove(userID)
}

func (c *memorySuggestionCache) InvalidateAll(ctx context.Context) {
	c.lru.Purge()
}

type redisSuggestionCache struct {
	cache *redis.Cache
	ttl   time.Duration
}

// NewRedisSuggestionCache returns a suggestion cache backed by redis, for
// deployments running more than one replica of the engine.
func NewRedisSuggestionCache(cache *redis.Cache, ttl time.Duration) SuggestionCache {
	return &redisSuggestionCache{cache: cache, ttl: ttl}
}

func (c *redisSuggestionCache) Get(ctx context.Context, userID persist.DBID) ([]Candidate, bool) {
	b, err := c.cache.Get(ctx, userID.String())
	if err != nil {
		if _, notFound := err.(redis.ErrKeyNotFound); !notFound {
			logger.For(ctx).WithError(err).Warn("suggestion cache read failed")
		}
		return nil, false
	}

	var candidates []Candidate
	if err := json.Unmarshal(b, &candidates); err != nil {
		logger.For(ctx).WithError(err).Warn("suggestion cache entry corrupt, treating as miss")
		return nil, false
	}
	return candidates, true
}

func (c *redisSuggestionCache) Set(ctx context.Context, userID persist.DBID, candidates []Candidate) {
	b, err := json.Marshal(candidates)
	if err != nil {
		logger.For(ctx).WithError(err).Warn("suggestion cache encode failed")
		return
	}
	if err := c.cache.Set(ctx, userID.String(), b, c.ttl); err != nil {
		logger.For(ctx).WithError(err).Warn("suggestion cache write failed")
	}
}

func (c *redisSuggestionCache) Invalidate(ctx context.Context, userID persist.DBID) {
	if err := c.cache.Delete(ctx, userID.String()); err != nil {
		logger.For(ctx).WithError(err).Warn("suggestion cache delete failed")
	}
}

func (c *redisSuggestionCache) InvalidateAll(ctx context.Context) {
	if err := c.cache.DeleteAll(ctx); err != nil {
		logger.For(ctx).WithError(err).Warn("suggestion cache flush failed")
	}
}
