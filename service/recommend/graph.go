package recommend

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/peergram/go-suggest/service/logger"
	"github.com/peergram/go-suggest/service/persist"
	"github.com/peergram/go-suggest/service/store"
)

const graphCacheSize = 10000

// FollowingReader is a read-only accessor over the follow graph with a
// short-lived per-user cache. It is safe for concurrent use and never returns
// an error: if the underlying store is unreachable the reader degrades to an
// empty following set, which callers treat the same as "follows nobody".
type FollowingReader struct {
	social store.SocialStore
	cache  *expirable.LRU[persist.DBID, []persist.DBID]
}

func newFollowingReader(social store.SocialStore, ttl time.Duration) *FollowingReader {
	return &FollowingReader{
		social: social,
		cache:  expirable.NewLRU[persist.DBID, []persist.DBID](graphCacheSize, nil, ttl),
	}
}

// GetFollowing returns the IDs of every account userID follows. Cached
// results are returned as-is until the TTL lapses; callers must not mutate
// the returned slice.
func (r *FollowingReader) GetFollowing(ctx context.Context, userID persist.DBID) []persist.DBID {
	if ids, ok := r.cache.Get(userID); ok {
		return ids
	}

	ids, err := r.social.FetchFollowing(ctx, userID)
	if err != nil {
		logger.For(ctx).WithError(err).WithField("userID", userID).Warn("following fetch failed, degrading to empty set")
		return []persist.DBID{}
	}

	r.cache.Add(userID, ids)
	return ids
}

// Invalidate drops the cached following set for one user.
func (r *FollowingReader) Invalidate(userID persist.DBID) {
	r.cache.Remove(userID)
}

// InvalidateAll drops every cached following set.
func (r *FollowingReader) InvalidateAll() {
	r.cache.Purge()
}
