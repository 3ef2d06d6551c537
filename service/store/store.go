// Package store defines the read-only data interfaces the suggestions engine
// is built against. The follow/unfollow write path and post ingestion are
// owned by other services; this package only reads their stores.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/peergram/go-suggest/service/persist"
)

// ErrProfileNotFound is returned when a profile lookup matches no user.
type ErrProfileNotFound struct {
	UserID persist.DBID
}

func (e ErrProfileNotFound) Error() string {
	return fmt.Sprintf("profile not found for user %s", e.UserID)
}

// SocialStore reads the follow graph.
type SocialStore interface {
	// FetchFollowing returns the IDs of every account userID follows.
	FetchFollowing(ctx context.Context, userID persist.DBID) ([]persist.DBID, error)
	// FetchFollowers returns the IDs of every account following userID.
	FetchFollowers(ctx context.Context, userID persist.DBID) ([]persist.DBID, error)
}

// ContentStore reads posts, likes and profiles.
type ContentStore interface {
	FetchUserProfile(ctx context.Context, userID persist.DBID) (persist.Profile, error)
	FetchRecentPosts(ctx context.Context, userID persist.DBID, limit int) ([]persist.Post, error)
	// FetchPostsNearLocation returns posts within a bounding box around loc
	// sized by radiusMeters. Callers needing an exact radius must postfilter
	// with a great-circle distance check.
	FetchPostsNearLocation(ctx context.Context, loc persist.LatLong, radiusMeters float64, limit int) ([]persist.Post, error)
	FetchRecentGlobalPosts(ctx context.Context, since time.Time, limit int) ([]persist.Post, error)
	FetchLikers(ctx context.Context, postID persist.DBID) ([]persist.DBID, error)
}
