package recommend

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/peergram/go-suggest/service/persist"
	"github.com/peergram/go-suggest/service/store"
	"github.com/peergram/go-suggest/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureStore implements store.ContentStore and store.SocialStore over
// in-memory maps, with switches to inject failures.
type fixtureStore struct {
	mu        sync.Mutex
	profiles  map[persist.DBID]persist.Profile
	following map[persist.DBID][]persist.DBID
	posts     []persist.Post // newest first
	likers    map[persist.DBID][]persist.DBID

	followingCalls int

	failFollowing bool
	failPosts     bool
	failNearby    bool
	failGlobal    bool
	failLikersFor map[persist.DBID]bool
}

func newFixtureStore() *fixtureStore {
	return &fixtureStore{
		profiles:      map[persist.DBID]persist.Profile{},
		following:     map[persist.DBID][]persist.DBID{},
		likers:        map[persist.DBID][]persist.DBID{},
		failLikersFor: map[persist.DBID]bool{},
	}
}

func (f *fixtureStore) addPost(id, author persist.DBID, loc *persist.LatLong, likers ...persist.DBID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, persist.Post{ID: id, AuthorID: author, Location: loc, CreatedAt: time.Now()})
	f.likers[id] = likers
}

func (f *fixtureStore) addLikers(postID persist.DBID, likers ...persist.DBID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.likers[postID] = append(f.likers[postID], likers...)
}

func (f *fixtureStore) FetchFollowing(ctx context.Context, userID persist.DBID) ([]persist.DBID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followingCalls++
	if f.failFollowing {
		return nil, errors.New("social store unavailable")
	}
	return f.following[userID], nil
}

func (f *fixtureStore) FetchFollowers(ctx context.Context, userID persist.DBID) ([]persist.DBID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var followers []persist.DBID
	for follower, followed := range f.following {
		if util.Contains(followed, userID) {
			followers = append(followers, follower)
		}
	}
	return followers, nil
}

func (f *fixtureStore) FetchUserProfile(ctx context.Context, userID persist.DBID) (persist.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return persist.Profile{}, store.ErrProfileNotFound{UserID: userID}
	}
	return p, nil
}

func (f *fixtureStore) FetchRecentPosts(ctx context.Context, userID persist.DBID, limit int) ([]persist.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPosts {
		return nil, errors.New("content store unavailable")
	}
	var out []persist.Post
	for _, p := range f.posts {
		if p.AuthorID == userID && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fixtureStore) FetchPostsNearLocation(ctx context.Context, loc persist.LatLong, radiusMeters float64, limit int) ([]persist.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNearby {
		return nil, errors.New("geo index unavailable")
	}
	var out []persist.Post
	for _, p := range f.posts {
		if p.Location != nil && HaversineMeters(loc, *p.Location) <= radiusMeters && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fixtureStore) FetchRecentGlobalPosts(ctx context.Context, since time.Time, limit int) ([]persist.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGlobal {
		return nil, errors.New("feed unavailable")
	}
	if len(f.posts) > limit {
		return f.posts[:limit], nil
	}
	return f.posts, nil
}

func (f *fixtureStore) FetchLikers(ctx context.Context, postID persist.DBID) ([]persist.DBID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLikersFor[postID] {
		return nil, errors.New("likes unavailable")
	}
	return f.likers[postID], nil
}

func candidateIDs(candidates []Candidate) []persist.DBID {
	return util.MapWithoutError(candidates, func(c Candidate) persist.DBID { return c.ID })
}

func TestGetSuggestionsPopularityOnly(t *testing.T) {
	ctx := context.Background()
	s := newFixtureStore()

	// Three qualifying creators with engagement 8, 6 and 5, plus one below
	// the threshold.
	s.addPost("p1", "creatorA", nil, "l1", "l2", "l3", "l4")
	s.addPost("p2", "creatorA", nil, "l5", "l6", "l7", "l8")
	s.addPost("p3", "creatorB", nil, "l1", "l2", "l3", "l4", "l5", "l6")
	s.addPost("p4", "creatorC", nil, "l1", "l2", "l3", "l4", "l5")
	s.addPost("p5", "creatorD", nil, "l1", "l2")

	engine := NewEngine(s, s)
	defer engine.Close()

	result := engine.GetSuggestions(ctx, "requester", SuggestionOptions{
		Limit:   5,
		Signals: []Signal{SignalPopular},
	})

	require.Equal(t, []persist.DBID{"creatorA", "creatorB", "creatorC"}, candidateIDs(result))
	for _, c := range result {
		assert.Equal(t, []string{"Popular creator"}, c.Reasons)
		assert.Equal(t, []Signal{SignalPopular}, c.Signals)
	}
	assert.Equal(t, 16.0, result[0].Score)
	assert.Equal(t, 12.0, result[1].Score)
	assert.Equal(t, 10.0, result[2].Score)
}

func TestGetSuggestionsLocationScenario(t *testing.T) {
	ctx := context.Background()
	s := newFixtureStore()

	base := persist.LatLong{Latitude: 48.8566, Longitude: 2.3522}
	// Roughly 50 meters north of base.
	nearby := persist.LatLong{Latitude: 48.85705, Longitude: 2.3522}

	// The requester has posted twice at base; another author has three posts
	// ~50m away.
	s.addPost("r1", "requester", &base)
	s.addPost("r2", "requester", &base)
	s.addPost("x1", "authorX", &nearby)
	s.addPost("x2", "authorX", &nearby)
	s.addPost("x3", "authorX", &nearby)

	engine := NewEngine(s, s)
	defer engine.Close()

	result := engine.GetSuggestions(ctx, "requester", SuggestionOptions{
		Limit:   5,
		Signals: []Signal{SignalLocation},
	})

	require.Len(t, result, 1)
	c := result[0]
	assert.Equal(t, persist.DBID("authorX"), c.ID)
	assert.Equal(t, []string{"3 posts near you"}, c.Reasons)

	wantDistance := HaversineMeters(base, nearby)
	distance, ok := c.Metadata["distance"].(float64)
	require.True(t, ok)
	assert.InDelta(t, wantDistance, distance, 1)

	// min(3*10, 50) + max(50 - d/200, 10)
	assert.InDelta(t, 30+(50-wantDistance/200), c.Score, 0.01)
}

func TestGetSuggestionsMutualAndActivityMerge(t *testing.T) {
	ctx := context.Background()
	s := newFixtureStore()

	s.following["requester"] = []persist.DBID{"f1", "f2", "f3"}
	s.following["f1"] = []persist.DBID{"accountA"}
	s.following["f2"] = []persist.DBID{"accountA"}

	// accountA has liked four of the requester's photos.
	s.addPost("q1", "requester", nil, "accountA")
	s.addPost("q2", "requester", nil, "accountA")
	s.addPost("q3", "requester", nil, "accountA")
	s.addPost("q4", "requester", nil, "accountA")

	engine := NewEngine(s, s)
	defer engine.Close()

	result := engine.GetSuggestions(ctx, "requester", SuggestionOptions{
		Limit:   5,
		Signals: []Signal{SignalMutual, SignalActivity},
	})

	require.Len(t, result, 1)
	c := result[0]
	assert.Equal(t, persist.DBID("accountA"), c.ID)
	assert.Equal(t, []string{"2 mutual connections", "Liked 4 of your photos"}, c.Reasons)
	assert.Equal(t, []Signal{SignalMutual, SignalActivity}, c.Signals)
	// mutual = min(2*15, 80) = 30, activity = min(4*8, 60) = 32,
	// fused = max(30, 32) + 32*0.3
	assert.InDelta(t, 41.6, c.Score, 0.001)
}

func TestGetSuggestionsNeverLeaksSelfOrFollowed(t *testing.T) {
	ctx := context.Background()
	s := newFixtureStore()

	s.following["requester"] = []persist.DBID{"f1"}

	// f1 likes three of the requester's photos, which would qualify it for
	// the activity signal; the aggregator must still drop it.
	s.addPost("q1", "requester", nil, "f1")
	s.addPost("q2", "requester", nil, "f1")
	s.addPost("q3", "requester", nil, "f1")

	engine := NewEngine(s, s)
	defer engine.Close()

	result := engine.GetSuggestions(ctx, "requester", SuggestionOptions{Limit: 10})

	ids := candidateIDs(result)
	assert.NotContains(t, ids, persist.DBID("requester"))
	assert.NotContains(t, ids, persist.DBID("f1"))
}

func TestGetSuggestionsCacheTTL(t *testing.T) {
	ctx := context.Background()
	s := newFixtureStore()

	s.addPost("p1", "creatorA", nil, "l1", "l2", "l3", "l4", "l5")
	s.addPost("p2", "creatorD", nil, "l1", "l2")

	engine := NewEngine(s, s, WithSuggestionTTL(50*time.Millisecond))
	defer engine.Close()

	opts := SuggestionOptions{Limit: 5, Signals: []Signal{SignalPopular}}

	first := engine.GetSuggestions(ctx, "requester", opts)
	require.Equal(t, []persist.DBID{"creatorA"}, candidateIDs(first))

	// creatorD becomes popular, but the cached result is served unchanged
	// within the TTL window.
	s.addLikers("p2", "l3", "l4", "l5", "l6", "l7", "l8", "l9")
	second := engine.GetSuggestions(ctx, "requester", opts)
	assert.Equal(t, first, second)

	time.Sleep(80 * time.Millisecond)

	third := engine.GetSuggestions(ctx, "requester", opts)
	assert.Contains(t, candidateIDs(third), persist.DBID("creatorD"))
}

func TestInvalidateForcesRecomputation(t *testing.T) {
	ctx := context.Background()
	s := newFixtureStore()

	s.addPost("p1", "creatorA", nil, "l1", "l2", "l3", "l4", "l5")

	engine := NewEngine(s, s)
	defer engine.Close()

	opts := SuggestionOptions{Limit: 5, Signals: []Signal{SignalPopular}}

	first := engine.GetSuggestions(ctx, "requester", opts)
	require.Equal(t, []persist.DBID{"creatorA"}, candidateIDs(first))

	s.addPost("p2", "creatorB", nil, "m1", "m2", "m3", "m4", "m5", "m6")
	engine.Invalidate(ctx, "requester")

	second := engine.GetSuggestions(ctx, "requester", opts)
	assert.Contains(t, candidateIDs(second), persist.DBID("creatorB"))
}

func TestInvalidateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(newFixtureStore(), newFixtureStore())
	defer engine.Close()

	assert.NotPanics(t, func() {
		engine.Invalidate(ctx, "nobody")
		engine.Invalidate(ctx, "nobody")
		engine.InvalidateAll(ctx)
	})
}

func TestGetSuggestionsLimitClamping(t *testing.T) {
	ctx := context.Background()
	s := newFixtureStore()

	s.addPost("p1", "creatorA", nil, "l1", "l2", "l3", "l4", "l5")
	s.addPost("p2", "creatorB", nil, "l1", "l2", "l3", "l4", "l5", "l6")

	engine := NewEngine(s, s)
	defer engine.Close()

	t.Run("negative limit clamps to one", func(t *testing.T) {
		result := engine.GetSuggestions(ctx, "u1", SuggestionOptions{Limit: -3, Signals: []Signal{SignalPopular}})
		assert.Len(t, result, 1)
	})

	t.Run("oversized limit is tolerated", func(t *testing.T) {
		result := engine.GetSuggestions(ctx, "u2", SuggestionOptions{Limit: 5000, Signals: []Signal{SignalPopular}})
		assert.Len(t, result, 2)
	})
}

func TestGetSuggestionsContextFailureReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	s := newFixtureStore()
	s.addPost("p1", "creatorA", nil, "l1", "l2", "l3", "l4", "l5")
	s.failPosts = true

	engine := NewEngine(s, s)
	defer engine.Close()

	result := engine.GetSuggestions(ctx, "requester", SuggestionOptions{Limit: 5})
	assert.Empty(t, result)
}

func TestRecordEventNeverFails(t *testing.T) {
	engine := NewEngine(newFixtureStore(), newFixtureStore(), WithEventSink(failingSink{}))

	assert.NotPanics(t, func() {
		engine.RecordEvent("u", "c", ActionFollowed, SignalMutual)
		engine.Close()
	})
}

type failingSink struct{}

func (failingSink) Record(ctx context.Context, event SuggestionEvent) error {
	return errors.New("analytics pipe broken")
}
