// Package recommend implements the follow-suggestions engine: multi-signal
// candidate generation, score fusion, diversity-constrained selection, and
// TTL-cached results.
package recommend

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/peergram/go-suggest/service/logger"
	"github.com/peergram/go-suggest/service/persist"
	"github.com/peergram/go-suggest/service/store"
	"github.com/peergram/go-suggest/util"
	"github.com/sourcegraph/conc/pool"
)

const (
	defaultLimit     = 10
	maxLimit         = 50
	maxSelectorInput = 50
	recentPostLimit  = 50

	defaultSuggestionTTL = 10 * time.Minute
	defaultFollowingTTL  = 5 * time.Minute
)

// SuggestionOptions controls a single GetSuggestions call.
type SuggestionOptions struct {
	// Limit is the maximum number of suggestions returned. Zero means the
	// default of 10; values are clamped to [1, 50].
	Limit int

	// Signals restricts which signal generators run. Nil enables all of them.
	Signals []Signal

	// Location overrides the requester's profile location for the location
	// signal.
	Location *persist.LatLong
}

type engineConfig struct {
	suggestionTTL time.Duration
	followingTTL  time.Duration
	cache         SuggestionCache
	sink          EventSink
}

// EngineOption customizes engine construction.
type EngineOption func(*engineConfig)

// WithSuggestionCache replaces the default in-memory suggestion cache.
func WithSuggestionCache(cache SuggestionCache) EngineOption {
	return func(c *engineConfig) { c.cache = cache }
}

// WithSuggestionTTL sets the TTL of the default in-memory suggestion cache.
func WithSuggestionTTL(ttl time.Duration) EngineOption {
	return func(c *engineConfig) { c.suggestionTTL = ttl }
}

// WithFollowingTTL sets the TTL of the follow-graph reader's cache.
func WithFollowingTTL(ttl time.Duration) EngineOption {
	return func(c *engineConfig) { c.followingTTL = ttl }
}

// WithEventSink replaces the default log-based telemetry sink.
func WithEventSink(sink EventSink) EngineOption {
	return func(c *engineConfig) { c.sink = sink }
}

// Engine computes follow suggestions. It owns the suggestion cache and the
// follow-graph reader; no other component mutates either. Concurrent calls
// for different users never block each other, and concurrent calls for the
// same user are not coalesced: a recomputation racing a newer cache write is
// acceptable within the TTL window.
type Engine struct {
	content    store.ContentStore
	graph      *FollowingReader
	cache      SuggestionCache
	recorder   *eventRecorder
	generators []signalGenerator
}

// NewEngine builds an engine over the given stores.
func NewEngine(content store.ContentStore, social store.SocialStore, opts ...EngineOption) *Engine {
	config := engineConfig{
		suggestionTTL: defaultSuggestionTTL,
		followingTTL:  defaultFollowingTTL,
		sink:          logEventSink{},
	}
	for _, opt := range opts {
		opt(&config)
	}

	cache := config.cache
	if cache == nil {
		cache = NewMemorySuggestionCache(config.suggestionTTL)
	}

	graph := newFollowingReader(social, config.followingTTL)

	return &Engine{
		content:  content,
		graph:    graph,
		cache:    cache,
		recorder: newEventRecorder(config.sink),
		generators: []signalGenerator{
			locationSignal{content: content},
			mutualSignal{graph: graph},
			activitySignal{content: content},
			popularitySignal{content: content},
		},
	}
}

// GetSuggestions returns up to opts.Limit suggested accounts for userID,
// best first. A cached result within its TTL is served as-is. Failures never
// propagate: a missing recommendation is not a fatal condition for any
// caller, so the worst case is an empty list.
func (e *Engine) GetSuggestions(ctx context.Context, userID persist.DBID, opts SuggestionOptions) (result []Candidate) {
	defer func() {
		if p := recover(); p != nil {
			logger.For(ctx).Errorf("recovered computing suggestions for %s: %v", userID, p)
			result = []Candidate{}
		}
	}()

	limit := clampLimit(opts.Limit)

	if cached, ok := e.cache.Get(ctx, userID); ok {
		return headOf(cached, limit)
	}

	gctx, ok := e.fetchContext(ctx, userID, opts)
	if !ok {
		return []Candidate{}
	}

	lists := e.runGenerators(ctx, gctx, opts.Signals)

	merged := excludeKnown(mergeCandidates(lists), userID, gctx.followingSet)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	// Hand the selector more than it needs so diversity substitution has
	// room to work with.
	merged = headOf(merged, minInt(limit*2, maxSelectorInput))

	result = selectDiverse(merged, limit)
	e.cache.Set(ctx, userID, result)
	return result
}

// Invalidate drops the cached suggestions and following-cache entry for one
// user. The follow/unfollow service calls this after a relationship change.
// Invalidating a user with no cache entry is a no-op.
func (e *Engine) Invalidate(ctx context.Context, userID persist.DBID) {
	e.cache.Invalidate(ctx, userID)
	e.graph.Invalidate(userID)
}

// InvalidateAll drops every cached suggestion list and following set.
func (e *Engine) InvalidateAll(ctx context.Context) {
	e.cache.InvalidateAll(ctx)
	e.graph.InvalidateAll()
}

// RecordEvent records what a user did with a suggestion. It is fire and
// forget: dispatch is asynchronous and recording failures never surface.
func (e *Engine) RecordEvent(userID, candidateID persist.DBID, action EventAction, signal Signal) {
	e.recorder.record(SuggestionEvent{
		UserID:      userID,
		CandidateID: candidateID,
		Action:      action,
		Signal:      signal,
		CreatedAt:   time.Now(),
	})
}

// Close drains pending telemetry and releases the engine's workers.
func (e *Engine) Close() {
	e.recorder.stop()
}

// fetchContext concurrently loads the requester's following set, profile and
// recent posts. The following fetch degrades internally; a failed profile or
// posts fetch is a context failure and aborts the call (ok == false).
func (e *Engine) fetchContext(ctx context.Context, userID persist.DBID, opts SuggestionOptions) (generatorContext, bool) {
	var (
		following  []persist.DBID
		profile    *persist.Profile
		posts      []persist.Post
		profileErr error
		postsErr   error
	)

	p := pool.New()
	p.Go(func() {
		following = e.graph.GetFollowing(ctx, userID)
	})
	p.Go(func() {
		prof, err := e.content.FetchUserProfile(ctx, userID)
		if err != nil {
			profileErr = err
			return
		}
		profile = &prof
	})
	p.Go(func() {
		posts, postsErr = e.content.FetchRecentPosts(ctx, userID, recentPostLimit)
	})
	p.Wait()

	var notFound store.ErrProfileNotFound
	if profileErr != nil && !errors.As(profileErr, &notFound) {
		logger.For(ctx).WithError(profileErr).Warn("profile fetch failed, returning no suggestions")
		return generatorContext{}, false
	}
	if postsErr != nil {
		logger.For(ctx).WithError(postsErr).Warn("recent posts fetch failed, returning no suggestions")
		return generatorContext{}, false
	}

	location := opts.Location
	if location == nil && profile != nil {
		location = profile.Location
	}

	followingSet := make(map[persist.DBID]bool, len(following))
	for _, id := range following {
		followingSet[id] = true
	}

	return generatorContext{
		userID:       userID,
		profile:      profile,
		location:     location,
		following:    following,
		followingSet: followingSet,
		recentPosts:  posts,
	}, true
}

// runGenerators fans out to the enabled signal generators concurrently. Each
// generator is isolated: its failure degrades that signal to an empty list at
// warn level and never crosses the join.
func (e *Engine) runGenerators(ctx context.Context, gctx generatorContext, enabled []Signal) [][]Candidate {
	generators := e.generators
	if enabled != nil {
		generators = nil
		for _, gen := range e.generators {
			if util.Contains(enabled, gen.signal()) {
				generators = append(generators, gen)
			}
		}
	}

	lists := make([][]Candidate, len(generators))
	p := pool.New()
	for i, gen := range generators {
		i, gen := i, gen
		p.Go(func() {
			candidates, err := safeGenerate(ctx, gen, gctx)
			if err != nil {
				logger.For(ctx).WithError(err).WithField("signal", gen.signal()).Warn("signal generator failed")
				return
			}
			lists[i] = candidates
		})
	}
	p.Wait()

	return lists
}

func clampLimit(limit int) int {
	if limit == 0 {
		return defaultLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func headOf(candidates []Candidate, n int) []Candidate {
	if len(candidates) > n {
		return candidates[:n]
	}
	return candidates
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
