package recommend

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/peergram/go-suggest/service/logger"
	"github.com/peergram/go-suggest/service/persist"
	"github.com/peergram/go-suggest/service/store"
)

const (
	popularityScanLimit     = 200
	popularityWindow        = 7 * 24 * time.Hour
	popularityTopAuthors    = 10
	minEngagement           = 5
	popularityLikersWorkers = 10
)

// popularitySignal surfaces globally popular creators independent of the
// requester's graph. It scans recent platform-wide posts, sums like counts
// per author, and keeps the most engaged authors. Authors the requester
// already follows never enter the tally.
type popularitySignal struct {
	content store.ContentStore
}

func (popularitySignal) signal() Signal { return SignalPopular }

func (s popularitySignal) generate(ctx context.Context, gctx generatorContext) ([]Candidate, error) {
	posts, err := s.content.FetchRecentGlobalPosts(ctx, time.Now().Add(-popularityWindow), popularityScanLimit)
	if err != nil {
		return nil, err
	}

	engagement := map[persist.DBID]int{}
	var mu sync.Mutex

	// One likers lookup per post; bounded workers keep the fan-out from
	// overwhelming the store.
	wp := workerpool.New(popularityLikersWorkers)
	for _, post := range posts {
		if post.AuthorID == gctx.userID || gctx.followingSet[post.AuthorID] {
			continue
		}

		post := post
		wp.Submit(func() {
			likers, err := s.content.FetchLikers(ctx, post.ID)
			if err != nil {
				logger.For(ctx).WithError(err).WithField("postID", post.ID).Warn("popularity signal: likers fetch failed")
				return
			}
			mu.Lock()
			engagement[post.AuthorID] += len(likers)
			mu.Unlock()
		})
	}
	wp.StopWait()

	authors := make([]persist.DBID, 0, len(engagement))
	for id := range engagement {
		authors = append(authors, id)
	}
	sort.Slice(authors, func(i, j int) bool {
		if engagement[authors[i]] != engagement[authors[j]] {
			return engagement[authors[i]] > engagement[authors[j]]
		}
		return authors[i] < authors[j]
	})
	if len(authors) > popularityTopAuthors {
		authors = authors[:popularityTopAuthors]
	}

	var candidates []Candidate
	for _, id := range authors {
		score := engagement[id]
		if score < minEngagement {
			continue
		}

		candidates = append(candidates, Candidate{
			ID:      id,
			Score:   math.Min(float64(score)*2, 40),
			Reasons: []string{"Popular creator"},
			Signals: []Signal{SignalPopular},
			Metadata: map[string]any{
				"engagement": score,
			},
		})
	}

	return candidates, nil
}
