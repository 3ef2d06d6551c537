package recommend

import (
	"context"
	"fmt"
	"math"

	"github.com/peergram/go-suggest/service/logger"
	"github.com/peergram/go-suggest/service/persist"
	"github.com/peergram/go-suggest/service/store"
)

const (
	activityPostLimit = 20
	minInteractions   = 3
)

// activitySignal surfaces accounts that repeatedly like the requester's
// content. It walks the requester's most recent posts and tallies likes per
// liker.
type activitySignal struct {
	content store.ContentStore
}

func (activitySignal) signal() Signal { return SignalActivity }

func (s activitySignal) generate(ctx context.Context, gctx generatorContext) ([]Candidate, error) {
	posts := gctx.recentPosts
	if len(posts) > activityPostLimit {
		posts = posts[:activityPostLimit]
	}
	if len(posts) == 0 {
		return nil, nil
	}

	tally := map[persist.DBID]int{}
	var order []persist.DBID

	for _, post := range posts {
		likers, err := s.content.FetchLikers(ctx, post.ID)
		if err != nil {
			// A failed likers lookup drops that post's contribution only.
			logger.For(ctx).WithError(err).WithField("postID", post.ID).Warn("activity signal: likers fetch failed")
			continue
		}

		for _, likerID := range likers {
			if likerID == gctx.userID {
				continue
			}
			if _, seen := tally[likerID]; !seen {
				order = append(order, likerID)
			}
			tally[likerID]++
		}
	}

	var candidates []Candidate
	for _, id := range order {
		count := tally[id]
		if count < minInteractions {
			continue
		}

		candidates = append(candidates, Candidate{
			ID:      id,
			Score:   math.Min(float64(count)*8, 60),
			Reasons: []string{fmt.Sprintf("Liked %d of your photos", count)},
			Signals: []Signal{SignalActivity},
			Metadata: map[string]any{
				"interactions": count,
			},
		})
	}

	return candidates, nil
}
