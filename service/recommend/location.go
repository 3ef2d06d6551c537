package recommend

import (
	"context"
	"fmt"
	"math"

	"github.com/peergram/go-suggest/service/logger"
	"github.com/peergram/go-suggest/service/persist"
	"github.com/peergram/go-suggest/service/store"
	"github.com/peergram/go-suggest/util"
)

const (
	locationRadiusMeters = 10000
	maxQueryLocations    = 5
	postsPerLocation     = 100
	minPostsNearby       = 2
)

// locationSignal surfaces authors who post near the requester. It queries
// nearby content around the requester's own location and around each distinct
// location among their recent posts, then tallies matched posts per author.
type locationSignal struct {
	content store.ContentStore
}

func (locationSignal) signal() Signal { return SignalLocation }

func (s locationSignal) generate(ctx context.Context, gctx generatorContext) ([]Candidate, error) {
	var locations []persist.LatLong
	if gctx.location != nil {
		locations = append(locations, *gctx.location)
	}
	for _, post := range gctx.recentPosts {
		if post.Location != nil {
			locations = append(locations, *post.Location)
		}
	}
	locations = util.Dedupe(locations)
	if len(locations) > maxQueryLocations {
		locations = locations[:maxQueryLocations]
	}
	if len(locations) == 0 {
		return nil, nil
	}

	type authorTally struct {
		posts   int
		nearest float64
	}
	tallies := map[persist.DBID]*authorTally{}
	var order []persist.DBID
	seenPosts := map[persist.DBID]bool{}

	for _, loc := range locations {
		posts, err := s.content.FetchPostsNearLocation(ctx, loc, locationRadiusMeters, postsPerLocation)
		if err != nil {
			// One failed location query drops that location's contribution,
			// not the whole signal.
			logger.For(ctx).WithError(err).Warn("location signal: nearby post fetch failed")
			continue
		}

		for _, post := range posts {
			if post.AuthorID == gctx.userID || post.Location == nil || seenPosts[post.ID] {
				continue
			}

			// The store prefilters with a bounding box; enforce the exact
			// radius here.
			distance := HaversineMeters(loc, *post.Location)
			if distance > locationRadiusMeters {
				continue
			}

			seenPosts[post.ID] = true
			tally, ok := tallies[post.AuthorID]
			if !ok {
				tally = &authorTally{nearest: distance}
				tallies[post.AuthorID] = tally
				order = append(order, post.AuthorID)
			}
			tally.posts++
			if distance < tally.nearest {
				tally.nearest = distance
			}
		}
	}

	var candidates []Candidate
	for _, authorID := range order {
		tally := tallies[authorID]
		if tally.posts < minPostsNearby {
			continue
		}

		score := math.Min(float64(tally.posts)*10, 50) + math.Max(50-tally.nearest/200, 10)
		candidates = append(candidates, Candidate{
			ID:      authorID,
			Score:   score,
			Reasons: []string{fmt.Sprintf("%d posts near you", tally.posts)},
			Signals: []Signal{SignalLocation},
			Metadata: map[string]any{
				"posts":    tally.posts,
				"distance": math.Round(tally.nearest),
			},
		})
	}

	return candidates, nil
}
