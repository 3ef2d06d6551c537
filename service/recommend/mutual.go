package recommend

import (
	"context"
	"fmt"
	"math"

	"github.com/peergram/go-suggest/service/persist"
	"github.com/sourcegraph/conc/pool"
)

const (
	mutualBatchSize = 5
	minMutuals      = 2
)

// mutualSignal surfaces accounts followed by several of the accounts the
// requester already follows. It only runs when the requester follows at least
// one account. Lookups go through the FollowingReader in batches of
// mutualBatchSize to bound concurrent fan-out; each batch completes before
// the next is issued.
type mutualSignal struct {
	graph *FollowingReader
}

func (mutualSignal) signal() Signal { return SignalMutual }

func (s mutualSignal) generate(ctx context.Context, gctx generatorContext) ([]Candidate, error) {
	if len(gctx.following) == 0 {
		return nil, nil
	}

	tally := map[persist.DBID]int{}
	var order []persist.DBID

	for start := 0; start < len(gctx.following); start += mutualBatchSize {
		end := start + mutualBatchSize
		if end > len(gctx.following) {
			end = len(gctx.following)
		}

		p := pool.NewWithResults[[]persist.DBID]()
		for _, followedID := range gctx.following[start:end] {
			followedID := followedID
			p.Go(func() []persist.DBID {
				return s.graph.GetFollowing(ctx, followedID)
			})
		}

		for _, theirFollowing := range p.Wait() {
			for _, id := range theirFollowing {
				if id == gctx.userID {
					continue
				}
				if _, seen := tally[id]; !seen {
					order = append(order, id)
				}
				tally[id]++
			}
		}
	}

	var candidates []Candidate
	for _, id := range order {
		count := tally[id]
		if count < minMutuals {
			continue
		}

		candidates = append(candidates, Candidate{
			ID:      id,
			Score:   math.Min(float64(count)*15, 80),
			Reasons: []string{fmt.Sprintf("%d mutual connections", count)},
			Signals: []Signal{SignalMutual},
			Metadata: map[string]any{
				"mutuals": count,
			},
		})
	}

	return candidates, nil
}
