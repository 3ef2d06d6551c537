package recommend

import (
	"context"
	"fmt"

	"github.com/peergram/go-suggest/service/persist"
)

// generatorContext carries the per-request data every signal generator may
// need: the requester's identity, their following set as observed at call
// time, their recent content, and an optional location.
type generatorContext struct {
	userID       persist.DBID
	profile      *persist.Profile
	location     *persist.LatLong
	following    []persist.DBID
	followingSet map[persist.DBID]bool
	recentPosts  []persist.Post
}

// signalGenerator produces scored candidates from one source of relevance
// evidence. Generators are stateless with respect to candidates: each call
// returns a fresh list. A generator must exclude the requester from its own
// output but may emit already-followed accounts; the aggregator filters those
// centrally.
type signalGenerator interface {
	signal() Signal
	generate(ctx context.Context, gctx generatorContext) ([]Candidate, error)
}

// safeGenerate isolates a generator's failure so that neither an error nor a
// panic crosses the fan-out join boundary.
func safeGenerate(ctx context.Context, gen signalGenerator, gctx generatorContext) (candidates []Candidate, err error) {
	defer func() {
		if p := recover(); p != nil {
			candidates = nil
			err = fmt.Errorf("%s signal panicked: %v", gen.signal(), p)
		}
	}()
	return gen.generate(ctx, gctx)
}
