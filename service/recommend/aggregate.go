package recommend

import (
	"math"

	"github.com/peergram/go-suggest/service/persist"
	"github.com/peergram/go-suggest/util"
)

// mergeCandidates merges the outputs of every signal generator, deduplicating
// by candidate ID. The first occurrence of a candidate is inserted as-is;
// later occurrences fuse into it:
//
//	newScore = max(existingScore, incomingScore) + incomingScore*0.3
//
// The fusion is deliberately asymmetric and order-dependent: candidates seen
// by several signals score super-linearly without the blow-up of naive
// summation. Reasons append in discovery order and signal types union.
func mergeCandidates(lists [][]Candidate) []Candidate {
	byID := map[persist.DBID]*Candidate{}
	var order []persist.DBID

	for _, list := range lists {
		for _, incoming := range list {
			existing, ok := byID[incoming.ID]
			if !ok {
				merged := incoming
				byID[incoming.ID] = &merged
				order = append(order, incoming.ID)
				continue
			}

			existing.Score = math.Max(existing.Score, incoming.Score) + incoming.Score*0.3
			existing.Reasons = append(existing.Reasons, incoming.Reasons...)
			for _, signal := range incoming.Signals {
				if !util.Contains(existing.Signals, signal) {
					existing.Signals = append(existing.Signals, signal)
				}
			}
			for key, value := range incoming.Metadata {
				if existing.Metadata == nil {
					existing.Metadata = map[string]any{}
				}
				existing.Metadata[key] = value
			}
		}
	}

	merged := make([]Candidate, 0, len(order))
	for _, id := range order {
		merged = append(merged, *byID[id])
	}
	return merged
}

// excludeKnown drops the requester and anyone in their following set. This
// runs once, centrally, after merging: a signal generator is not required to
// exclude already-followed accounts itself, and a stale per-signal view must
// not leak one into the final list.
func excludeKnown(candidates []Candidate, userID persist.DBID, followingSet map[persist.DBID]bool) []Candidate {
	kept := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == userID || followingSet[c.ID] {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}
