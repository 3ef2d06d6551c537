package recommend

import "math"

// selectDiverse walks the ranked candidates once, admitting each while its
// primary signal type is under a quota of ceil(k/3) admitted results. When
// the walk leaves the output short of k, remaining slots fill from the
// skipped candidates in rank order — even if that re-concentrates one type.
// The fallback keeps the list at size k whenever enough candidates exist, at
// the cost of looser diversity near the tail.
//
// rankedCandidates must be sorted by fused score descending with ties broken
// by discovery order.
func selectDiverse(rankedCandidates []Candidate, k int) []Candidate {
	if k <= 0 {
		return []Candidate{}
	}

	quota := int(math.Ceil(float64(k) / 3))
	selected := make([]Candidate, 0, k)
	admittedByType := map[Signal]int{}
	var skipped []Candidate

	for _, candidate := range rankedCandidates {
		if len(selected) == k {
			break
		}
		primary := candidate.PrimarySignal()
		if admittedByType[primary] < quota {
			admittedByType[primary]++
			selected = append(selected, candidate)
		} else {
			skipped = append(skipped, candidate)
		}
	}

	for _, candidate := range skipped {
		if len(selected) == k {
			break
		}
		selected = append(selected, candidate)
	}

	return selected
}
