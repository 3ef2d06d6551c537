package recommend

import (
	"github.com/peergram/go-suggest/service/persist"
)

// Signal identifies an independent source of relevance evidence.
type Signal string

const (
	SignalLocation Signal = "location"
	SignalMutual   Signal = "mutual"
	SignalActivity Signal = "activity"
	SignalPopular  Signal = "popular"
)

// AllSignals lists every signal in the order the engine runs them.
var AllSignals = []Signal{SignalLocation, SignalMutual, SignalActivity, SignalPopular}

// Candidate is one recommended account for one requesting user. Scores are
// signal-specific and unbounded above; merging candidates discovered by more
// than one signal fuses their scores (see mergeCandidates).
type Candidate struct {
	ID persist.DBID `json:"id"`

	Score float64 `json:"score"`

	// Reasons holds one human-readable justification per contributing signal
	// occurrence, in discovery order.
	Reasons []string `json:"reasons"`

	// Signals is the set of signal types that contributed to this candidate,
	// in discovery order. Never empty.
	Signals []Signal `json:"signals"`

	// Metadata carries signal-specific auxiliary facts (post counts,
	// distances, mutual counts). Downstream logic never depends on it.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// PrimarySignal is the first signal type recorded for the candidate; the
// diversity selector keys its quotas on it.
func (c Candidate) PrimarySignal() Signal {
	if len(c.Signals) == 0 {
		return ""
	}
	return c.Signals[0]
}
