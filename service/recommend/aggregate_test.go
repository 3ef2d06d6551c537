package recommend

import (
	"math"
	"testing"

	"github.com/peergram/go-suggest/service/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeCandidates(t *testing.T) {
	t.Run("single occurrence is inserted as-is", func(t *testing.T) {
		merged := mergeCandidates([][]Candidate{{
			{ID: "a", Score: 30, Reasons: []string{"2 mutual connections"}, Signals: []Signal{SignalMutual}},
		}})

		require.Len(t, merged, 1)
		assert.Equal(t, 30.0, merged[0].Score)
		assert.Equal(t, []string{"2 mutual connections"}, merged[0].Reasons)
	})

	t.Run("fusion combines score, reasons and signal types", func(t *testing.T) {
		merged := mergeCandidates([][]Candidate{
			{{ID: "a", Score: 30, Reasons: []string{"2 mutual connections"}, Signals: []Signal{SignalMutual}, Metadata: map[string]any{"mutuals": 2}}},
			{{ID: "a", Score: 32, Reasons: []string{"Liked 4 of your photos"}, Signals: []Signal{SignalActivity}, Metadata: map[string]any{"interactions": 4}}},
		})

		require.Len(t, merged, 1)
		c := merged[0]
		assert.Equal(t, math.Max(30, 32)+32*0.3, c.Score)
		assert.Equal(t, []string{"2 mutual connections", "Liked 4 of your photos"}, c.Reasons)
		assert.Equal(t, []Signal{SignalMutual, SignalActivity}, c.Signals)
		assert.Equal(t, 2, c.Metadata["mutuals"])
		assert.Equal(t, 4, c.Metadata["interactions"])
	})

	t.Run("fusion never decreases the score", func(t *testing.T) {
		pairs := [][2]float64{{10, 20}, {20, 10}, {50, 50}, {0.5, 80}}
		for _, pair := range pairs {
			merged := mergeCandidates([][]Candidate{
				{{ID: "a", Score: pair[0], Reasons: []string{"x"}, Signals: []Signal{SignalLocation}}},
				{{ID: "a", Score: pair[1], Reasons: []string{"y"}, Signals: []Signal{SignalPopular}}},
			})
			require.Len(t, merged, 1)
			assert.GreaterOrEqual(t, merged[0].Score, math.Max(pair[0], pair[1]))
		}
	})

	t.Run("same signal twice appends both reasons but keeps one type tag", func(t *testing.T) {
		merged := mergeCandidates([][]Candidate{
			{
				{ID: "a", Score: 40, Reasons: []string{"2 posts near you"}, Signals: []Signal{SignalLocation}},
				{ID: "a", Score: 35, Reasons: []string{"3 posts near you"}, Signals: []Signal{SignalLocation}},
			},
		})

		require.Len(t, merged, 1)
		assert.Len(t, merged[0].Reasons, 2)
		assert.Equal(t, []Signal{SignalLocation}, merged[0].Signals)
	})

	t.Run("discovery order is preserved across lists", func(t *testing.T) {
		merged := mergeCandidates([][]Candidate{
			{{ID: "b", Score: 1, Reasons: []string{"x"}, Signals: []Signal{SignalMutual}}},
			{{ID: "a", Score: 2, Reasons: []string{"y"}, Signals: []Signal{SignalActivity}}},
		})

		require.Len(t, merged, 2)
		assert.Equal(t, persist.DBID("b"), merged[0].ID)
		assert.Equal(t, persist.DBID("a"), merged[1].ID)
	})
}

func TestExcludeKnown(t *testing.T) {
	candidates := []Candidate{
		{ID: "me", Signals: []Signal{SignalActivity}},
		{ID: "followed", Signals: []Signal{SignalMutual}},
		{ID: "fresh", Signals: []Signal{SignalPopular}},
	}

	kept := excludeKnown(candidates, "me", map[persist.DBID]bool{"followed": true})

	require.Len(t, kept, 1)
	assert.Equal(t, persist.DBID("fresh"), kept[0].ID)
}
