package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func visit(page string, d time.Duration) PageVisit {
	return PageVisit{Page: page, Timestamp: time.Now(), Duration: d}
}

func TestReduce_AddPageVisit_AccumulatesDurationAndPatterns(t *testing.T) {
	s := NewState()

	visits := []PageVisit{
		visit("home", 10*time.Second),
		visit("products", 25*time.Second),
		visit("home", 5*time.Second),
		visit("training", 40*time.Second),
	}
	var total time.Duration
	for _, v := range visits {
		s = Reduce(s, AddPageVisit(v))
		total += v.Duration
	}

	assert.Equal(t, total, s.Cells.SessionDuration, "session duration must equal the sum of visit durations")

	patternTotal := 0
	for _, count := range s.Cells.VisitPatterns {
		patternTotal += count
	}
	assert.Equal(t, len(visits), patternTotal, "pattern counts must sum to the visit count")
	assert.Equal(t, 2, s.Cells.VisitPatterns["home"])
	assert.Equal(t, 1, s.Cells.VisitPatterns["products"])
	assert.Len(t, s.Cells.VisitPatterns, 3, "at most one pattern entry per distinct page")
}

func TestReduce_UpdateInterests_RatchetSaturates(t *testing.T) {
	s := NewState()

	// Drive a single interest far past the clamp.
	for i := 0; i < 15; i++ {
		s = Reduce(s, UpdateInterests("training"))
	}
	assert.InDelta(t, 1.0, s.Molecules.ContentPriority["training"], 1e-9)

	// Once saturated, reapplying is idempotent.
	saturated := s.Molecules.ContentPriority["training"]
	s = Reduce(s, UpdateInterests("training"))
	assert.Equal(t, saturated, s.Molecules.ContentPriority["training"])

	for _, w := range s.Molecules.ContentPriority {
		assert.LessOrEqual(t, w, 1.0)
		assert.GreaterOrEqual(t, w, 0.0)
	}
}

func TestReduce_UpdateInterests_ReplacesSetButKeepsWeights(t *testing.T) {
	s := NewState()
	s = Reduce(s, UpdateInterests("training", "products"))
	s = Reduce(s, UpdateInterests("franchise"))

	assert.Equal(t, []string{"franchise"}, s.Molecules.Interests)
	// Previously ratcheted weights stay; interests never decay.
	assert.InDelta(t, 0.1, s.Molecules.ContentPriority["training"], 1e-9)
	assert.InDelta(t, 0.1, s.Molecules.ContentPriority["products"], 1e-9)
	assert.InDelta(t, 0.1, s.Molecules.ContentPriority["franchise"], 1e-9)
}

func TestReduce_CoherenceWorkedExample(t *testing.T) {
	// 4 visits + one interest + high engagement => min(0.3+0.3+0.4, 1) = 1.0
	s := NewState()
	for i := 0; i < 4; i++ {
		s = Reduce(s, AddPageVisit(visit("products", time.Second)))
	}
	s = Reduce(s, UpdateInterests("training"))
	s = Reduce(s, UpdateEngagement(EngagementHigh))

	assert.InDelta(t, 1.0, s.Fields.Coherence, 1e-9)
}

func TestReduce_CoherenceIsDeterministic(t *testing.T) {
	cases := []struct {
		name       string
		visits     int
		interests  []string
		engagement EngagementLevel
		want       float64
	}{
		{"fresh low", 0, nil, EngagementLow, 0.2},
		{"fresh medium", 0, nil, EngagementMedium, 0.4},
		{"interests only", 0, []string{"stores"}, EngagementLow, 0.5},
		{"deep visits low", 4, nil, EngagementLow, 0.5},
		{"deep visits medium", 5, []string{"products"}, EngagementMedium, 1.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewState()
			for i := 0; i < tc.visits; i++ {
				s = Reduce(s, AddPageVisit(visit("home", time.Second)))
			}
			if tc.interests != nil {
				s = Reduce(s, UpdateInterests(tc.interests...))
			}
			s = Reduce(s, UpdateEngagement(tc.engagement))

			assert.InDelta(t, tc.want, s.Fields.Coherence, 1e-9)
			assert.GreaterOrEqual(t, s.Fields.Coherence, 0.0)
			assert.LessOrEqual(t, s.Fields.Coherence, 1.0)
		})
	}
}

func TestReduce_LayoutRatchetIsOneWay(t *testing.T) {
	s := NewState()
	require.Equal(t, LayoutNormal, s.Organs.Layout)

	s = Reduce(s, UpdateEngagement(EngagementHigh))
	assert.Equal(t, LayoutExpanded, s.Organs.Layout, "high engagement must expand the layout")

	s = Reduce(s, UpdateEngagement(EngagementLow))
	assert.Equal(t, LayoutExpanded, s.Organs.Layout, "dropping engagement must not collapse the layout")
}

func TestReduce_UnknownActionIsNoop(t *testing.T) {
	s := NewState()
	s = Reduce(s, UpdateInterests("training"))

	before := s
	after := Reduce(s, Action{Type: ActionType("definitely_not_an_action")})

	assert.Equal(t, before.Meta.LastUpdate, after.Meta.LastUpdate, "no timestamp bump on unknown action")
	assert.Equal(t, before.Fields.Coherence, after.Fields.Coherence)
	assert.Equal(t, before.Molecules.Interests, after.Molecules.Interests)
}

func TestReduce_LastUpdateStrictlyIncreases(t *testing.T) {
	s := NewState()
	prev := s.Meta.LastUpdate
	for i := 0; i < 50; i++ {
		s = Reduce(s, UpdateResonance(0.5))
		require.True(t, s.Meta.LastUpdate.After(prev),
			"lastUpdate must strictly increase (iteration %d)", i)
		prev = s.Meta.LastUpdate
	}
}

func TestReduce_ResonanceClamped(t *testing.T) {
	s := NewState()

	s = Reduce(s, UpdateResonance(1.7))
	assert.Equal(t, 1.0, s.Fields.Resonance)

	s = Reduce(s, UpdateResonance(-0.3))
	assert.Equal(t, 0.0, s.Fields.Resonance)
}

func TestReduce_SyncStateMergesSnapshot(t *testing.T) {
	persisted := NewState()
	persisted = Reduce(persisted, UpdateInterests("franchise"))
	persisted = Reduce(persisted, UpdateJourney(StageDecision))

	fresh := NewState()
	merged := Reduce(fresh, SyncState(persisted))

	assert.Equal(t, []string{"franchise"}, merged.Molecules.Interests)
	assert.Equal(t, StageDecision, merged.Fields.Journey)
	assert.Equal(t, SchemaVersion, merged.Meta.SchemaVersion)
	assert.True(t, merged.Meta.LastUpdate.After(fresh.Meta.LastUpdate))
}

func TestReduce_InputStateIsNeverMutated(t *testing.T) {
	s := NewState()
	s = Reduce(s, UpdateInterests("training"))

	interestsBefore := append([]string(nil), s.Molecules.Interests...)
	weightBefore := s.Molecules.ContentPriority["training"]

	_ = Reduce(s, UpdateInterests("training", "products"))
	_ = Reduce(s, AddPageVisit(visit("stores", time.Second)))

	assert.Equal(t, interestsBefore, s.Molecules.Interests)
	assert.Equal(t, weightBefore, s.Molecules.ContentPriority["training"])
	assert.Empty(t, s.Cells.VisitHistory)
}
