package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cuepoint/internal/engine"
)

func baseState() engine.State {
	return engine.NewState()
}

func TestRank_InterestMatchOutranksEqualBase(t *testing.T) {
	modules := []Module{
		{ID: "a", Category: CategoryProducts, BasePriority: 0.5},
		{ID: "b", Category: CategoryTraining, BasePriority: 0.5},
	}

	state := baseState()
	state = engine.Reduce(state, engine.UpdateInterests(CategoryTraining))

	ranked := Rank(modules, state)
	require.Len(t, ranked, 2)

	posOf := func(id string) int {
		for i, r := range ranked {
			if r.ID == id {
				return i
			}
		}
		t.Fatalf("module %s missing from ranking", id)
		return -1
	}
	assert.LessOrEqual(t, posOf("b"), posOf("a"),
		"interest-matching module must rank at or above the non-matching one")
}

func TestRank_ScoresStayInUnitInterval(t *testing.T) {
	modules := []Module{
		{ID: "hot", Category: CategoryTraining, BasePriority: 1.0},
		{ID: "cold", Category: CategoryContact, BasePriority: 0.05},
	}

	state := baseState()
	state = engine.Reduce(state, engine.UpdateInterests(CategoryTraining))
	state = engine.Reduce(state, engine.UpdateEngagement(engine.EngagementHigh))
	state = engine.Reduce(state, engine.UpdateResonance(1.0))

	for _, r := range Rank(modules, state) {
		assert.GreaterOrEqual(t, r.DynamicPriority, 0.0, "module %s", r.ID)
		assert.LessOrEqual(t, r.DynamicPriority, 1.0, "module %s", r.ID)
	}
}

func TestRank_FloorAtZero(t *testing.T) {
	// High engagement penalizes onboarding categories; a tiny base priority
	// would go negative without the floor.
	modules := []Module{{ID: "cta", Category: CategoryContact, BasePriority: 0.05}}

	state := baseState()
	state = engine.Reduce(state, engine.UpdateEngagement(engine.EngagementHigh))

	ranked := Rank(modules, state)
	assert.Equal(t, 0.0, ranked[0].DynamicPriority)
}

func TestRank_TiesKeepCatalogOrder(t *testing.T) {
	modules := []Module{
		{ID: "first", Category: CategoryPromotions, BasePriority: 0.4},
		{ID: "second", Category: CategoryPromotions, BasePriority: 0.4},
		{ID: "third", Category: CategoryPromotions, BasePriority: 0.4},
	}

	ranked := Rank(modules, baseState())
	require.Len(t, ranked, 3)
	assert.Equal(t, "first", ranked[0].ID)
	assert.Equal(t, "second", ranked[1].ID)
	assert.Equal(t, "third", ranked[2].ID)
}

func TestScore_BlendWithPriorityMap(t *testing.T) {
	m := Module{ID: "x", Category: CategoryProducts, BasePriority: 0.8}

	state := baseState()
	state.Molecules.ContentPriority[CategoryProducts] = 0.2

	// awareness journey boost for products is 0.15; no interest match, no
	// engagement swing at default low (products is deep: -0.2), resonance 0.
	// blend: 0.5*0.8 + 0.5*0.2 = 0.5; +0.15 - 0.2 = 0.45
	got := score(m, state)
	assert.InDelta(t, 0.45, got, 1e-9)
}

func TestScore_ResonanceScalesResult(t *testing.T) {
	m := Module{ID: "x", Category: CategoryPromotions, BasePriority: 0.4}

	plain := baseState()
	resonant := baseState()
	resonant = engine.Reduce(resonant, engine.UpdateResonance(1.0))

	assert.Greater(t, score(m, resonant), score(m, plain))
}

func TestJourneyBoostTableBounds(t *testing.T) {
	for stage, byCategory := range journeyBoost {
		assert.Len(t, byCategory, 6, "stage %s must cover all six categories", stage)
		for category, boost := range byCategory {
			assert.GreaterOrEqual(t, boost, 0.0, "%s/%s", stage, category)
			assert.LessOrEqual(t, boost, 0.3, "%s/%s", stage, category)
		}
	}
	assert.Len(t, journeyBoost, 4, "table must cover all four journey stages")
}
