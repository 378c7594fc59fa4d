package content

import (
	"sort"

	"cuepoint/internal/engine"
	"cuepoint/internal/logging"
)

// Scoring constants. The journey table and bucket adjustment are fixed
// heuristics, not learned weights.
const (
	interestBoost   = 0.3
	blendFactor     = 0.5
	engagementSwing = 0.2
	resonanceScale  = 0.1
)

// deepCategories reward an already engaged visitor; onboardingCategories
// ease a low-engagement visitor in.
var deepCategories = map[string]bool{
	CategoryTraining:  true,
	CategoryFranchise: true,
	CategoryProducts:  true,
}

var onboardingCategories = map[string]bool{
	CategoryStores:     true,
	CategoryPromotions: true,
	CategoryContact:    true,
}

// journeyBoost maps journey stage x category to an additive bonus in [0,0.3].
var journeyBoost = map[engine.JourneyStage]map[string]float64{
	engine.StageAwareness: {
		CategoryProducts:   0.15,
		CategoryStores:     0.20,
		CategoryTraining:   0.10,
		CategoryFranchise:  0.00,
		CategoryPromotions: 0.25,
		CategoryContact:    0.00,
	},
	engine.StageInterest: {
		CategoryProducts:   0.25,
		CategoryStores:     0.10,
		CategoryTraining:   0.20,
		CategoryFranchise:  0.05,
		CategoryPromotions: 0.15,
		CategoryContact:    0.00,
	},
	engine.StageConsideration: {
		CategoryProducts:   0.20,
		CategoryStores:     0.15,
		CategoryTraining:   0.25,
		CategoryFranchise:  0.15,
		CategoryPromotions: 0.10,
		CategoryContact:    0.10,
	},
	engine.StageDecision: {
		CategoryProducts:   0.10,
		CategoryStores:     0.30,
		CategoryTraining:   0.15,
		CategoryFranchise:  0.20,
		CategoryPromotions: 0.05,
		CategoryContact:    0.30,
	},
}

// Ranked pairs a module with its computed dynamic priority.
type Ranked struct {
	Module
	DynamicPriority float64 `json:"dynamicPriority"`
}

// Rank scores every module against the visitor context and returns them
// sorted by descending dynamic priority. The sort is stable, so modules with
// equal scores keep their catalog order. Scores are clamped to [0,1]; the
// floor at 0 is deliberate so an unfavorable stack of adjustments cannot
// push a module below "lowest priority".
func Rank(modules []Module, state engine.State) []Ranked {
	timer := logging.StartTimer(logging.CategoryContent, "Rank")
	defer timer.Stop()

	ranked := make([]Ranked, 0, len(modules))
	for _, m := range modules {
		ranked = append(ranked, Ranked{
			Module:          m,
			DynamicPriority: score(m, state),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DynamicPriority > ranked[j].DynamicPriority
	})
	return ranked
}

// score computes the dynamic priority for one module:
//
//  1. start from the static base priority
//  2. +0.3 when the category matches a visitor interest
//  3. blend 50/50 with the context priority-map entry, when present
//  4. add the journey-stage bonus for the category
//  5. +-0.2 by engagement bucket (high favors deep, low favors onboarding)
//  6. scale by (1 + 0.1*resonance)
//  7. clamp to [0,1]
func score(m Module, state engine.State) float64 {
	priority := m.BasePriority

	if state.HasInterest(m.Category) {
		priority += interestBoost
	}

	if mapped, ok := state.Molecules.ContentPriority[m.Category]; ok {
		priority = blendFactor*priority + blendFactor*mapped
	}

	priority += journeyBoost[state.Fields.Journey][m.Category]
	priority += engagementAdjustment(state.Cells.Engagement, m.Category)
	priority *= 1 + resonanceScale*state.Fields.Resonance

	return clamp01(priority)
}

func engagementAdjustment(level engine.EngagementLevel, category string) float64 {
	switch level {
	case engine.EngagementHigh:
		if deepCategories[category] {
			return engagementSwing
		}
		if onboardingCategories[category] {
			return -engagementSwing
		}
	case engine.EngagementLow:
		if onboardingCategories[category] {
			return engagementSwing
		}
		if deepCategories[category] {
			return -engagementSwing
		}
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
