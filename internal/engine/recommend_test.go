package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommend_CapsAtThree(t *testing.T) {
	recs := Recommend(StageInterest, []string{"training", "products", "stores", "franchise"})
	assert.Len(t, recs, 3)
}

func TestRecommend_StagePhrasesComeFirst(t *testing.T) {
	recs := Recommend(StageDecision, nil)
	assert.Equal(t, []string{
		"Book an in-store fitting appointment",
		"Reserve your cue at the nearest store",
	}, recs)
}

func TestRecommend_InterestConditionedAdditions(t *testing.T) {
	recs := Recommend(StageAwareness, []string{"franchise"})
	assert.Contains(t, recs, "Request the franchise prospectus")
	assert.LessOrEqual(t, len(recs), 3)
}

func TestRecommend_UnknownInterestsIgnored(t *testing.T) {
	base := Recommend(StageAwareness, nil)
	withUnknown := Recommend(StageAwareness, []string{"zeppelins"})
	assert.Equal(t, base, withUnknown)
}

func TestRecommend_Deterministic(t *testing.T) {
	a := Recommend(StageConsideration, []string{"training"})
	b := Recommend(StageConsideration, []string{"training"})
	assert.Equal(t, a, b)
}
