package engine

// maxRecommendations caps the suggestion list handed to the UI.
const maxRecommendations = 3

// stageSuggestions are the fixed per-stage phrases, in display order.
var stageSuggestions = map[JourneyStage][]string{
	StageAwareness: {
		"Browse our best-selling cue collections",
		"Find a store near you",
	},
	StageInterest: {
		"Compare cue series side by side",
		"Book a free trial training session",
	},
	StageConsideration: {
		"Talk to an equipment specialist",
		"Check current store promotions",
	},
	StageDecision: {
		"Book an in-store fitting appointment",
		"Reserve your cue at the nearest store",
	},
}

// interestSuggestions map an inferred interest to one follow-up phrase.
var interestSuggestions = map[string]string{
	"training":  "See this month's coaching schedule",
	"products":  "View the new arrivals catalog",
	"stores":    "Get directions to your nearest store",
	"franchise": "Request the franchise prospectus",
}

// Recommend maps the journey stage and interest set to at most three
// suggestion strings. Pure and deterministic: fixed per-stage phrases first,
// then up to two interest-conditioned additions, truncated to the cap.
func Recommend(stage JourneyStage, interests []string) []string {
	recs := append([]string(nil), stageSuggestions[stage]...)

	added := 0
	for _, interest := range interests {
		if added >= 2 {
			break
		}
		phrase, ok := interestSuggestions[interest]
		if !ok {
			continue
		}
		if contains(recs, phrase) {
			continue
		}
		recs = append(recs, phrase)
		added++
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
