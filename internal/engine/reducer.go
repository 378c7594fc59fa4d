package engine

import (
	"time"
)

// interestStep is the fixed ratchet applied to a category's priority weight
// each time it appears in an interest update. Weights only ever go up until
// they saturate at 1; there is no decay.
const interestStep = 0.1

// Reduce is the pure state transition function. It never mutates its input
// and never fails: an unknown action tag returns the input unchanged.
// Every real transition recomputes coherence and strictly bumps LastUpdate.
func Reduce(s State, a Action) State {
	next := s.Clone()

	switch a.Type {
	case ActionUpdateLocation:
		if a.Location != nil {
			loc := *a.Location
			next.Atoms.Location = &loc
		}
		if a.NearbyStores != nil {
			next.Molecules.NearbyStores = append([]string(nil), a.NearbyStores...)
		}

	case ActionUpdateInterests:
		next.Molecules.Interests = append([]string(nil), a.Interests...)
		for _, interest := range a.Interests {
			next.Molecules.ContentPriority[interest] = clamp01(next.Molecules.ContentPriority[interest] + interestStep)
		}

	case ActionAddPageVisit:
		if a.Visit == nil {
			return s
		}
		next.Cells.VisitHistory = append(next.Cells.VisitHistory, *a.Visit)
		next.Cells.SessionDuration += a.Visit.Duration
		next.Cells.VisitPatterns = rebuildPatterns(next.Cells.VisitHistory)

	case ActionUpdateEngagement:
		next.Cells.Engagement = a.Engagement
		next.Organs.Layout = layoutFor(next.Organs.Layout, a.Engagement)

	case ActionSetRecommendations:
		next.Organs.Recommendations = append([]string(nil), a.Recommendations...)

	case ActionUpdateResonance:
		next.Fields.Resonance = clamp01(a.Resonance)

	case ActionUpdateJourney:
		next.Fields.Journey = a.Journey

	case ActionSyncState:
		if a.Snapshot == nil {
			return s
		}
		next = a.Snapshot.Clone()
		next.Meta.SchemaVersion = SchemaVersion

	default:
		// Unknown tag: no-op, no coherence recompute, no timestamp bump.
		return s
	}

	next.Fields.Coherence = coherence(next)
	next.Meta.LastUpdate = bumpTimestamp(s.Meta.LastUpdate)
	return next
}

// rebuildPatterns rebuilds the per-page frequency table from scratch.
// Linear in visit count, which is fine for short-lived sessions.
func rebuildPatterns(visits []PageVisit) map[string]int {
	patterns := make(map[string]int, len(visits))
	for _, v := range visits {
		patterns[v.Page]++
	}
	return patterns
}

// coherence derives the session coherence score from visit depth, interest
// presence, and engagement. Fixed linear rule, not adaptive:
//
//	0.3 if more than 3 visits
//	0.3 if any interests inferred
//	0.4 * engagement weight (low=0.5, medium=1, high=1)
func coherence(s State) float64 {
	score := 0.0
	if len(s.Cells.VisitHistory) > 3 {
		score += 0.3
	}
	if len(s.Molecules.Interests) > 0 {
		score += 0.3
	}
	score += 0.4 * engagementWeight(s.Cells.Engagement)
	return clamp01(score)
}

func engagementWeight(level EngagementLevel) float64 {
	switch level {
	case EngagementLow:
		return 0.5
	case EngagementMedium, EngagementHigh:
		return 1.0
	default:
		return 0.0
	}
}

// layoutFor is the derived-state rule for the adaptive layout. Reaching high
// engagement expands the layout and nothing ever collapses it back; the
// ratchet is deliberate and covered by tests.
func layoutFor(current LayoutMode, level EngagementLevel) LayoutMode {
	if level == EngagementHigh {
		return LayoutExpanded
	}
	return current
}

// bumpTimestamp returns a timestamp strictly after prev, so LastUpdate is
// strictly increasing even when transitions land inside one clock tick.
func bumpTimestamp(prev time.Time) time.Time {
	now := time.Now()
	if !now.After(prev) {
		return prev.Add(time.Nanosecond)
	}
	return now
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
