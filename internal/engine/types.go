// Package engine implements the visitor context engine: a layered session
// state snapshot mutated through a closed action set, with derived coherence
// and engagement signals that drive content prioritization.
//
// The state is organized in five semantic layers:
//   - Atoms: per-session facts (device class, first visit, locale, location)
//   - Molecules: derived aggregates (nearby stores, interests, content priority map)
//   - Cells: behavioral history (visits, visit patterns, engagement)
//   - Organs: UI-affecting derived state (recommendations, layout mode)
//   - Fields: scalar scores (resonance, coherence, intention, journey stage)
package engine

import "time"

// SchemaVersion is the current snapshot schema version. Snapshots persisted
// with a different version are discarded on load (no migration path).
const SchemaVersion = 1

// DeviceClass is a coarse device classification.
type DeviceClass string

const (
	DeviceMobile  DeviceClass = "mobile"
	DeviceTablet  DeviceClass = "tablet"
	DeviceDesktop DeviceClass = "desktop"
	DeviceUnknown DeviceClass = "unknown"
)

// EngagementLevel is a coarse classification of visitor engagement.
type EngagementLevel string

const (
	EngagementLow    EngagementLevel = "low"
	EngagementMedium EngagementLevel = "medium"
	EngagementHigh   EngagementLevel = "high"
)

// JourneyStage models the visitor funnel position.
type JourneyStage string

const (
	StageAwareness     JourneyStage = "awareness"
	StageInterest      JourneyStage = "interest"
	StageConsideration JourneyStage = "consideration"
	StageDecision      JourneyStage = "decision"
)

// Intention is the inferred visit intention.
type Intention string

const (
	IntentionBrowsing    Intention = "browsing"
	IntentionResearching Intention = "researching"
	IntentionPurchasing  Intention = "purchasing"
	IntentionUnknown     Intention = "unknown"
)

// LayoutMode is the adaptive layout hint surfaced to the UI.
type LayoutMode string

const (
	LayoutNormal   LayoutMode = "normal"
	LayoutExpanded LayoutMode = "expanded"
)

// Geo is an optional coarse geolocation.
type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PageVisit is an immutable, append-only visit record.
type PageVisit struct {
	Page      string        `json:"page"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
}

// Atoms are per-session facts established at session start.
type Atoms struct {
	Device     DeviceClass `json:"device"`
	FirstVisit bool        `json:"firstVisit"`
	Locale     string      `json:"locale"`
	Location   *Geo        `json:"location,omitempty"`
}

// Molecules are derived aggregates built up during the session.
type Molecules struct {
	NearbyStores []string `json:"nearbyStores"`
	Interests    []string `json:"interests"`
	// ContentPriority maps a content category to a weight in [0,1].
	// In-memory it is always a native map; the persistence layer owns
	// the flat wire representation.
	ContentPriority map[string]float64 `json:"contentPriority"`
}

// Cells accumulate behavioral history.
type Cells struct {
	VisitHistory []PageVisit `json:"visitHistory"`
	// VisitPatterns holds at most one entry per distinct page; counts are
	// non-decreasing within a session.
	VisitPatterns   map[string]int  `json:"visitPatterns"`
	SessionDuration time.Duration   `json:"sessionDuration"`
	Engagement      EngagementLevel `json:"engagement"`
}

// Organs hold UI-affecting derived state.
type Organs struct {
	Recommendations []string   `json:"recommendations"`
	Layout          LayoutMode `json:"layout"`
}

// Fields hold the scalar scores recomputed on every transition.
type Fields struct {
	Resonance float64      `json:"resonance"` // [0,1]
	Coherence float64      `json:"coherence"` // [0,1], recomputed every update
	Intention Intention    `json:"intention"`
	Journey   JourneyStage `json:"journey"`
}

// Meta carries snapshot bookkeeping.
type Meta struct {
	SchemaVersion int       `json:"schemaVersion"`
	LastUpdate    time.Time `json:"lastUpdate"`
}

// State is the full context snapshot for one visitor session.
type State struct {
	Atoms     Atoms     `json:"atoms"`
	Molecules Molecules `json:"molecules"`
	Cells     Cells     `json:"cells"`
	Organs    Organs    `json:"organs"`
	Fields    Fields    `json:"fields"`
	Meta      Meta      `json:"meta"`
}

// NewState returns the default state for a fresh session.
func NewState() State {
	return State{
		Atoms: Atoms{
			Device:     DeviceUnknown,
			FirstVisit: true,
			Locale:     "en",
		},
		Molecules: Molecules{
			NearbyStores:    []string{},
			Interests:       []string{},
			ContentPriority: map[string]float64{},
		},
		Cells: Cells{
			VisitHistory:  []PageVisit{},
			VisitPatterns: map[string]int{},
			Engagement:    EngagementLow,
		},
		Organs: Organs{
			Recommendations: []string{},
			Layout:          LayoutNormal,
		},
		Fields: Fields{
			Intention: IntentionUnknown,
			Journey:   StageAwareness,
		},
		Meta: Meta{
			SchemaVersion: SchemaVersion,
			LastUpdate:    time.Now(),
		},
	}
}

// Clone returns a deep copy of the state. Reference fields (slices, maps)
// are copied so callers can never alias the store's internal snapshot.
func (s State) Clone() State {
	out := s

	if s.Atoms.Location != nil {
		loc := *s.Atoms.Location
		out.Atoms.Location = &loc
	}

	out.Molecules.NearbyStores = append([]string(nil), s.Molecules.NearbyStores...)
	out.Molecules.Interests = append([]string(nil), s.Molecules.Interests...)
	out.Molecules.ContentPriority = make(map[string]float64, len(s.Molecules.ContentPriority))
	for k, v := range s.Molecules.ContentPriority {
		out.Molecules.ContentPriority[k] = v
	}

	out.Cells.VisitHistory = append([]PageVisit(nil), s.Cells.VisitHistory...)
	out.Cells.VisitPatterns = make(map[string]int, len(s.Cells.VisitPatterns))
	for k, v := range s.Cells.VisitPatterns {
		out.Cells.VisitPatterns[k] = v
	}

	out.Organs.Recommendations = append([]string(nil), s.Organs.Recommendations...)

	return out
}

// HasInterest reports whether the given category is in the interest set.
func (s State) HasInterest(category string) bool {
	for _, i := range s.Molecules.Interests {
		if i == category {
			return true
		}
	}
	return false
}
