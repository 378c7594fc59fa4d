package engine

// ActionType tags an action in the closed transition set. Tags outside this
// set are treated as a no-op by the reducer.
type ActionType string

const (
	ActionUpdateLocation     ActionType = "update_location"
	ActionUpdateInterests    ActionType = "update_interests"
	ActionAddPageVisit       ActionType = "add_page_visit"
	ActionUpdateEngagement   ActionType = "update_engagement"
	ActionSetRecommendations ActionType = "set_recommendations"
	ActionUpdateResonance    ActionType = "update_resonance"
	ActionUpdateJourney      ActionType = "update_journey"
	ActionSyncState          ActionType = "sync_state"
)

// Action is one state transition request. Only the fields relevant to the
// tagged type are read; the rest stay zero.
type Action struct {
	Type ActionType

	Location     *Geo
	NearbyStores []string

	Interests []string

	Visit *PageVisit

	Engagement EngagementLevel

	Recommendations []string

	Resonance float64

	Journey JourneyStage

	// Snapshot is the persisted state to merge on sync_state.
	Snapshot *State
}

// UpdateLocation sets the visitor location and nearby stores.
func UpdateLocation(loc Geo, nearbyStores []string) Action {
	return Action{Type: ActionUpdateLocation, Location: &loc, NearbyStores: nearbyStores}
}

// UpdateInterests replaces the interest set and ratchets priority weights.
func UpdateInterests(interests ...string) Action {
	return Action{Type: ActionUpdateInterests, Interests: interests}
}

// AddPageVisit appends a visit record.
func AddPageVisit(v PageVisit) Action {
	return Action{Type: ActionAddPageVisit, Visit: &v}
}

// UpdateEngagement sets the engagement level.
func UpdateEngagement(level EngagementLevel) Action {
	return Action{Type: ActionUpdateEngagement, Engagement: level}
}

// SetRecommendations replaces the recommendation list.
func SetRecommendations(recs []string) Action {
	return Action{Type: ActionSetRecommendations, Recommendations: recs}
}

// UpdateResonance sets the resonance score (clamped to [0,1] by the reducer).
func UpdateResonance(score float64) Action {
	return Action{Type: ActionUpdateResonance, Resonance: score}
}

// UpdateJourney advances the journey stage.
func UpdateJourney(stage JourneyStage) Action {
	return Action{Type: ActionUpdateJourney, Journey: stage}
}

// SyncState merges a persisted snapshot into the live state.
func SyncState(snapshot State) Action {
	return Action{Type: ActionSyncState, Snapshot: &snapshot}
}
