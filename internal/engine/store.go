package engine

import (
	"sync"

	"cuepoint/internal/logging"
)

// Saver persists a session snapshot after each transition. Persistence is a
// side effect with no acknowledgement: a failing save is logged and the
// in-memory state stays authoritative.
type Saver interface {
	SaveSnapshot(sessionID string, s State) error
}

// Subscriber receives a copy of the state after every real transition.
type Subscriber func(State)

// Store owns the context state for one visitor session. It is the only
// mutation path: Dispatch runs the reducer, persists the result, and
// broadcasts to subscribers. Constructed once per session and passed by
// reference; there are no ambient globals.
type Store struct {
	mu        sync.Mutex
	sessionID string
	state     State
	saver     Saver
	subs      []Subscriber
}

// NewStore creates a store with default state.
func NewStore(sessionID string, saver Saver) *Store {
	return &Store{
		sessionID: sessionID,
		state:     NewState(),
		saver:     saver,
	}
}

// SessionID returns the owning session id.
func (st *Store) SessionID() string {
	return st.sessionID
}

// Subscribe registers a subscriber for state broadcasts. Subscribers are
// invoked synchronously, in registration order, outside the state lock.
func (st *Store) Subscribe(fn Subscriber) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.subs = append(st.subs, fn)
}

// Dispatch applies one action and returns the resulting state. Unknown
// actions leave the state untouched and trigger neither persistence nor
// broadcast. The snapshot is saved while the lock is held, so persisted
// states always land in dispatch order; only the broadcast runs outside.
func (st *Store) Dispatch(a Action) State {
	st.mu.Lock()
	prev := st.state
	next := Reduce(prev, a)
	changed := !next.Meta.LastUpdate.Equal(prev.Meta.LastUpdate)
	if changed {
		st.state = next
		if st.saver != nil {
			if err := st.saver.SaveSnapshot(st.sessionID, next); err != nil {
				logging.Get(logging.CategoryEngine).Error("session %s: snapshot save failed: %v", st.sessionID, err)
			}
		}
	}
	subs := st.subs
	st.mu.Unlock()

	if !changed {
		logging.EngineDebug("session %s: action %q ignored", st.sessionID, a.Type)
		return next.Clone()
	}

	snapshot := next.Clone()
	for _, fn := range subs {
		fn(snapshot.Clone())
	}
	return snapshot
}

// State returns a copy of the current state.
func (st *Store) State() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state.Clone()
}

// RefreshRecommendations recomputes the recommendation list from the current
// journey stage and interests and stores it via the normal action path.
func (st *Store) RefreshRecommendations() State {
	current := st.State()
	recs := Recommend(current.Fields.Journey, current.Molecules.Interests)
	return st.Dispatch(SetRecommendations(recs))
}
