package persist

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cuepoint/internal/engine"
)

func setupStore(t *testing.T) (*SnapshotStore, *sql.DB) {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewSnapshotStore(db)
	require.NoError(t, err)
	return store, db
}

func TestSnapshotRoundTrip(t *testing.T) {
	store, _ := setupStore(t)

	state := engine.NewState()
	state = engine.Reduce(state, engine.UpdateInterests("training", "products"))
	state = engine.Reduce(state, engine.AddPageVisit(engine.PageVisit{
		Page: "training", Timestamp: time.Now(), Duration: 20 * time.Second,
	}))
	state = engine.Reduce(state, engine.UpdateEngagement(engine.EngagementHigh))
	state = engine.Reduce(state, engine.UpdateJourney(engine.StageConsideration))

	require.NoError(t, store.SaveSnapshot("sess-1", state))

	loaded, ok := store.LoadSnapshot("sess-1")
	require.True(t, ok)

	// Timestamps survive JSON with reduced monotonic-clock detail, so compare
	// times by instant rather than representation.
	diff := cmp.Diff(state, loaded, cmpopts.EquateApproxTime(time.Millisecond))
	assert.Empty(t, diff)

	// The priority map must come back as a native map with weights intact.
	assert.InDelta(t, 0.1, loaded.Molecules.ContentPriority["training"], 1e-9)
}

func TestSnapshotUpsertOverwrites(t *testing.T) {
	store, _ := setupStore(t)

	s1 := engine.NewState()
	require.NoError(t, store.SaveSnapshot("sess-1", s1))

	s2 := engine.Reduce(s1, engine.UpdateJourney(engine.StageDecision))
	require.NoError(t, store.SaveSnapshot("sess-1", s2))

	loaded, ok := store.LoadSnapshot("sess-1")
	require.True(t, ok)
	assert.Equal(t, engine.StageDecision, loaded.Fields.Journey)
}

func TestLoadSnapshot_MissingSession(t *testing.T) {
	store, _ := setupStore(t)

	_, ok := store.LoadSnapshot("nobody")
	assert.False(t, ok)
}

func TestLoadSnapshot_CorruptPayloadFallsBack(t *testing.T) {
	store, db := setupStore(t)

	_, err := db.Exec(
		`INSERT INTO context_snapshots (session_id, schema_version, payload, updated_at)
		 VALUES (?, ?, ?, ?)`,
		"sess-bad", engine.SchemaVersion, "{not json", time.Now().UnixMilli(),
	)
	require.NoError(t, err)

	_, ok := store.LoadSnapshot("sess-bad")
	assert.False(t, ok, "corrupt snapshot must be discarded, not surfaced")
}

func TestLoadSnapshot_SchemaMismatchDiscarded(t *testing.T) {
	store, db := setupStore(t)

	state := engine.NewState()
	payload, err := encodeState(state)
	require.NoError(t, err)

	_, err = db.Exec(
		`INSERT INTO context_snapshots (session_id, schema_version, payload, updated_at)
		 VALUES (?, ?, ?, ?)`,
		"sess-old", engine.SchemaVersion+40, payload, time.Now().UnixMilli(),
	)
	require.NoError(t, err)

	_, ok := store.LoadSnapshot("sess-old")
	assert.False(t, ok, "snapshots with a different schema version have no migration path")
}

func TestDecodeState_NormalizesNilContainers(t *testing.T) {
	state, err := decodeState([]byte(`{"meta":{"schemaVersion":1}}`))
	require.NoError(t, err)

	assert.NotNil(t, state.Molecules.ContentPriority)
	assert.NotNil(t, state.Molecules.Interests)
	assert.NotNil(t, state.Cells.VisitPatterns)
	assert.NotNil(t, state.Cells.VisitHistory)
	assert.NotNil(t, state.Organs.Recommendations)
}

func TestDelete(t *testing.T) {
	store, _ := setupStore(t)

	require.NoError(t, store.SaveSnapshot("sess-1", engine.NewState()))
	require.NoError(t, store.Delete("sess-1"))

	_, ok := store.LoadSnapshot("sess-1")
	assert.False(t, ok)
}
