package persist

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"cuepoint/internal/engine"
	"cuepoint/internal/logging"
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS context_snapshots (
	session_id     TEXT PRIMARY KEY,
	schema_version INTEGER NOT NULL,
	payload        TEXT NOT NULL,
	updated_at     INTEGER NOT NULL
);
`

// SnapshotStore persists context states per session. It implements
// engine.Saver. A snapshot that cannot be decoded, or that carries a
// different schema version, is discarded: the session simply starts from
// defaults. There is no migration path.
type SnapshotStore struct {
	db *sql.DB
}

// NewSnapshotStore creates the snapshot table if needed.
func NewSnapshotStore(db *sql.DB) (*SnapshotStore, error) {
	if _, err := db.Exec(snapshotSchema); err != nil {
		return nil, fmt.Errorf("failed to create snapshot schema: %w", err)
	}
	return &SnapshotStore{db: db}, nil
}

// SaveSnapshot serializes the state and upserts it under the session id.
func (s *SnapshotStore) SaveSnapshot(sessionID string, state engine.State) error {
	payload, err := encodeState(state)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO context_snapshots (session_id, schema_version, payload, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   schema_version = excluded.schema_version,
		   payload        = excluded.payload,
		   updated_at     = excluded.updated_at`,
		sessionID, state.Meta.SchemaVersion, payload, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the persisted state for the session, or ok=false when
// no usable snapshot exists. Corruption and schema mismatches are logged and
// swallowed, never surfaced.
func (s *SnapshotStore) LoadSnapshot(sessionID string) (engine.State, bool) {
	var version int
	var payload string
	err := s.db.QueryRow(
		`SELECT schema_version, payload FROM context_snapshots WHERE session_id = ?`,
		sessionID,
	).Scan(&version, &payload)
	if err == sql.ErrNoRows {
		return engine.State{}, false
	}
	if err != nil {
		logging.Get(logging.CategoryStore).Error("snapshot read failed for %s: %v", sessionID, err)
		return engine.State{}, false
	}

	if version != engine.SchemaVersion {
		logging.Get(logging.CategoryStore).Warn(
			"discarding snapshot for %s: schema version %d, want %d", sessionID, version, engine.SchemaVersion)
		return engine.State{}, false
	}

	state, err := decodeState([]byte(payload))
	if err != nil {
		logging.Get(logging.CategoryStore).Warn("discarding corrupt snapshot for %s: %v", sessionID, err)
		return engine.State{}, false
	}
	return state, true
}

// Delete removes the snapshot for a session.
func (s *SnapshotStore) Delete(sessionID string) error {
	if _, err := s.db.Exec(`DELETE FROM context_snapshots WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// encodeState is the single place states become wire bytes. The priority map
// serializes as a plain JSON object, which is the canonical wire form.
func encodeState(state engine.State) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeState is the single place wire bytes become states. JSON null maps
// and slices are normalized back to the canonical in-memory containers so
// downstream code never sees nils.
func decodeState(data []byte) (engine.State, error) {
	var state engine.State
	if err := json.Unmarshal(data, &state); err != nil {
		return engine.State{}, err
	}
	if state.Meta.SchemaVersion != engine.SchemaVersion {
		return engine.State{}, fmt.Errorf("schema version %d not supported", state.Meta.SchemaVersion)
	}

	if state.Molecules.ContentPriority == nil {
		state.Molecules.ContentPriority = map[string]float64{}
	}
	if state.Molecules.Interests == nil {
		state.Molecules.Interests = []string{}
	}
	if state.Molecules.NearbyStores == nil {
		state.Molecules.NearbyStores = []string{}
	}
	if state.Cells.VisitPatterns == nil {
		state.Cells.VisitPatterns = map[string]int{}
	}
	if state.Cells.VisitHistory == nil {
		state.Cells.VisitHistory = []engine.PageVisit{}
	}
	if state.Organs.Recommendations == nil {
		state.Organs.Recommendations = []string{}
	}
	return state, nil
}
