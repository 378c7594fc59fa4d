// Package cms implements the editable site-copy store: dotted-key content
// entries in SQLite with get/set/batch/reset and plain-JSON export/import.
package cms

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"cuepoint/internal/logging"
)

// Entry types. Everything the site edits is one of these.
const (
	TypeText     = "text"
	TypeRichText = "richtext"
	TypeImage    = "image"
	TypeVideo    = "video"
)

const cmsSchema = `
CREATE TABLE IF NOT EXISTS content_entries (
	id         TEXT PRIMARY KEY,
	key        TEXT NOT NULL UNIQUE,
	type       TEXT NOT NULL,
	value      TEXT NOT NULL,
	label      TEXT,
	category   TEXT,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_content_entries_category ON content_entries(category);
`

// Entry is one editable piece of site copy, addressed by a dotted key such
// as "home.hero.title".
type Entry struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Type      string    `json:"type"`
	Value     string    `json:"value"`
	Label     string    `json:"label"`
	Category  string    `json:"category"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// exportedEntry is the wire form used by Export/Import. Ids and timestamps
// stay out of the export so a round trip is stable across stores.
type exportedEntry struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Label    string `json:"label"`
	Category string `json:"category"`
}

// Store is the SQLite-backed content store.
type Store struct {
	db    *sql.DB
	seeds []Entry
}

// NewStore creates the content table and seeds it when empty.
func NewStore(db *sql.DB, seeds []Entry) (*Store, error) {
	if _, err := db.Exec(cmsSchema); err != nil {
		return nil, fmt.Errorf("failed to create cms schema: %w", err)
	}

	s := &Store{db: db, seeds: seeds}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM content_entries`).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count content entries: %w", err)
	}
	if count == 0 && len(seeds) > 0 {
		if err := s.SetBatch(seeds); err != nil {
			return nil, fmt.Errorf("failed to seed content: %w", err)
		}
		logging.CMS("seeded %d content entries", len(seeds))
	}
	return s, nil
}

// Get returns the entry for a key. ok is false when the key is unknown.
func (s *Store) Get(key string) (Entry, bool, error) {
	var e Entry
	var updatedAt int64
	err := s.db.QueryRow(
		`SELECT id, key, type, value, label, category, updated_at
		 FROM content_entries WHERE key = ?`, key,
	).Scan(&e.ID, &e.Key, &e.Type, &e.Value, &e.Label, &e.Category, &updatedAt)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read content entry: %w", err)
	}
	e.UpdatedAt = time.UnixMilli(updatedAt)
	return e, true, nil
}

// All returns every entry, optionally filtered by category, sorted by key.
func (s *Store) All(category string) ([]Entry, error) {
	query := `SELECT id, key, type, value, label, category, updated_at FROM content_entries`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY key ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list content entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var updatedAt int64
		if err := rows.Scan(&e.ID, &e.Key, &e.Type, &e.Value, &e.Label, &e.Category, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan content entry: %w", err)
		}
		e.UpdatedAt = time.UnixMilli(updatedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Set upserts one entry by key. Missing ids get a fresh uuid; a missing type
// defaults to text. UpdatedAt always bumps to now.
func (s *Store) Set(e Entry) error {
	return s.execSet(s.db, e)
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func (s *Store) execSet(ex execer, e Entry) error {
	if e.Key == "" {
		return fmt.Errorf("content key is required")
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Type == "" {
		e.Type = TypeText
	}
	if e.Category == "" {
		// Dotted keys carry their section as the first segment.
		e.Category = strings.SplitN(e.Key, ".", 2)[0]
	}

	_, err := ex.Exec(
		`INSERT INTO content_entries (id, key, type, value, label, category, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   type       = excluded.type,
		   value      = excluded.value,
		   label      = excluded.label,
		   category   = excluded.category,
		   updated_at = excluded.updated_at`,
		e.ID, e.Key, e.Type, e.Value, e.Label, e.Category, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert content entry %q: %w", e.Key, err)
	}
	return nil
}

// SetBatch upserts entries in a single transaction.
func (s *Store) SetBatch(entries []Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		if err := s.execSet(tx, e); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Reset drops every entry and restores the seed set.
func (s *Store) Reset() error {
	if _, err := s.db.Exec(`DELETE FROM content_entries`); err != nil {
		return fmt.Errorf("failed to clear content entries: %w", err)
	}
	if err := s.SetBatch(s.seeds); err != nil {
		return err
	}
	logging.CMS("content reset to %d seed entries", len(s.seeds))
	return nil
}

// Export serializes every entry to a plain JSON object keyed by dotted key.
func (s *Store) Export() ([]byte, error) {
	entries, err := s.All("")
	if err != nil {
		return nil, err
	}

	out := make(map[string]exportedEntry, len(entries))
	for _, e := range entries {
		out[e.Key] = exportedEntry{
			Type:     e.Type,
			Value:    e.Value,
			Label:    e.Label,
			Category: e.Category,
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

// Import applies a previously exported JSON object as one batch upsert.
// Keys are applied in sorted order so imports are deterministic.
func (s *Store) Import(data []byte) error {
	var in map[string]exportedEntry
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to parse content import: %w", err)
	}

	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(in))
	for _, k := range keys {
		e := in[k]
		entries = append(entries, Entry{
			Key:      k,
			Type:     e.Type,
			Value:    e.Value,
			Label:    e.Label,
			Category: e.Category,
		})
	}

	if err := s.SetBatch(entries); err != nil {
		return err
	}
	logging.CMS("imported %d content entries", len(entries))
	return nil
}
