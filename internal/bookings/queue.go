// Package bookings implements the store-and-forward booking queue: direct
// CRM delivery when the endpoint is reachable, durable local queuing and
// periodic replay when it is not. Delivery is at-least-once; the booking id
// is the idempotency token.
package bookings

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"cuepoint/internal/logging"
)

const queueSchema = `
CREATE TABLE IF NOT EXISTS bookings (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	phone      TEXT NOT NULL,
	date       TEXT NOT NULL,
	time       TEXT NOT NULL,
	store_id   TEXT,
	coach_id   TEXT,
	message    TEXT,
	synced     INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bookings_synced ON bookings(synced);
`

// Deliverer sends one booking to the external CRM endpoint.
type Deliverer interface {
	Deliver(ctx context.Context, b Booking) error
}

// Queue owns the durable booking queue. One process owns the SQLite file;
// sync passes run sequentially, never in parallel.
type Queue struct {
	db        *sql.DB
	deliverer Deliverer
	online    atomic.Bool
}

// NewQueue creates the bookings table if needed. The queue starts online;
// the retry loop or callers adjust that from probe results.
func NewQueue(db *sql.DB, deliverer Deliverer) (*Queue, error) {
	if _, err := db.Exec(queueSchema); err != nil {
		return nil, fmt.Errorf("failed to create bookings schema: %w", err)
	}
	q := &Queue{db: db, deliverer: deliverer}
	q.online.Store(true)
	return q, nil
}

// SetOnline flips the connectivity flag consulted by Submit.
func (q *Queue) SetOnline(online bool) {
	q.online.Store(online)
}

// Online reports the current connectivity flag.
func (q *Queue) Online() bool {
	return q.online.Load()
}

// Submit validates and submits a booking. When online, it attempts direct
// delivery first; a transport failure (or offline state) falls back to the
// durable queue. Submit never fails on delivery problems - only on invalid
// input or a broken local store.
func (q *Queue) Submit(ctx context.Context, b Booking) (Result, error) {
	if err := validate(b); err != nil {
		return Result{}, err
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}

	if q.Online() {
		if err := q.deliverer.Deliver(ctx, b); err == nil {
			logging.Bookings("booking %s delivered directly", b.ID)
			return Result{ID: b.ID, Queued: false}, nil
		} else {
			logging.Bookings("direct delivery of %s failed, queuing: %v", b.ID, err)
		}
	}

	if err := q.enqueue(b); err != nil {
		return Result{}, err
	}
	logging.Bookings("booking %s queued for later delivery", b.ID)
	return Result{ID: b.ID, Queued: true}, nil
}

func validate(b Booking) error {
	switch {
	case b.Name == "":
		return fmt.Errorf("booking name is required")
	case b.Phone == "":
		return fmt.Errorf("booking phone is required")
	case b.Date == "":
		return fmt.Errorf("booking date is required")
	case b.Time == "":
		return fmt.Errorf("booking time is required")
	}
	return nil
}

func (q *Queue) enqueue(b Booking) error {
	_, err := q.db.Exec(
		`INSERT INTO bookings (id, name, phone, date, time, store_id, coach_id, message, synced, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		b.ID, b.Name, b.Phone, b.Date, b.Time, b.StoreID, b.CoachID, b.Message, b.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to queue booking: %w", err)
	}
	return nil
}

// Sync attempts delivery of every pending booking, oldest first. Each item
// is delivered independently: a failure marks the pass degraded but never
// stops the remaining items, and the failed item stays queued for the next
// pass.
func (q *Queue) Sync(ctx context.Context) (SyncStats, error) {
	timer := logging.StartTimer(logging.CategoryBookings, "Sync")
	defer timer.Stop()

	pending, err := q.Pending()
	if err != nil {
		return SyncStats{}, err
	}

	stats := SyncStats{Attempted: len(pending)}
	for _, b := range pending {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if err := q.deliverer.Deliver(ctx, b); err != nil {
			stats.Failed++
			logging.Bookings("sync: delivery of %s failed: %v", b.ID, err)
			continue
		}
		if err := q.markSynced(b.ID); err != nil {
			// The CRM has the booking but we could not record it; the next
			// pass redelivers and the idempotency token absorbs the duplicate.
			stats.Failed++
			logging.Get(logging.CategoryBookings).Error("sync: failed to mark %s synced: %v", b.ID, err)
			continue
		}
		stats.Delivered++
	}

	if stats.Attempted > 0 {
		logging.Bookings("sync pass: %d attempted, %d delivered, %d failed",
			stats.Attempted, stats.Delivered, stats.Failed)
	}
	return stats, nil
}

func (q *Queue) markSynced(id string) error {
	_, err := q.db.Exec(`UPDATE bookings SET synced = 1 WHERE id = ?`, id)
	return err
}

// Pending returns unsynced bookings in creation order. rowid breaks ties
// between bookings queued within the same millisecond.
func (q *Queue) Pending() ([]Booking, error) {
	return q.list(`SELECT id, name, phone, date, time, store_id, coach_id, message, synced, created_at
		FROM bookings WHERE synced = 0 ORDER BY created_at ASC, rowid ASC`)
}

// All returns every queued booking, synced or not, in creation order.
func (q *Queue) All() ([]Booking, error) {
	return q.list(`SELECT id, name, phone, date, time, store_id, coach_id, message, synced, created_at
		FROM bookings ORDER BY created_at ASC, rowid ASC`)
}

func (q *Queue) list(query string) ([]Booking, error) {
	rows, err := q.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		var storeID, coachID, message sql.NullString
		var synced int
		var createdAt int64
		if err := rows.Scan(&b.ID, &b.Name, &b.Phone, &b.Date, &b.Time,
			&storeID, &coachID, &message, &synced, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		b.StoreID = storeID.String
		b.CoachID = coachID.String
		b.Message = message.String
		b.Synced = synced == 1
		b.CreatedAt = time.UnixMilli(createdAt)
		out = append(out, b)
	}
	return out, rows.Err()
}

// RunRetryLoop periodically probes the CRM and replays the pending queue
// while it is reachable. Blocks until ctx is cancelled.
func (q *Queue) RunRetryLoop(ctx context.Context, interval time.Duration, probe func(context.Context) bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			healthy := probe(ctx)
			q.SetOnline(healthy)
			if !healthy {
				logging.BookingsDebug("retry loop: CRM unreachable, holding queue")
				continue
			}
			if _, err := q.Sync(ctx); err != nil && ctx.Err() == nil {
				logging.Get(logging.CategoryBookings).Error("retry loop: sync failed: %v", err)
			}
		}
	}
}
