package bookings

import "time"

// Booking is a lead captured by the site's booking form. ID doubles as the
// client-generated idempotency token: the CRM is expected to deduplicate on
// it, because delivery is at-least-once.
type Booking struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	StoreID   string    `json:"storeId,omitempty"`
	CoachID   string    `json:"coachId,omitempty"`
	Message   string    `json:"message,omitempty"`
	Synced    bool      `json:"synced"`
	CreatedAt time.Time `json:"createdAt"`
}

// Result reports the outcome of a submission. Queued means the booking was
// durably stored for later delivery rather than delivered directly.
type Result struct {
	ID     string `json:"id"`
	Queued bool   `json:"queued"`
}

// SyncStats summarizes one sync pass over the pending queue.
type SyncStats struct {
	Attempted int `json:"attempted"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}
