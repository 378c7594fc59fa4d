package bookings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cuepoint/internal/logging"
)

// HTTPDeliverer posts bookings to the external CRM endpoint. Any 2xx status
// counts as delivered; everything else is a transient failure left to the
// queue's retry machinery.
type HTTPDeliverer struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPDeliverer creates a deliverer for the given CRM base URL.
func NewHTTPDeliverer(baseURL string, timeout time.Duration) *HTTPDeliverer {
	return &HTTPDeliverer{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Deliver posts one booking to {base}/api/bookings. The booking id travels
// both in the body and as X-Idempotency-Key so the CRM can deduplicate
// redelivered items.
func (d *HTTPDeliverer) Deliver(ctx context.Context, b Booking) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal booking: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.baseURL+"/api/bookings", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", b.ID)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("booking delivery failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("CRM returned status %d", resp.StatusCode)
	}

	logging.BookingsDebug("delivered booking %s (status %d)", b.ID, resp.StatusCode)
	return nil
}

// Healthy probes the CRM endpoint. Used by the retry loop as the online
// signal.
func (d *HTTPDeliverer) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, d.baseURL+"/api/bookings", nil)
	if err != nil {
		return false
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode < 500
}
