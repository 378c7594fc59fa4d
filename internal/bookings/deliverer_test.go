package bookings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"cuepoint/internal/persist"
)

// crmStub is a fake CRM endpoint recording booking posts.
type crmStub struct {
	mu       sync.Mutex
	received []Booking
	keys     []string
	status   int
}

func newCRMStub(status int) (*crmStub, *httptest.Server) {
	stub := &crmStub{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		var b Booking
		_ = json.NewDecoder(r.Body).Decode(&b)
		stub.mu.Lock()
		stub.received = append(stub.received, b)
		stub.keys = append(stub.keys, r.Header.Get("X-Idempotency-Key"))
		status := stub.status
		stub.mu.Unlock()
		w.WriteHeader(status)
	}))
	return stub, srv
}

func TestHTTPDeliverer_PostsWithIdempotencyKey(t *testing.T) {
	stub, srv := newCRMStub(http.StatusCreated)
	defer srv.Close()

	d := NewHTTPDeliverer(srv.URL, 5*time.Second)
	b := Booking{ID: "tok-123", Name: "Dana", Phone: "555", Date: "2026-09-12", Time: "14:00"}

	require.NoError(t, d.Deliver(context.Background(), b))

	stub.mu.Lock()
	defer stub.mu.Unlock()
	require.Len(t, stub.received, 1)
	assert.Equal(t, "tok-123", stub.received[0].ID)
	assert.Equal(t, "tok-123", stub.keys[0])
}

func TestHTTPDeliverer_NonOKStatusIsError(t *testing.T) {
	_, srv := newCRMStub(http.StatusBadGateway)
	defer srv.Close()

	d := NewHTTPDeliverer(srv.URL, 5*time.Second)
	err := d.Deliver(context.Background(), Booking{ID: "x", Name: "n", Phone: "p", Date: "d", Time: "t"})
	assert.Error(t, err)
}

func TestHTTPDeliverer_UnreachableEndpoint(t *testing.T) {
	d := NewHTTPDeliverer("http://127.0.0.1:1", 200*time.Millisecond)

	err := d.Deliver(context.Background(), Booking{ID: "x", Name: "n", Phone: "p", Date: "d", Time: "t"})
	assert.Error(t, err)
	assert.False(t, d.Healthy(context.Background()))
}

func TestHTTPDeliverer_Healthy(t *testing.T) {
	_, srv := newCRMStub(http.StatusOK)
	defer srv.Close()

	d := NewHTTPDeliverer(srv.URL, 5*time.Second)
	assert.True(t, d.Healthy(context.Background()))
}

// TestRetryLoop_EndToEnd exercises queue + HTTP deliverer together and
// verifies the loop leaves no goroutines behind after cancellation.
func TestRetryLoop_EndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	stub, srv := newCRMStub(http.StatusOK)
	defer srv.Close()

	db, err := persist.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	d := NewHTTPDeliverer(srv.URL, 5*time.Second)
	q, err := NewQueue(db, d)
	require.NoError(t, err)

	q.SetOnline(false)
	res, err := q.Submit(context.Background(), booking("Late"))
	require.NoError(t, err)
	require.True(t, res.Queued)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = q.RunRetryLoop(ctx, 10*time.Millisecond, d.Healthy)
	}()

	require.Eventually(t, func() bool {
		stub.mu.Lock()
		defer stub.mu.Unlock()
		return len(stub.received) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	all, err := q.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Synced)
}
