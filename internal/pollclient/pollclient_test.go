package pollclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI answers the initiate and status endpoints. The job reads as
// completed once the poll count reaches completeAfter (0 = never).
func fakeAPI(completeAfter int64) (*httptest.Server, *int64) {
	var polls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/pitches/"):
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "requestId": "req-1"})
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/generations/status"):
			n := atomic.AddInt64(&polls, 1)
			if completeAfter > 0 && n >= completeAfter {
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "completed", "content": "<p>Done</p>"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "pending"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return srv, &polls
}

func fastClient(baseURL string) *Client {
	c := New(baseURL, "token")
	c.PollInterval = 2 * time.Millisecond
	c.MaxAttempts = 5
	return c
}

func TestGenerateAndWaitCompletes(t *testing.T) {
	srv, polls := fakeAPI(3)
	defer srv.Close()

	c := fastClient(srv.URL)
	content, err := c.GeneratePitchAndWait(context.Background(), "pitch-1", map[string]string{"role_name": "x"})
	require.NoError(t, err)
	assert.Equal(t, "<p>Done</p>", content)
	assert.GreaterOrEqual(t, atomic.LoadInt64(polls), int64(3))

	// The in-flight guard is released on completion, so a re-run is allowed.
	_, err = c.GeneratePitchAndWait(context.Background(), "pitch-1", map[string]string{"role_name": "x"})
	require.NoError(t, err)
}

func TestWaitTimesOutWithinBudget(t *testing.T) {
	srv, polls := fakeAPI(0) // never completes
	defer srv.Close()

	c := fastClient(srv.URL)
	start := time.Now()
	_, err := c.GeneratePitchAndWait(context.Background(), "pitch-1", nil)
	assert.ErrorIs(t, err, ErrTimedOut)

	// Exactly MaxAttempts polls, and bounded wall-clock time.
	assert.Equal(t, int64(c.MaxAttempts), atomic.LoadInt64(polls))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDuplicateSubmissionShortCircuits(t *testing.T) {
	srv, _ := fakeAPI(0)
	defer srv.Close()

	c := fastClient(srv.URL)
	_, err := c.GeneratePitch(context.Background(), "pitch-1", nil)
	require.NoError(t, err)

	_, err = c.GeneratePitch(context.Background(), "pitch-1", nil)
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	// A different pitch is not blocked.
	_, err = c.GeneratePitch(context.Background(), "pitch-2", nil)
	require.NoError(t, err)

	c.Release("pitch-1")
	_, err = c.GeneratePitch(context.Background(), "pitch-1", nil)
	require.NoError(t, err)
}

func TestRejectedInitiationReleasesGuard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"error": "Insufficient credit balance"})
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	_, err := c.GeneratePitch(context.Background(), "pitch-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Insufficient credit balance")

	// Failure released the guard, a retry is not treated as a duplicate.
	_, err = c.GeneratePitch(context.Background(), "pitch-1", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateRequest)
}

func TestWaitStopsOnCancellation(t *testing.T) {
	srv, _ := fakeAPI(0)
	defer srv.Close()

	c := fastClient(srv.URL)
	c.PollInterval = 50 * time.Millisecond
	c.MaxAttempts = 100

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := c.Wait(ctx, "req-1", "pitch")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitSurfacesTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	_, err := c.Wait(context.Background(), "req-1", "pitch")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimedOut)
}
