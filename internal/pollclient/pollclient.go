// Package pollclient is the client half of the async generation bridge:
// kick off a job, then poll the status endpoint at a fixed interval until
// the result lands, the attempt budget runs out, or the caller cancels.
package pollclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

var (
	// ErrDuplicateRequest means a generation for this pitch is already in
	// flight from this client; the duplicate trigger is short-circuited
	// before any network call.
	ErrDuplicateRequest = errors.New("a generation request for this pitch is already in flight")
	// ErrTimedOut means the attempt budget ran out with the job still pending.
	ErrTimedOut = errors.New("generation timed out, please try again")
)

const (
	defaultPollInterval = 5 * time.Second
	defaultMaxAttempts  = 20
)

type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client

	PollInterval time.Duration
	MaxAttempts  int

	mu       sync.Mutex
	inFlight map[string]bool
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:      baseURL,
		Token:        token,
		HTTPClient:   &http.Client{},
		PollInterval: defaultPollInterval,
		MaxAttempts:  defaultMaxAttempts,
		inFlight:     map[string]bool{},
	}
}

type startResponse struct {
	Success   bool   `json:"success"`
	RequestID string `json:"requestId"`
	Error     string `json:"error"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Content string `json:"content"`
}

// GeneratePitch starts a pitch job and returns the request id to poll with.
// The pitch is held in-flight until Release is called (GeneratePitchAndWait
// does this for you).
func (c *Client) GeneratePitch(ctx context.Context, pitchID string, payload interface{}) (string, error) {
	return c.start(ctx, pitchID, fmt.Sprintf("/api/v1/pitches/%s/generate", pitchID), payload)
}

// GenerateGuidance starts a guidance job for the pitch.
func (c *Client) GenerateGuidance(ctx context.Context, pitchID string, payload interface{}) (string, error) {
	return c.start(ctx, pitchID, fmt.Sprintf("/api/v1/pitches/%s/guidance", pitchID), payload)
}

// Release drops the in-flight guard for a pitch, allowing a new submission.
func (c *Client) Release(pitchID string) {
	c.mu.Lock()
	delete(c.inFlight, pitchID)
	c.mu.Unlock()
}

func (c *Client) start(ctx context.Context, pitchID, path string, payload interface{}) (string, error) {
	c.mu.Lock()
	if c.inFlight[pitchID] {
		c.mu.Unlock()
		return "", ErrDuplicateRequest
	}
	c.inFlight[pitchID] = true
	c.mu.Unlock()

	requestID, err := c.postStart(ctx, path, payload)
	if err != nil {
		c.Release(pitchID)
		return "", err
	}
	return requestID, nil
}

func (c *Client) postStart(ctx context.Context, path string, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out startResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusAccepted || !out.Success {
		return "", fmt.Errorf("generation request rejected (%d): %s", resp.StatusCode, out.Error)
	}
	return out.RequestID, nil
}

// Wait polls until completion, cancellation, or the attempt budget is spent.
// kind is "pitch" or "guidance". Total wall-clock time is bounded by
// MaxAttempts * PollInterval.
func (c *Client) Wait(ctx context.Context, requestID, kind string) (string, error) {
	for attempt := 0; attempt < c.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.PollInterval):
			}
		}

		status, content, err := c.poll(ctx, requestID, kind)
		if err != nil {
			return "", err
		}
		if status == "completed" {
			return content, nil
		}
	}
	return "", ErrTimedOut
}

func (c *Client) poll(ctx context.Context, requestID, kind string) (string, string, error) {
	q := url.Values{}
	q.Set("requestId", requestID)
	q.Set("type", kind)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/v1/generations/status?"+q.Encode(), nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("status poll failed with %d", resp.StatusCode)
	}

	var out statusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", "", err
	}
	return out.Status, out.Content, nil
}

// GeneratePitchAndWait runs the whole flow: initiate, poll, release.
func (c *Client) GeneratePitchAndWait(ctx context.Context, pitchID string, payload interface{}) (string, error) {
	requestID, err := c.GeneratePitch(ctx, pitchID, payload)
	if err != nil {
		return "", err
	}
	defer c.Release(pitchID)
	return c.Wait(ctx, requestID, "pitch")
}

// GenerateGuidanceAndWait runs the whole guidance flow.
func (c *Client) GenerateGuidanceAndWait(ctx context.Context, pitchID string, payload interface{}) (string, error) {
	requestID, err := c.GenerateGuidance(ctx, pitchID, payload)
	if err != nil {
		return "", err
	}
	defer c.Release(pitchID)
	return c.Wait(ctx, requestID, "guidance")
}
