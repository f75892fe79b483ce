package workflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionForStarCount(t *testing.T) {
	assert.Equal(t, "v1.2", VersionForStarCount(2))
	assert.Equal(t, "v1.3", VersionForStarCount(3))
	assert.Equal(t, "v1.4", VersionForStarCount(4))
	// Out-of-range counts fall back rather than fail.
	assert.Equal(t, "v1.2", VersionForStarCount(1))
	assert.Equal(t, "v1.2", VersionForStarCount(7))
}

func TestRunSendsContract(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-KEY")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key")
	err := c.Run(context.Background(), RunRequest{
		Agent:          PitchAgent,
		VersionLabel:   "v1.3",
		InputVariables: map[string]string{"id_unique": "abc"},
		CallbackURL:    "https://app.example.com/api/v1/webhooks/generation",
	})
	require.NoError(t, err)

	assert.Equal(t, "/workflows/Master_Agent_V1/run", gotPath)
	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, "v1.3", gotBody["workflow_label_name"])
	assert.Equal(t, false, gotBody["return_all_outputs"])
	assert.Equal(t, "https://app.example.com/api/v1/webhooks/generation", gotBody["callback_url"])
	vars := gotBody["input_variables"].(map[string]interface{})
	assert.Equal(t, "abc", vars["id_unique"])
}

func TestRunFailures(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer srv.Close()
		err := NewClient(srv.URL, "k").Run(context.Background(), RunRequest{Agent: GuidanceAgent})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("success false", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "bad inputs"})
		}))
		defer srv.Close()
		err := NewClient(srv.URL, "k").Run(context.Background(), RunRequest{Agent: PitchAgent})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad inputs")
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := NewClient(srv.URL, "k").Run(ctx, RunRequest{Agent: PitchAgent})
		require.Error(t, err)
	})
}
