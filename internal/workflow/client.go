// Package workflow talks to the external agent-workflow engine. Jobs are
// fire-and-forget: the engine acknowledges the run and later POSTs the result
// to our callback URL, correlated by id_unique.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	PitchAgent    = "Master_Agent_V1"
	GuidanceAgent = "Guidance_Agent_V1"
)

type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{},
	}
}

// RunRequest describes one workflow dispatch.
type RunRequest struct {
	Agent          string
	VersionLabel   string
	InputVariables map[string]string
	CallbackURL    string
}

type runBody struct {
	WorkflowLabelName string            `json:"workflow_label_name,omitempty"`
	InputVariables    map[string]string `json:"input_variables"`
	ReturnAllOutputs  bool              `json:"return_all_outputs"`
	CallbackURL       string            `json:"callback_url,omitempty"`
}

type runResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Run dispatches a job and returns once the engine has accepted it. Any 2xx
// with success=true counts as accepted; everything else is a hard failure.
// The caller bounds the wait through ctx.
func (c *Client) Run(ctx context.Context, req RunRequest) error {
	body, err := json.Marshal(runBody{
		WorkflowLabelName: req.VersionLabel,
		InputVariables:    req.InputVariables,
		ReturnAllOutputs:  false,
		CallbackURL:       req.CallbackURL,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/workflows/%s/run", c.BaseURL, req.Agent)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-KEY", c.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("workflow engine returned %d: %s", resp.StatusCode, string(data))
	}

	var out runResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("workflow engine sent unparseable response: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("workflow engine refused the job: %s", out.Message)
	}
	return nil
}

// VersionForStarCount maps the number of STAR examples to the agent version
// trained for that shape. Counts outside 2-4 fall back to v1.2.
func VersionForStarCount(n int) string {
	switch n {
	case 3:
		return "v1.3"
	case 4:
		return "v1.4"
	default:
		return "v1.2"
	}
}
