// Package client is the typed HTTP client used by the CLI, including the
// status poller that watches a processing run to its terminal state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/clipforge/clipforge/internal/model"
)

// DefaultPollInterval is how often the poller checks the project status.
const DefaultPollInterval = 2 * time.Second

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client talks to one ClipForge server on behalf of one bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New constructs a Client for baseURL.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// ProcessAck is the server's acknowledgment of a processing trigger.
type ProcessAck struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

// CreateProject registers a new source video and returns the pending project.
func (c *Client) CreateProject(ctx context.Context, title, sourceType, sourceURL string) (*model.Project, error) {
	body := map[string]string{"title": title, "sourceType": sourceType, "sourceUrl": sourceURL}
	var project model.Project
	if err := c.do(ctx, http.MethodPost, "/api/projects", body, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListProjects returns the caller's projects, newest first.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject fetches the aggregate: project plus clips and contents.
func (c *Client) GetProject(ctx context.Context, id string) (*model.ProjectDetail, error) {
	var detail model.ProjectDetail
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+id, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// DeleteProject removes a project and its derived artifacts.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/projects/"+id, nil, nil)
}

// Process triggers a run for the project.
func (c *Client) Process(ctx context.Context, id string) (*ProcessAck, error) {
	var ack ProcessAck
	if err := c.do(ctx, http.MethodPost, "/api/projects/"+id+"/process", nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// PollUntilDone checks the project status every interval until it is
// completed or failed, then fetches the full aggregate exactly once more and
// returns it. Transient fetch errors are swallowed and retried on the next
// tick; only context cancellation stops the loop early.
func (c *Client) PollUntilDone(ctx context.Context, id string, interval time.Duration) (*model.ProjectDetail, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			detail, err := c.GetProject(ctx, id)
			if err != nil {
				continue
			}
			if detail.Status.Terminal() {
				return c.GetProject(ctx, id)
			}
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error == "" {
			errBody.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: errBody.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
