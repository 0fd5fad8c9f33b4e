package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound is returned when the API answers 404 for an update or delete.
var ErrNotFound = errors.New("team member not found")

// Client provides typed access to the teamboard API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://localhost:8080"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

// Task mirrors the API task payload.
type Task struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Member mirrors the API team member payload.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Tasks []Task `json:"tasks"`
}

// GetMember fetches a member. The API answers unknown members with an empty 200,
// which is reported as found == false.
func (c *Client) GetMember(ctx context.Context, id string) (Member, bool, error) {
	var member Member
	found, err := c.do(ctx, http.MethodGet, "/"+url.PathEscape(id), nil, &member)
	return member, found, err
}

// ListMembers returns every member ordered by id.
func (c *Client) ListMembers(ctx context.Context) ([]Member, error) {
	var members []Member
	_, err := c.do(ctx, http.MethodGet, "/", nil, &members)
	return members, err
}

// ListTasks returns a member's tasks. Unknown members yield an empty list.
func (c *Client) ListTasks(ctx context.Context, memberID string) ([]Task, error) {
	var tasks []Task
	_, err := c.do(ctx, http.MethodGet, "/"+url.PathEscape(memberID)+"/tasks", nil, &tasks)
	return tasks, err
}

// GetTask fetches one task; found is false when the member or task is unknown.
func (c *Client) GetTask(ctx context.Context, memberID, taskID string) (Task, bool, error) {
	var task Task
	path := "/members/" + url.PathEscape(memberID) + "/tasks/" + url.PathEscape(taskID)
	found, err := c.do(ctx, http.MethodGet, path, nil, &task)
	return task, found, err
}

// CreateMember stores member, replacing any member with the same id.
func (c *Client) CreateMember(ctx context.Context, member Member) (Member, error) {
	var created Member
	_, err := c.do(ctx, http.MethodPost, "/", member, &created)
	return created, err
}

// UpdateMember replaces the member at id. It returns ErrNotFound for unknown ids.
func (c *Client) UpdateMember(ctx context.Context, id string, member Member) (Member, error) {
	var updated Member
	_, err := c.do(ctx, http.MethodPut, "/"+url.PathEscape(id), member, &updated)
	return updated, err
}

// DeleteMember removes the member at id. It returns ErrNotFound for unknown ids.
func (c *Client) DeleteMember(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/"+url.PathEscape(id), nil, nil)
	return err
}

// do sends one request. found is false when the API answered with an empty body,
// which is how it reports an unknown member or task on reads.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (found bool, err error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, ErrNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		return false, APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	case len(bytes.TrimSpace(data)) == 0:
		return false, nil
	case out == nil:
		return true, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return true, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		payload = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// errorMessage pulls the "error" field from an API error envelope, falling back to the raw body.
func errorMessage(data []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Error == "" {
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(envelope.Error)
}
