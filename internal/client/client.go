// Package client talks to the todo server's JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"todos/internal/todo"
)

// DefaultBaseURL is where a locally started server listens.
const DefaultBaseURL = "http://localhost:3000"

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (HTTP %d): %s", e.Status, e.Message)
}

// Client wraps an HTTP client configured for one todo server.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a Client with an explicit timeout instead of http.DefaultClient.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// List fetches the todos matching filter.
func (c *Client) List(ctx context.Context, filter todo.Filter) ([]todo.Todo, error) {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", string(filter))
	}
	var todos []todo.Todo
	if err := c.do(ctx, http.MethodGet, q, nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// Create adds a todo with the given text.
func (c *Client) Create(ctx context.Context, text string) (todo.Todo, error) {
	var t todo.Todo
	err := c.do(ctx, http.MethodPost, nil, map[string]string{"text": text}, &t)
	return t, err
}

// Update applies p to the todo with the given id.
func (c *Client) Update(ctx context.Context, id string, p todo.Patch) (todo.Todo, error) {
	body := map[string]any{"id": id}
	if p.Text != nil {
		body["text"] = *p.Text
	}
	if p.Completed != nil {
		body["completed"] = *p.Completed
	}
	var t todo.Todo
	err := c.do(ctx, http.MethodPatch, nil, body, &t)
	return t, err
}

// SetCompleted marks the todo as completed or active.
func (c *Client) SetCompleted(ctx context.Context, id string, completed bool) (todo.Todo, error) {
	return c.Update(ctx, id, todo.Patch{Completed: &completed})
}

// Delete removes one todo.
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return todo.ErrIDRequired
	}
	q := url.Values{"id": {id}}
	var resp struct {
		Success bool `json:"success"`
	}
	return c.do(ctx, http.MethodDelete, q, nil, &resp)
}

// ClearCompleted removes every completed todo and returns what is left.
func (c *Client) ClearCompleted(ctx context.Context) ([]todo.Todo, error) {
	var todos []todo.Todo
	if err := c.do(ctx, http.MethodDelete, nil, nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

func (c *Client) do(ctx context.Context, method string, q url.Values, body, out any) error {
	u, err := url.Parse(c.baseURL + "/api/todos")
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Error == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		} else {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
