// Package omnivore is a minimal client for the Omnivore GraphQL API: it
// builds the query and mutation payloads the importer needs and posts them
// with authentication. Response bodies that fail to decode surface as a
// typed *DecodeError, so retry policy stays with the caller.
package omnivore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to one Omnivore instance.
type Client struct {
	apiURL string
	apiKey string
	httpc  *http.Client
}

// New returns a client for the given GraphQL endpoint and API key.
func New(apiURL, apiKey string) *Client {
	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		httpc:  &http.Client{Timeout: 60 * time.Second},
	}
}

// DecodeError reports a response body that was not the expected JSON shape.
// Callers that want the original implicit-retry behavior check for it with
// errors.As and resubmit explicitly.
type DecodeError struct {
	Body []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("omnivore: decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Request is one GraphQL operation with its variables.
type Request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Do posts the request and returns the response's data object keyed by
// operation name. A body that is not JSON yields a *DecodeError; a JSON
// body without a data field is a plain error carrying the raw body.
func (c *Client) Do(ctx context.Context, req Request) (map[string]json.RawMessage, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("omnivore: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("omnivore: create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("omnivore: post: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("omnivore: read response: %w", err)
	}

	var decoded struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &DecodeError{Body: body, Err: err}
	}
	if decoded.Data == nil {
		return nil, fmt.Errorf("omnivore: no response data: %s", truncate(body, 512))
	}
	return decoded.Data, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
