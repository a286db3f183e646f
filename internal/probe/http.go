package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// client wraps http.Client with the probe's request helpers.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// get issues a GET and returns status and body.
func (c *client) get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// waitReady polls the root route with exponential backoff until it answers
// 200 or wait elapses.
func (c *client) waitReady(ctx context.Context, wait time.Duration, notify backoff.Notify) error {
	operation := func() error {
		code, _, err := c.get(ctx, "/")
		if err != nil {
			return err
		}
		if code != http.StatusOK {
			return &StatusError{StatusCode: code}
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = wait

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	return nil
}

type predictResponse struct {
	AdjustedGrade int    `json:"adjusted_grade"`
	Code          string `json:"code"`
	Error         string `json:"error"`
}

// predict runs one scenario and returns what the service answered.
func (c *client) predict(ctx context.Context, s Scenario) (int, predictResponse, error) {
	code, body, err := c.get(ctx, "/predict?"+s.Query())
	if err != nil {
		return 0, predictResponse{}, err
	}
	var pr predictResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return code, predictResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return code, pr, nil
}
