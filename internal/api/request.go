package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nestor-bot/nestor/internal/version"
)

// APIError represents an error from the Slack Web API: either a non-2xx HTTP
// response or an ok:false envelope.
type APIError struct {
	StatusCode int           // HTTP status, 0 for ok:false envelopes on a 200
	Code       string        // Slack error code ("channel_not_found", …)
	Message    string        // HTTP status text when StatusCode is set
	RetryAfter time.Duration // From the Retry-After header on 429, else 0
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return "slack api error: " + e.Code
	}
	return fmt.Sprintf("slack api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// apiEnvelope is the {"ok":…} wrapper present on every Web API response.
type apiEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// doCall performs a single Web API call: POST with form-encoded arguments
// and a bearer token.
func (c *Client) doCall(ctx context.Context, method string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + "/" + method

	var body io.Reader
	if len(params) > 0 {
		body = strings.NewReader(params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       respBody,
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
				apiErr.RetryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, apiErr
	}

	return respBody, nil
}

// doWithRetry performs a call with exponential backoff retry. A Retry-After
// duration from a rate-limited response overrides the computed backoff.
func (c *Client) doWithRetry(ctx context.Context, method string, params url.Values) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			wait := backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			if apiErr, ok := lastErr.(*APIError); ok && apiErr.RetryAfter > wait {
				wait = apiErr.RetryAfter
			}
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", wait,
				"method", method,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}

			backoff *= 2
		}

		body, err := c.doCall(ctx, method, params)
		if err == nil {
			return body, nil
		}

		lastErr = err

		apiErr, ok := err.(*APIError)
		if !ok || !apiErr.IsRetryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// call performs a Web API method call with retries, checks the ok envelope,
// and unmarshals the payload into result (which may be nil).
func (c *Client) call(ctx context.Context, method string, params url.Values, result any) error {
	body, err := c.doWithRetry(ctx, method, params)
	if err != nil {
		return err
	}

	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if !env.OK {
		return &APIError{Code: env.Error, Body: body}
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
