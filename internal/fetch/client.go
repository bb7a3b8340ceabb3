// Package fetch provides the shared retrying HTTP GET helper used by every
// upstream provider client, plus the error taxonomy for upstream failures.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cchderek/Property-Search-v1/internal/logger"
)

const defaultUserAgent = "PropertySearchDashboard/1.0"

// Sentinel errors for transport-level failures.
var (
	// ErrTimedOut is returned when every retry attempt timed out.
	ErrTimedOut = errors.New("request timed out")
	// ErrRetriesExhausted is returned when the attempt loop ran out without
	// producing a response, e.g. every attempt was consumed by a 429 wait.
	ErrRetriesExhausted = errors.New("maximum retry attempts reached")
)

// StatusError is a terminal non-200 response from a provider.
// It carries the status code and response body for diagnostics.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request failed with status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status code: %d: %s", e.StatusCode, e.Body)
}

// ShapeError indicates a well-formed HTTP response whose JSON envelope is
// missing an expected key or cannot be decoded into the expected structure.
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string {
	return "unexpected response shape: " + e.Reason
}

// Client is a retrying HTTP GET helper shared by all provider clients.
// It is safe for concurrent use; each call is independent.
type Client struct {
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	log        *logger.Logger
}

// NewClient creates a fetch client. Timeout applies per request; maxRetries
// bounds the attempt loop; retryDelay is slept between timed-out attempts.
func NewClient(timeout time.Duration, maxRetries int, retryDelay time.Duration, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		log:        log,
	}
}

// GetJSON issues a GET request and decodes the JSON response body into out.
//
// Retry behaviour:
//   - timeout: sleep retryDelay and retry, up to maxRetries attempts;
//     exhausting them returns ErrTimedOut
//   - 429: sleep for the provider's Retry-After (falling back to 2x
//     retryDelay) and retry within the same attempt loop, never an error
//   - any other non-200 status: terminal *StatusError with code and body
//   - other transport failures: terminal wrapped error
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, headers map[string]string, out interface{}) error {
	fullURL := rawURL
	if len(params) > 0 {
		fullURL = rawURL + "?" + params.Encode()
	}

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("User-Agent", defaultUserAgent)
		req.Header.Set("Accept", "application/json")
		for key, value := range headers {
			req.Header.Set(key, value)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if isTimeout(err) {
				if attempt < c.maxRetries-1 {
					c.log.Warn("Request timed out, retrying", map[string]interface{}{
						"url":     rawURL,
						"attempt": attempt + 1,
					})
					if err := sleep(ctx, c.retryDelay); err != nil {
						return err
					}
					continue
				}
				return fmt.Errorf("%w: %s", ErrTimedOut, rawURL)
			}
			return fmt.Errorf("request failed: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			defer resp.Body.Close()
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return &ShapeError{Reason: fmt.Sprintf("decode response: %v", err)}
			}
			return nil

		case resp.StatusCode == http.StatusTooManyRequests:
			wait := c.retryAfter(resp)
			resp.Body.Close()
			c.log.Warn("Rate limited, waiting before retry", map[string]interface{}{
				"url":          rawURL,
				"wait_seconds": wait.Seconds(),
			})
			if err := sleep(ctx, wait); err != nil {
				return err
			}
			continue

		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		}
	}

	return ErrRetriesExhausted
}

// retryAfter reads the Retry-After header in seconds, falling back to twice
// the configured retry delay when absent or malformed.
func (c *Client) retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return c.retryDelay * 2
}

// isTimeout reports whether err represents a request timeout.
func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// sleep blocks for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
