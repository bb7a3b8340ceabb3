package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cchderek/Property-Search-v1/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(timeout time.Duration, maxRetries int) *Client {
	return NewClient(timeout, maxRetries, time.Millisecond, logger.New("test"))
}

func TestGetJSON_Success(t *testing.T) {
	var gotUserAgent, gotAccept, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": 200, "result": "ok"}`))
	}))
	defer server.Close()

	client := newTestClient(time.Second, 3)

	var out struct {
		Status int    `json:"status"`
		Result string `json:"result"`
	}
	params := url.Values{"q": {"test value"}}
	err := client.GetJSON(context.Background(), server.URL, params, nil, &out)

	require.NoError(t, err)
	assert.Equal(t, 200, out.Status)
	assert.Equal(t, "ok", out.Result)
	assert.Equal(t, "PropertySearchDashboard/1.0", gotUserAgent)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "q=test+value", gotQuery)
}

func TestGetJSON_CustomHeaders(t *testing.T) {
	var gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(time.Second, 3)

	var out map[string]interface{}
	headers := map[string]string{"Accept": "application/sparql-results+json"}
	err := client.GetJSON(context.Background(), server.URL, nil, headers, &out)

	require.NoError(t, err)
	assert.Equal(t, "application/sparql-results+json", gotAccept, "Expected custom header to override default")
}

func TestGetJSON_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "Postcode not found"}`))
	}))
	defer server.Close()

	client := newTestClient(time.Second, 3)

	var out map[string]interface{}
	err := client.GetJSON(context.Background(), server.URL, nil, nil, &out)

	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "Postcode not found")
	assert.Contains(t, statusErr.Error(), "404")
}

func TestGetJSON_StatusErrorIsTerminal(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(time.Second, 3)

	var out map[string]interface{}
	err := client.GetJSON(context.Background(), server.URL, nil, nil, &out)

	require.Error(t, err)
	var statusErr *StatusError
	assert.ErrorAs(t, err, &statusErr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "Non-200 responses must not be retried")
}

func TestGetJSON_ShapeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`this is not json`))
	}))
	defer server.Close()

	client := newTestClient(time.Second, 3)

	var out map[string]interface{}
	err := client.GetJSON(context.Background(), server.URL, nil, nil, &out)

	require.Error(t, err)
	var shapeErr *ShapeError
	assert.ErrorAs(t, err, &shapeErr)
}

func TestGetJSON_RateLimitedThenSuccess(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"result": "ok"}`))
	}))
	defer server.Close()

	client := newTestClient(time.Second, 3)

	var out struct {
		Result string `json:"result"`
	}
	err := client.GetJSON(context.Background(), server.URL, nil, nil, &out)

	require.NoError(t, err, "429 must be waited out, not surfaced")
	assert.Equal(t, "ok", out.Result)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetJSON_RateLimitExhaustsAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(time.Second, 3)

	var out map[string]interface{}
	err := client.GetJSON(context.Background(), server.URL, nil, nil, &out)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetJSON_TimeoutThenSuccess(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			time.Sleep(500 * time.Millisecond)
		}
		w.Write([]byte(`{"result": "ok"}`))
	}))
	defer server.Close()

	client := newTestClient(100*time.Millisecond, 3)

	var out struct {
		Result string `json:"result"`
	}
	err := client.GetJSON(context.Background(), server.URL, nil, nil, &out)

	require.NoError(t, err, "A timed-out attempt should be retried")
	assert.Equal(t, "ok", out.Result)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetJSON_TimedOut(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(50*time.Millisecond, 2)

	var out map[string]interface{}
	err := client.GetJSON(context.Background(), server.URL, nil, nil, &out)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimedOut)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "Expected one retry before giving up")
}

func TestRetryAfter(t *testing.T) {
	client := NewClient(time.Second, 3, time.Second, logger.New("test"))

	tests := []struct {
		name   string
		header string
		expect time.Duration
	}{
		{
			name:   "explicit seconds",
			header: "5",
			expect: 5 * time.Second,
		},
		{
			name:   "zero seconds",
			header: "0",
			expect: 0,
		},
		{
			name:   "missing header falls back to double delay",
			header: "",
			expect: 2 * time.Second,
		},
		{
			name:   "malformed header falls back to double delay",
			header: "soon",
			expect: 2 * time.Second,
		},
		{
			name:   "negative header falls back to double delay",
			header: "-3",
			expect: 2 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			if tt.header != "" {
				resp.Header.Set("Retry-After", tt.header)
			}
			assert.Equal(t, tt.expect, client.retryAfter(resp))
		})
	}
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, isTimeout(context.DeadlineExceeded))
	assert.False(t, isTimeout(errors.New("connection refused")))
	assert.False(t, isTimeout(nil))
}

func TestStatusError_Error(t *testing.T) {
	withBody := &StatusError{StatusCode: 502, Body: "bad gateway"}
	assert.Contains(t, withBody.Error(), "502")
	assert.Contains(t, withBody.Error(), "bad gateway")

	withoutBody := &StatusError{StatusCode: 503}
	assert.Equal(t, "request failed with status code: 503", withoutBody.Error())
}
