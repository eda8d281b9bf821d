package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seventv/cloudctl/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sleepRecorder struct {
	mtx   sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.waits = append(s.waits, d)
	return nil
}

func (s *sleepRecorder) Waits() []time.Duration {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return append([]time.Duration(nil), s.waits...)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *sleepRecorder) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		Endpoint:   srv.URL + "/",
		Token:      "secret-token",
		MaxRetries: 3,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * time.Second
		},
	})

	rec := &sleepRecorder{}
	c.sleep = rec.sleep

	return c, rec
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_RequestHeaders(t *testing.T) {
	var got http.Header
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		assert.Equal(t, "/servers/42", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"server": map[string]any{"id": 42, "name": "web-1"}})
	})

	s, err := c.Servers.Get(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, int64(42), s.ID)
	assert.Equal(t, "web-1", s.Name)
	assert.Equal(t, "Bearer secret-token", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "cloudctl/dev", got.Get("User-Agent"))
	assert.Len(t, got.Get("X-Request-Id"), 36)
	assert.Empty(t, got.Get("Content-Type"))
}

func TestClient_Retries(t *testing.T) {
	testCases := []struct {
		name      string
		method    string
		statuses  []int
		header    http.Header
		calls     int32
		waits     []time.Duration
		errorCode string
	}{
		{
			name:     "idempotent request retried on 503",
			method:   http.MethodGet,
			statuses: []int{503, 503, 200},
			calls:    3,
			waits:    []time.Duration{time.Second, 2 * time.Second},
		},
		{
			name:      "retries exhausted",
			method:    http.MethodGet,
			statuses:  []int{502, 502, 502, 502, 502},
			calls:     4,
			waits:     []time.Duration{time.Second, 2 * time.Second, 3 * time.Second},
			errorCode: types.ErrCodeAPIServer,
		},
		{
			name:     "any other 5xx is retried",
			method:   http.MethodGet,
			statuses: []int{507, 505, 200},
			calls:    3,
			waits:    []time.Duration{time.Second, 2 * time.Second},
		},
		{
			name:      "proxy 5xx retried until exhausted",
			method:    http.MethodDelete,
			statuses:  []int{522, 522, 522, 522},
			calls:     4,
			waits:     []time.Duration{time.Second, 2 * time.Second, 3 * time.Second},
			errorCode: types.ErrCodeAPIServer,
		},
		{
			name:      "not implemented is not retried",
			method:    http.MethodGet,
			statuses:  []int{501, 200},
			calls:     1,
			errorCode: types.ErrCodeAPIServer,
		},
		{
			name:      "post not retried on 500",
			method:    http.MethodPost,
			statuses:  []int{500, 200},
			calls:     1,
			errorCode: types.ErrCodeAPIServer,
		},
		{
			name:     "post retried on 429 honouring Retry-After",
			method:   http.MethodPost,
			statuses: []int{429, 200},
			header:   http.Header{"Retry-After": []string{"7"}},
			calls:    2,
			waits:    []time.Duration{7 * time.Second},
		},
		{
			name:      "client errors are not retried",
			method:    http.MethodGet,
			statuses:  []int{404, 200},
			calls:     1,
			errorCode: types.ErrCodeAPINotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				status := tc.statuses[n-1]
				if status != http.StatusOK {
					for k, v := range tc.header {
						w.Header()[k] = v
					}
				}
				writeJSON(w, status, map[string]any{})
			})

			var body any
			if tc.method == http.MethodPost {
				body = map[string]string{"name": "x"}
			}

			_, err := c.do(context.Background(), tc.method, "/servers", nil, body, nil)

			assert.Equal(t, tc.calls, calls.Load())
			assert.Equal(t, tc.waits, rec.Waits())

			if tc.errorCode != "" {
				require.Error(t, err)
				assert.Equal(t, tc.errorCode, types.ErrorCode(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestClient_RateLimitWait(t *testing.T) {
	now := time.Unix(1700000000, 0)

	var calls atomic.Int32
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("RateLimit-Limit", "100")
		w.Header().Set("RateLimit-Remaining", "0")
		w.Header().Set("RateLimit-Reset", strconv.FormatInt(now.Add(10*time.Second).Unix(), 10))
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	c.now = func() time.Time { return now }

	_, err := c.do(context.Background(), http.MethodGet, "/servers", nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, rec.Waits())

	rl := c.RateLimit()
	assert.Equal(t, 100, rl.Limit)
	assert.Equal(t, 0, rl.Remaining)
	assert.Equal(t, now.Add(10*time.Second), rl.Reset)

	_, err = c.do(context.Background(), http.MethodGet, "/servers", nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{10 * time.Second}, rec.Waits())
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ErrorMapping(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		body     string
		code     string
		contains string
	}{
		{
			name:     "structured body",
			status:   http.StatusConflict,
			body:     `{"error":{"code":"uniqueness_error","message":"name is already used","details":{"field":"name"}}}`,
			code:     types.ErrCodeAPIConflict,
			contains: "name is already used",
		},
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"error":{"code":"unauthorized","message":"unable to authenticate"}}`,
			code:     types.ErrCodeAPIUnauthorized,
			contains: "unable to authenticate",
		},
		{
			name:     "forbidden",
			status:   http.StatusForbidden,
			body:     `{}`,
			code:     types.ErrCodeAPIForbidden,
			contains: "{}",
		},
		{
			name:     "plain text body",
			status:   http.StatusUnprocessableEntity,
			body:     "bad things",
			code:     types.ErrCodeAPIInvalidInput,
			contains: "bad things",
		},
		{
			name:     "empty body falls back to status text",
			status:   http.StatusBadRequest,
			code:     types.ErrCodeAPIInvalidInput,
			contains: "Bad Request",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			resp, err := c.do(context.Background(), http.MethodGet, "/servers", nil, nil, nil)
			require.Error(t, err)

			assert.Equal(t, tc.code, types.ErrorCode(err))
			assert.Contains(t, err.Error(), tc.contains)
			require.NotNil(t, resp)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{})
	})
	c.sleep = sleepContext

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.do(ctx, http.MethodGet, "/servers", nil, nil, nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeAPITransport, types.ErrorCode(err))
}

func TestExponentialBackoff(t *testing.T) {
	testCases := []struct {
		attempt int
		min     time.Duration
	}{
		{attempt: 0, min: 500 * time.Millisecond},
		{attempt: 1, min: 500 * time.Millisecond},
		{attempt: 2, min: time.Second},
		{attempt: 4, min: 4 * time.Second},
		{attempt: 20, min: 30 * time.Second},
	}

	for _, tc := range testCases {
		t.Run(strconv.Itoa(tc.attempt), func(t *testing.T) {
			d := ExponentialBackoff(tc.attempt)
			assert.GreaterOrEqual(t, d, tc.min)
			assert.LessOrEqual(t, d, tc.min+tc.min/5)
		})
	}
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	d, ok := retryAfter(http.Header{"Retry-After": []string{"3"}}, now)
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)

	d, ok = retryAfter(http.Header{"Retry-After": []string{now.Add(time.Minute).Format(http.TimeFormat)}}, now)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, d)

	_, ok = retryAfter(http.Header{}, now)
	assert.False(t, ok)
}
