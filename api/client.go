package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/agilira/go-errors"
	"github.com/google/uuid"
	"github.com/seventv/cloudctl/constants"
	"github.com/seventv/cloudctl/logger"
	"github.com/seventv/cloudctl/types"
)

const (
	backoffBase = 500 * time.Millisecond
	backoffMax  = 30 * time.Second

	maxBodySize = 16 << 20
)

type Config struct {
	Endpoint   string
	Token      string
	Timeout    time.Duration
	MaxRetries int
	UserAgent  string

	// HTTPClient replaces the default client; Timeout is ignored when set.
	HTTPClient *http.Client
	// Backoff returns the wait before retry number attempt (starting at 1).
	Backoff func(attempt int) time.Duration
}

type RateLimit struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

type Response struct {
	StatusCode int
	RequestID  string
	RateLimit  RateLimit
	Header     http.Header
}

type Client struct {
	endpoint   string
	token      string
	userAgent  string
	http       *http.Client
	maxRetries int
	backoff    func(attempt int) time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time

	mtx       sync.Mutex
	rateLimit RateLimit

	Servers *ServerClient
	Volumes *VolumeClient
}

func NewClient(cfg Config) *Client {
	c := &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		token:      cfg.Token,
		userAgent:  cfg.UserAgent,
		http:       cfg.HTTPClient,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		sleep:      sleepContext,
		now:        time.Now,
	}

	if c.endpoint == "" {
		c.endpoint = constants.DefaultEndpoint
	}
	if c.userAgent == "" {
		c.userAgent = constants.AppName + "/" + constants.Version
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.Timeout}
	}
	if c.backoff == nil {
		c.backoff = ExponentialBackoff
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}

	c.Servers = &ServerClient{client: c}
	c.Volumes = &VolumeClient{client: c}

	return c
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) RateLimit() RateLimit {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.rateLimit
}

// ExponentialBackoff doubles from 500ms up to 30s with up to 20% jitter.
func ExponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := backoffBase
	for i := 1; i < attempt && d < backoffMax; i++ {
		d *= 2
	}
	if d > backoffMax {
		d = backoffMax
	}

	return d + time.Duration(rand.Int63n(int64(d)/5+1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) waitRateLimit(ctx context.Context) error {
	rl := c.RateLimit()
	if rl.Limit == 0 || rl.Remaining > 0 || rl.Reset.IsZero() {
		return nil
	}

	wait := rl.Reset.Sub(c.now())
	if wait <= 0 {
		return nil
	}

	logger.Debugf("rate limit exhausted, waiting %s", wait.Round(time.Second))

	return c.sleep(ctx, wait)
}

func (c *Client) updateRateLimit(h http.Header) {
	limit, err := strconv.Atoi(h.Get("RateLimit-Limit"))
	if err != nil {
		return
	}

	rl := RateLimit{Limit: limit}
	rl.Remaining, _ = strconv.Atoi(h.Get("RateLimit-Remaining"))
	if reset, err := strconv.ParseInt(h.Get("RateLimit-Reset"), 10, 64); err == nil {
		rl.Reset = time.Unix(reset, 0)
	}

	c.mtx.Lock()
	c.rateLimit = rl
	c.mtx.Unlock()
}

func retryAfter(h http.Header, now time.Time) (time.Duration, bool) {
	v := h.Get("Retry-After")
	if v == "" {
		return 0, false
	}

	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, true
	}

	if t, err := http.ParseTime(v); err == nil {
		return t.Sub(now), true
	}

	return 0, false
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	}

	return false
}

func retryableStatus(method string, status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}

	if !idempotent(method) {
		return false
	}

	return status >= http.StatusInternalServerError && status != http.StatusNotImplemented
}

// retryableTransport reports whether err happened before the request could
// have reached the server. Only dial failures qualify for non-idempotent
// methods.
func retryableTransport(method string, err error) bool {
	if idempotent(method) {
		return true
	}

	var opErr *net.OpError
	return stderrors.As(err, &opErr) && opErr.Op == "dial"
}

func (c *Client) do(ctx context.Context, method string, path string, query url.Values, body any, out any) (*Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, types.ErrCodeAPIInvalidInput, "failed to encode request body")
		}
	}

	u := c.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		if err := c.waitRateLimit(ctx); err != nil {
			return nil, errors.Wrap(err, types.ErrCodeAPITransport, "cancelled while waiting for rate limit")
		}

		resp, retry, err := c.roundTrip(ctx, method, u, payload, out)
		if err == nil {
			return resp, nil
		}

		if !retry || ctx.Err() != nil || attempt >= c.maxRetries {
			return resp, err
		}

		wait := c.backoff(attempt + 1)
		if resp != nil {
			if ra, ok := retryAfter(resp.Header, c.now()); ok {
				wait = ra
			}
		}

		logger.Debugf("%s %s failed (%s), retrying in %s", method, path, err, wait.Round(time.Millisecond))

		if err := c.sleep(ctx, wait); err != nil {
			return resp, errors.Wrap(err, types.ErrCodeAPITransport, "cancelled while retrying")
		}
	}
}

// roundTrip performs a single attempt. retry reports whether the failure is
// worth another attempt.
func (c *Client) roundTrip(ctx context.Context, method string, u string, payload []byte, out any) (*Response, bool, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, false, errors.Wrap(err, types.ErrCodeAPITransport, "failed to build request").
			WithContext("url", u)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Debugf("%s %s [%s]", method, u, requestID)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, retryableTransport(method, err), errors.Wrap(err, types.ErrCodeAPITransport, "request failed").
			WithContext("method", method).
			WithContext("url", u)
	}
	defer httpResp.Body.Close()

	c.updateRateLimit(httpResp.Header)

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		RequestID:  requestID,
		RateLimit:  c.RateLimit(),
		Header:     httpResp.Header,
	}
	if id := httpResp.Header.Get("X-Request-Id"); id != "" {
		resp.RequestID = id
	}

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	if err != nil {
		return resp, idempotent(method), errors.Wrap(err, types.ErrCodeAPITransport, "failed to read response").
			WithContext("url", u)
	}

	if httpResp.StatusCode >= 400 {
		return resp, retryableStatus(method, httpResp.StatusCode), errorFromResponse(resp, data)
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp, false, errors.Wrap(err, types.ErrCodeAPIServer, "failed to decode response").
				WithContext("request_id", resp.RequestID)
		}
	}

	return resp, false, nil
}
