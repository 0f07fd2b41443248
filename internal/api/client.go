// Package api is the REST client for the push server's admin API.
package api

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

	"github.com/google/uuid"
	"github.com/gorilla/schema"
	"github.com/sirupsen/logrus"
)

const maxErrorBody = 4 << 10

var queryEncoder = schema.NewEncoder()

// Client talks to one push server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	pageSize   int
	log        logrus.FieldLogger
	tracker    *PendingTracker
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithPageSize sets how many applications a page holds.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithTracker registers every request with t while it is in flight.
func WithTracker(t *PendingTracker) Option {
	return func(c *Client) {
		c.tracker = t
	}
}

// NewClient creates a client for the server rooted at baseURL (e.g. http://host/ag-push).
// Per-request deadlines come from the caller's context.
func NewClient(baseURL string, options ...Option) *Client {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		pageSize:   8,
		log:        discard,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// PageSize is the configured page size.
func (c *Client) PageSize() int { return c.pageSize }

// Applications is the push application collection.
func (c *Client) Applications() *Applications {
	return &Applications{c: c}
}

// AndroidVariants is the Android variant collection of one application.
func (c *Client) AndroidVariants(appID string) *AndroidVariants {
	return &AndroidVariants{c: c, appID: appID}
}

// do performs a request against path (relative to /rest). When out is non-nil the
// response body is decoded into it. The response headers are returned for callers
// that read metadata such as the collection total.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) (http.Header, error) {
	endpoint := c.baseURL + "/rest" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	done := c.tracker.Begin(method, path)
	defer done()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	fields := logrus.Fields{"method": method, "path": path, "request_id": requestID, "took": time.Since(start)}
	if err != nil {
		c.log.WithFields(fields).WithError(err).Debug("request failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	fields["status"] = resp.StatusCode
	c.log.WithFields(fields).Debug("request")

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.Header, &Error{Status: resp.StatusCode, Message: errorMessage(data), RequestID: requestID}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp.Header, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.Header, fmt.Errorf("%w: decode %s %s: %v", ErrMalformedResponse, method, path, err)
	}
	return resp.Header, nil
}

func encodeQuery(src any) (url.Values, error) {
	q := url.Values{}
	if err := queryEncoder.Encode(src, q); err != nil {
		return nil, err
	}
	return q, nil
}
