// Package apiclient talks to the workout backend's REST API.
//
// Public endpoints (login, register, health) can be called on any Client.
// Workout and routine endpoints need a Client bound to Credentials with
// WithCredentials; without a token they fail with models.ErrNotAuthenticated
// and nothing is sent.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Ryan-Har/gymsync/internal/logutil"
	"github.com/Ryan-Har/gymsync/internal/metrics"
	"github.com/Ryan-Har/gymsync/pkg/models"
)

const maxBodyBytes = 1 << 20

// Credentials supplies the bearer token and is told which token the backend refused.
type Credentials interface {
	CurrentToken() (string, bool)
	Invalidate(ctx context.Context, token string, cause error)
}

// DefaultTimeout bounds each request unless WithTimeout says otherwise.
const DefaultTimeout = 10 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
	creds      Credentials
	timeout    time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client, e.g. with httptest's.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithTimeout sets a client-wide timeout on every request. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: http.DefaultClient,
		log:        logutil.Discard(),
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	hc := *c.httpClient
	hc.Timeout = c.timeout
	c.httpClient = &hc
	c.log = c.log.With("component", "apiclient")
	return c, nil
}

// WithCredentials returns a copy of the client that authenticates with creds.
func (c *Client) WithCredentials(creds Credentials) *Client {
	cp := *c
	cp.creds = creds
	return &cp
}

// BaseURL returns the backend root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes one backend request.
type call struct {
	method string
	path   string
	// route is the path without ids, used for metrics and logs
	route string
	query url.Values
	body  any

	authed bool
	// authEndpoint maps 4xx replies to AuthRejectedError
	authEndpoint bool
	// notFoundOK treats 404 as success, used by deletes
	notFoundOK bool
}

// do sends the call and decodes a 2xx body into out when out is non-nil.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	start := time.Now()
	defer logutil.NewTimingLoggerContext(ctx, c.log, start, "backend request", "method", cl.method, "route", cl.route)()

	var token string
	if cl.authed {
		var ok bool
		if c.creds != nil {
			token, ok = c.creds.CurrentToken()
		}
		if !ok {
			return logutil.DebugAndWrapErr(c.log, "refused to send unauthenticated request",
				models.ErrNotAuthenticated, "route", cl.route)
		}
	}

	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(cl, 0, start)
		c.log.Warn("backend unreachable", "method", cl.method, "route", cl.route, "err", err)
		return models.NewNetworkError(err)
	}
	defer resp.Body.Close()
	c.observe(cl, resp.StatusCode, start)

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return models.NewNetworkError(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(respBody) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			c.log.Error("malformed backend response", "route", cl.route, "err", err)
			return models.NewServerError(resp.StatusCode, "malformed response body")
		}
		return nil
	}

	detail := parseDetail(respBody)
	switch {
	case cl.authed && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden):
		rejected := models.NewTokenRejectedError(resp.StatusCode, detail)
		c.log.Info("backend rejected token", "route", cl.route, "status", resp.StatusCode)
		c.creds.Invalidate(ctx, token, rejected)
		return rejected
	case cl.notFoundOK && resp.StatusCode == http.StatusNotFound:
		c.log.Debug("delete target already gone", "route", cl.route, "query", cl.query.Encode())
		return nil
	case cl.authEndpoint && resp.StatusCode >= 400 && resp.StatusCode < 500:
		return models.NewAuthRejectedError(resp.StatusCode, detail)
	default:
		return models.NewServerError(resp.StatusCode, detail)
	}
}

func (c *Client) observe(cl call, status int, start time.Time) {
	metrics.BackendRequestsTotal.WithLabelValues(cl.method, cl.route, metrics.RequestOutcome(status)).Inc()
	metrics.BackendRequestDuration.WithLabelValues(cl.method, cl.route).Observe(time.Since(start).Seconds())
}

// parseDetail extracts the backend's error message. Only a string detail is
// used; validation replies carry a list there and yield "".
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(envelope.Detail, &detail); err != nil {
		return ""
	}
	return detail
}
