// Package apiclient provides the two pre-configured HTTP clients of the portal:
// one for the REST backend and one for the AI inference server.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/student-ai-platform/internal/circuitbreaker"
	"github.com/student-ai-platform/internal/config"
	apperrors "github.com/student-ai-platform/internal/errors"
	"github.com/student-ai-platform/internal/logging"
	"github.com/student-ai-platform/internal/metrics"
	"github.com/student-ai-platform/internal/notify"
)

// Client names used in logs and metrics
const (
	NameBackend  = "backend"
	NameAIServer = "ai-server"
)

// uploadPathMarker identifies requests whose errors are rendered inline by the caller
const uploadPathMarker = "/upload-document"

// TokenSource supplies the bearer token and receives session expiry side effects
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	ClearToken(ctx context.Context) error
	SetRedirect(ctx context.Context, location string) error
}

// Client is an HTTP client bound to one base URL
type Client struct {
	name     string
	baseURL  string
	timeout  time.Duration
	http     *http.Client
	tokens   TokenSource
	notifier *notify.Publisher
	limiter  *rate.Limiter
	breaker  *circuitbreaker.CircuitBreaker
	metrics  *metrics.Registry
	logger   *logging.Logger
	location func() string
}

// Option configures a Client
type Option func(*Client)

// WithTokenStore sets the bearer token source
func WithTokenStore(tokens TokenSource) Option {
	return func(c *Client) { c.tokens = tokens }
}

// WithNotifier routes error notifications to pub
func WithNotifier(pub *notify.Publisher) Option {
	return func(c *Client) { c.notifier = pub }
}

// WithLimiter throttles outgoing requests
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithBreaker fails fast once the remote service keeps failing
func WithBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

// WithMetrics records request counts and latency
func WithMetrics(m *metrics.Registry) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the underlying transport client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLocation reports the view the user is on, remembered when a session expires
func WithLocation(fn func() string) Option {
	return func(c *Client) { c.location = fn }
}

// New creates a client for baseURL with a default per-request timeout
func New(name, baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		name:     name,
		baseURL:  strings.TrimRight(baseURL, "/"),
		timeout:  timeout,
		http:     &http.Client{},
		notifier: notify.NewPublisher(nil, nil),
		logger:   logging.GetGlobalLogger(),
		location: func() string { return "" },
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent(name)
	return c
}

// NewBackend creates the REST backend client rooted at <BACKEND_URL>/api
func NewBackend(cfg *config.BackendConfig, opts ...Option) *Client {
	return New(NameBackend, cfg.APIBase(), cfg.Timeout, opts...)
}

// NewAIServer creates the AI server client with throttling and a circuit breaker
func NewAIServer(cfg *config.AIServerConfig, opts ...Option) *Client {
	base := []Option{
		WithLimiter(rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)),
		WithBreaker(circuitbreaker.NewCircuitBreaker(&circuitbreaker.Config{
			Name:             NameAIServer,
			MaxFailures:      cfg.BreakerThreshold,
			Timeout:          cfg.BreakerTimeout,
			HalfOpenMaxCalls: 1,
			ShouldTrip:       tripsBreaker,
		})),
	}
	return New(NameAIServer, cfg.URL, cfg.Timeout, append(base, opts...)...)
}

// BreakerStats reports the circuit breaker of the client, or nil when it has none
func (c *Client) BreakerStats() *circuitbreaker.Stats {
	if c.breaker == nil {
		return nil
	}
	return c.breaker.GetStats()
}

// tripsBreaker counts only outages, not request errors the caller caused
func tripsBreaker(err error) bool {
	return apperrors.IsNetwork(err) || apperrors.IsSystemError(err)
}

// Name returns the client name
func (c *Client) Name() string {
	return c.name
}

// Request describes a single call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is encoded as JSON unless Form is set
	Body interface{}
	Form *Form
	// Timeout overrides the client default when positive
	Timeout time.Duration
	// Silent suppresses error notifications
	Silent bool
}

// Get issues a GET and decodes the body into out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post issues a POST with a JSON body
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put issues a PUT with a JSON body
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Delete issues a DELETE
func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, out)
}

// Upload posts a multipart form with its own timeout
func (c *Client) Upload(ctx context.Context, path string, form *Form, timeout time.Duration, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Form: form, Timeout: timeout}, out)
}

// Do executes req and decodes a 2xx JSON body into out when out is non-nil.
// Failures are returned as categorized errors and, unless suppressed, notified.
// Requests are never retried.
func (c *Client) Do(ctx context.Context, req Request, out interface{}) error {
	silent := req.Silent || strings.Contains(req.Path, uploadPathMarker)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return apperrors.NewNetworkError(c.name, err)
		}
	}

	var body []byte
	run := func() error {
		var err error
		body, err = c.roundTrip(ctx, req)
		return err
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(ctx, run)
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			err = apperrors.NewUnavailableError(c.name, err)
			if !silent {
				c.notifier.Error(ctx, notify.ServiceUnavailable, c.name)
			}
			return err
		}
	} else {
		err = run()
	}

	if err != nil {
		c.handleError(ctx, err, silent)
		return err
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("invalid response from %s %s", req.Method, req.Path), err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, req Request) ([]byte, error) {
	timeout := c.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.ObserveRequest(c.name, req.Method, 0, time.Since(start))
		c.logger.WithError(err).WithField("path", req.Path).Warn("Request failed without response")
		return nil, apperrors.NewNetworkError(c.name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.metrics.ObserveRequest(c.name, req.Method, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, apperrors.NewNetworkError(c.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newStatusError(resp.StatusCode, data)
	}
	return data, nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var (
		reader      io.Reader
		contentType string
	)
	switch {
	case req.Form != nil:
		buf, ct, err := req.Form.encode()
		if err != nil {
			return nil, apperrors.NewInternalError("failed to encode form", err)
		}
		reader, contentType = buf, ct
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to encode request body", err)
		}
		reader, contentType = bytes.NewReader(data), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build request", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			c.logger.WithError(err).Warn("Failed to read auth token")
		} else if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return httpReq, nil
}

// newStatusError keeps the decoded error body in Details["body"]
func newStatusError(status int, data []byte) *apperrors.CategorizedError {
	var parsed map[string]interface{}
	_ = json.Unmarshal(data, &parsed)

	message, _ := parsed["message"].(string)
	err := apperrors.NewHTTPError(status, message)
	if parsed != nil {
		err.Details = map[string]interface{}{"body": parsed}
	}
	return err
}

// ErrorBody returns the decoded JSON error body carried by err, if any
func ErrorBody(err error) map[string]interface{} {
	var catErr *apperrors.CategorizedError
	if !errors.As(err, &catErr) || catErr.Details == nil {
		return nil
	}
	body, _ := catErr.Details["body"].(map[string]interface{})
	return body
}

// serverMessage returns the message the server attached to an error response
func serverMessage(err error) string {
	msg, _ := ErrorBody(err)["message"].(string)
	return msg
}

// handleError applies the session and notification side effects of a failed request
func (c *Client) handleError(ctx context.Context, err error, silent bool) {
	status := apperrors.StatusCode(err)

	if status == http.StatusUnauthorized {
		c.expireSession(ctx)
	}
	if silent {
		return
	}

	switch {
	case apperrors.IsNetwork(err):
		c.notifier.Error(ctx, notify.HTTPNetwork)
	case status == http.StatusBadRequest:
		c.notifyServerMessage(ctx, err, notify.HTTPBadRequest)
	case status == http.StatusUnauthorized:
		c.notifier.Error(ctx, notify.HTTPSessionExpired)
	case status == http.StatusForbidden:
		c.notifier.Error(ctx, notify.HTTPForbidden)
	case status == http.StatusNotFound:
		c.notifier.Error(ctx, notify.HTTPNotFound)
	case status == http.StatusTooManyRequests:
		c.notifier.Error(ctx, notify.HTTPRateLimited)
	case status >= http.StatusInternalServerError:
		c.notifier.Error(ctx, notify.HTTPServerError)
	case status != 0:
		c.notifyServerMessage(ctx, err, notify.HTTPUnknown)
	default:
		c.notifier.Error(ctx, notify.HTTPUnexpected)
	}
}

func (c *Client) notifyServerMessage(ctx context.Context, err error, fallback notify.Key) {
	if msg := serverMessage(err); msg != "" {
		c.notifier.Raw(ctx, notify.LevelError, msg)
		return
	}
	c.notifier.Error(ctx, fallback)
}

// expireSession drops the token and remembers where the user was
func (c *Client) expireSession(ctx context.Context) {
	if c.tokens == nil {
		return
	}
	if err := c.tokens.ClearToken(ctx); err != nil {
		c.logger.WithError(err).Warn("Failed to clear expired token")
	}

	location := c.location()
	if location == "" || location == "/" || strings.Contains(location, "/login") {
		return
	}
	if err := c.tokens.SetRedirect(ctx, location); err != nil {
		c.logger.WithError(err).Warn("Failed to store redirect location")
	}
}

// Download streams a file body to w; the client timeout applies when set
func (c *Client) Download(ctx context.Context, path string, w io.Writer) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := c.newRequest(ctx, Request{Method: http.MethodGet, Path: path})
	if err == nil {
		var resp *http.Response
		resp, err = c.http.Do(httpReq)
		if err == nil {
			defer resp.Body.Close()
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				err = apperrors.NewHTTPError(resp.StatusCode, "")
			} else {
				_, err = io.Copy(w, resp.Body)
			}
		}
	}
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("Download failed")
		c.notifier.Error(ctx, notify.HTTPDownloadFailed)
	}
	return err
}
