// Package upstream holds the HTTP plumbing shared by the third-party API
// clients: request building, retries of idempotent calls, rate limiting,
// error classification and metrics.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"git.home.luguber.info/inful/snapfront/internal/foundation/errors"
	"git.home.luguber.info/inful/snapfront/internal/logfields"
	"git.home.luguber.info/inful/snapfront/internal/metrics"
	"git.home.luguber.info/inful/snapfront/internal/retry"
	"git.home.luguber.info/inful/snapfront/internal/version"
)

// maxErrorBody bounds how much of an error response is kept for diagnostics.
const maxErrorBody = 4096

// ErrorDecoder turns an error response body into a service specific error.
// Returning nil falls back to the generic classification.
type ErrorDecoder func(status int, body []byte) error

// Client performs JSON requests against one third-party API.
type Client struct {
	service       string
	httpClient    *http.Client
	baseURL       string
	customHeaders map[string]string
	policy        retry.Policy
	recorder      metrics.Recorder
	logger        *slog.Logger
	limiter       *rate.Limiter
	decodeError   ErrorDecoder
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithHeader sets a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.customHeaders[key] = value }
}

// WithRetryPolicy sets the backoff used for idempotent requests.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRateLimit throttles outbound requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

// WithErrorDecoder installs a service specific error body decoder.
func WithErrorDecoder(d ErrorDecoder) Option {
	return func(c *Client) { c.decodeError = d }
}

// New creates a Client for the API rooted at baseURL.
func New(service, baseURL string, opts ...Option) *Client {
	c := &Client{
		service:       service,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		customHeaders: make(map[string]string),
		policy:        retry.DefaultPolicy(),
		recorder:      metrics.NoopRecorder{},
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Service returns the service label used in logs and metrics.
func (c *Client) Service() string { return c.service }

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Recorder returns the metrics recorder.
func (c *Client) Recorder() metrics.Recorder { return c.recorder }

// Logger returns the client logger.
func (c *Client) Logger() *slog.Logger { return c.logger }

// NewRequest creates a request for endpoint (relative to the base URL).
// A non-nil body is JSON encoded.
func (c *Client) NewRequest(ctx context.Context, method, endpoint string, query url.Values, body any) (*http.Request, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.ConfigError("failed to parse API URL").
			WithCause(err).
			WithContext("service", c.service).
			WithContext("api_url", c.baseURL).
			Build()
	}
	u.Path = path.Join(strings.TrimSuffix(u.Path, "/"), strings.TrimPrefix(endpoint, "/"))
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.InternalError("failed to marshal request body").
				WithCause(err).
				WithContext("service", c.service).
				Build()
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, errors.InternalError("failed to create request").
			WithCause(err).
			WithContext("method", method).
			WithContext("url", u.String()).
			Build()
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "snapfront/"+version.Version)
	for key, value := range c.customHeaders {
		req.Header.Set(key, value)
	}
	return req, nil
}

// Do executes req and decodes a JSON response into result when non-nil.
// GET requests are retried on network errors and 5xx responses according to
// the retry policy. The response headers are returned on success.
func (c *Client) Do(req *http.Request, operation string, result any) (http.Header, error) {
	ctx := req.Context()
	retryable := req.Method == http.MethodGet || req.Method == http.MethodHead

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			c.recorder.IncUpstreamRetry(c.service)
			if err := c.policy.Wait(ctx, attempt); err != nil {
				return nil, errors.NetworkError("request cancelled while waiting to retry").
					WithCause(err).
					WithContext("service", c.service).
					Build()
			}
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, errors.InternalError("failed to rewind request body").WithCause(err).Build()
				}
				req.Body = body
			}
		}

		header, err := c.once(req, operation, result)
		if err == nil {
			return header, nil
		}
		if !retryable || attempt >= c.policy.MaxRetries || !errors.CanRetry(err) || ctx.Err() != nil {
			return nil, err
		}
		c.logger.Warn("Retrying upstream request",
			logfields.Service(c.service),
			logfields.URL(req.URL.Redacted()),
			logfields.Attempt(attempt+1),
			logfields.Error(err))
	}
}

func (c *Client) once(req *http.Request, operation string, result any) (http.Header, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, errors.NetworkError("rate limiter wait aborted").
				WithCause(err).
				WithContext("service", c.service).
				Build()
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recorder.ObserveUpstreamRequest(c.service, operation, metrics.ResultNetwork, time.Since(start))
		return nil, errors.NetworkError(fmt.Sprintf("failed to execute %s request", c.service)).
			WithCause(err).
			WithContext("method", req.Method).
			WithContext("url", req.URL.Redacted()).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	elapsed := time.Since(start)
	c.recorder.ObserveUpstreamRequest(c.service, operation, metrics.ResultForStatus(resp.StatusCode), elapsed)
	c.logger.Debug("Upstream request",
		logfields.Service(c.service),
		logfields.Method(req.Method),
		logfields.URL(req.URL.Redacted()),
		logfields.Status(resp.StatusCode),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000))

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, c.classify(req, resp, body)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil && err != io.EOF {
			return nil, errors.UpstreamError(fmt.Sprintf("failed to decode %s response", c.service)).
				WithCause(err).
				WithContext("url", req.URL.Redacted()).
				Build()
		}
	}
	return resp.Header, nil
}

func (c *Client) classify(req *http.Request, resp *http.Response, body []byte) error {
	if c.decodeError != nil {
		if err := c.decodeError(resp.StatusCode, body); err != nil {
			return err
		}
	}

	message := fmt.Sprintf("%s API error: %s", c.service, resp.Status)
	var b *errors.ErrorBuilder
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		b = errors.AuthError(message)
	case resp.StatusCode == http.StatusForbidden:
		b = errors.ForbiddenError(message)
	case resp.StatusCode == http.StatusNotFound:
		b = errors.NotFoundError(message)
	case resp.StatusCode == http.StatusTooManyRequests:
		b = errors.UpstreamError(message).RateLimit()
	case resp.StatusCode >= 500:
		b = errors.UpstreamError(message).Retryable()
	default:
		b = errors.UpstreamError(message)
	}
	return b.
		WithContext("service", c.service).
		WithContext("code", resp.StatusCode).
		WithContext("url", req.URL.Redacted()).
		WithContext("response", strings.ReplaceAll(string(body), "\n", " ")).
		Build()
}

// StatusCode extracts the upstream HTTP status recorded on a classified error.
func StatusCode(err error) int {
	if c, ok := errors.AsClassified(err); ok {
		if code, ok := c.Context().GetInt("code"); ok {
			return code
		}
	}
	return 0
}
