// Package client provides the Microsoft Graph REST client used by the
// attendance exporter. It handles authentication, request pacing, retry
// logic, and throttling responses.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	umerrors "github.com/dylanstetts/user-meeting-attendance/pkg/errors"
	"github.com/dylanstetts/user-meeting-attendance/pkg/logging"
	"github.com/dylanstetts/user-meeting-attendance/pkg/metrics"
)

// Default client settings.
const (
	DefaultBaseURL        = "https://graph.microsoft.com/v1.0"
	DefaultRequestTimeout = 2 * time.Minute
	DefaultMaxRetries     = 5
	DefaultRetryBaseDelay = 2 * time.Second
	DefaultThrottleDelay  = 60 * time.Second
	DefaultRequestDelay   = 500 * time.Millisecond
)

// TokenSource supplies bearer tokens for Graph requests.
type TokenSource interface {
	// Token returns a valid bearer token, refreshing it if necessary.
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a TokenSource that always yields the same token.
func StaticTokenSource(token string) TokenSource {
	return staticTokenSource(token)
}

type staticTokenSource string

func (s staticTokenSource) Token(_ context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("empty bearer token: %w", umerrors.ErrUnauthorized)
	}
	return string(s), nil
}

// Options configures the Graph client behavior.
type Options struct {
	// BaseURL is the Graph API root. Overridable for tests and
	// sovereign-cloud tenants.
	BaseURL string

	// RequestTimeout bounds a single HTTP round trip.
	RequestTimeout time.Duration

	// MaxRetries is the maximum number of retry attempts for transient and
	// throttled failures. After the cap the error propagates to the caller.
	MaxRetries int

	// RetryBaseDelay is multiplied by the attempt index for transient backoff.
	RetryBaseDelay time.Duration

	// ThrottleDelay is the suspend duration for a 429 response that carries
	// no Retry-After header.
	ThrottleDelay time.Duration

	// RequestDelay is a fixed pause inserted before every request to stay
	// under the platform rate limit. This is a deliberate throttle.
	RequestDelay time.Duration

	// HTTPClient overrides the underlying HTTP client (tests).
	HTTPClient *http.Client
}

// DefaultOptions returns Options populated with the default settings.
func DefaultOptions() *Options {
	return &Options{
		BaseURL:        DefaultBaseURL,
		RequestTimeout: DefaultRequestTimeout,
		MaxRetries:     DefaultMaxRetries,
		RetryBaseDelay: DefaultRetryBaseDelay,
		ThrottleDelay:  DefaultThrottleDelay,
		RequestDelay:   DefaultRequestDelay,
	}
}

// Client is the Microsoft Graph REST client.
type Client struct {
	baseURL string
	opts    *Options
	http    *http.Client
	tokens  TokenSource
	log     logging.Logger
	metrics *metrics.RunMetrics

	// sleep is swappable so tests run without real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Graph client. A nil opts uses DefaultOptions; a nil logger
// discards logs; a nil m disables metrics.
func New(tokens TokenSource, opts *Options, log logging.Logger, m *metrics.RunMetrics) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if opts.ThrottleDelay <= 0 {
		opts.ThrottleDelay = DefaultThrottleDelay
	}
	if log == nil {
		log = logging.NopLogger()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.RequestTimeout}
	}

	return &Client{
		baseURL: opts.BaseURL,
		opts:    opts,
		http:    httpClient,
		tokens:  tokens,
		log:     log,
		metrics: m,
		sleep:   sleepContext,
	}
}

// RequestError describes a failed Graph request.
type RequestError struct {
	StatusCode int
	Code       umerrors.ErrorCode
	Message    string
	RequestID  string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("graph request failed: %s (status %d, code %s, request-id %s)",
			e.Message, e.StatusCode, e.Code, e.RequestID)
	}
	return fmt.Sprintf("graph request failed: %s (status %d, code %s)", e.Message, e.StatusCode, e.Code)
}

// Unwrap maps the failure onto the matching domain sentinel so callers can
// use errors.Is.
func (e *RequestError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return umerrors.ErrNotFound
	case http.StatusUnauthorized:
		return umerrors.ErrUnauthorized
	case http.StatusForbidden:
		return umerrors.ErrForbidden
	case http.StatusTooManyRequests:
		return umerrors.ErrThrottled
	}
	return nil
}

// graphErrorBody is the error envelope Graph returns on failures.
type graphErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Get issues a GET against a Graph path (relative to the base URL) with the
// given query values and decodes the JSON response into out. The raw response
// body is returned as well for callers that persist debug payloads.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.GetURL(ctx, u, out)
}

// GetURL issues a GET against an absolute URL (used for @odata.nextLink
// continuation) and decodes the JSON response into out.
func (c *Client) GetURL(ctx context.Context, fullURL string, out interface{}) ([]byte, error) {
	body, err := c.do(ctx, http.MethodGet, fullURL)
	if err != nil {
		return nil, err
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, &RequestError{
				StatusCode: http.StatusOK,
				Code:       umerrors.CodeDecode,
				Message:    fmt.Sprintf("decoding response from %s: %v", fullURL, err),
			}
		}
	}
	return body, nil
}

// do executes a single logical request with pacing, retries, and throttle
// handling. Every external call is a blocking round trip; the configured
// fixed delay is inserted before each one.
func (c *Client) do(ctx context.Context, method, fullURL string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.opts.MaxRetries+1; attempt++ {
		if c.opts.RequestDelay > 0 {
			if err := c.sleep(ctx, c.opts.RequestDelay); err != nil {
				return nil, err
			}
		}

		body, retryAfter, err := c.doOnce(ctx, method, fullURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var reqErr *RequestError
		code := umerrors.CodeTransient
		if errors.As(err, &reqErr) {
			code = reqErr.Code
		}
		if !umerrors.IsRetryable(code) {
			return nil, err
		}
		if attempt > c.opts.MaxRetries {
			break
		}

		var delay time.Duration
		if code == umerrors.CodeThrottled {
			// Honor the server-specified delay when present, else the default.
			delay = c.opts.ThrottleDelay
			if retryAfter > 0 {
				delay = retryAfter
			}
			c.countThrottle()
			c.log.Warn("throttled by Graph, suspending",
				logging.F("url", fullURL),
				logging.F("delay", delay),
				logging.F("attempt", attempt))
		} else {
			// Capped linear backoff: attempt index times the base delay.
			delay = time.Duration(attempt) * c.opts.RetryBaseDelay
			c.countRetry()
			c.log.Warn("transient request failure, retrying",
				logging.F("url", fullURL),
				logging.Err(err),
				logging.F("delay", delay),
				logging.F("attempt", attempt))
		}

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("retries exhausted after %d attempts: %w", c.opts.MaxRetries+1, lastErr)
}

// doOnce performs one HTTP round trip. It returns the parsed Retry-After
// duration alongside a throttled error so do can honor it.
func (c *Client) doOnce(ctx context.Context, method, fullURL string) ([]byte, time.Duration, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquiring token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	// Zone-less datetimes in responses are only UTC because we ask for it.
	req.Header.Set("Prefer", `outlook.timezone="UTC"`)

	c.countRequest(method)

	resp, err := c.http.Do(req)
	if err != nil {
		code := umerrors.CodeTransient
		if errors.Is(err, context.DeadlineExceeded) {
			code = umerrors.CodeTimeout
		}
		return nil, 0, &RequestError{
			Code:    code,
			Message: fmt.Sprintf("executing %s %s: %v", method, fullURL, err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &RequestError{
			StatusCode: resp.StatusCode,
			Code:       umerrors.CodeTransient,
			Message:    fmt.Sprintf("reading response body: %v", err),
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, 0, nil
	}

	reqErr := &RequestError{
		StatusCode: resp.StatusCode,
		Code:       codeForStatus(resp.StatusCode),
		Message:    messageFromBody(body, resp.Status),
		RequestID:  resp.Header.Get("request-id"),
	}

	var retryAfter time.Duration
	if resp.StatusCode == http.StatusTooManyRequests {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs > 0 {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
	}

	return nil, retryAfter, reqErr
}

// codeForStatus maps an HTTP status to an error code.
func codeForStatus(status int) umerrors.ErrorCode {
	switch {
	case status == http.StatusTooManyRequests:
		return umerrors.CodeThrottled
	case status == http.StatusNotFound:
		return umerrors.CodeNotFound
	case status == http.StatusUnauthorized:
		return umerrors.CodeUnauthorized
	case status == http.StatusForbidden:
		return umerrors.CodeForbidden
	case status == http.StatusBadRequest:
		return umerrors.CodeBadRequest
	case status >= 500:
		return umerrors.CodeTransient
	default:
		return umerrors.CodeUnknown
	}
}

// messageFromBody extracts the Graph error message, falling back to the
// HTTP status line.
func messageFromBody(body []byte, statusLine string) string {
	var envelope graphErrorBody
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		if envelope.Error.Code != "" {
			return envelope.Error.Code + ": " + envelope.Error.Message
		}
		return envelope.Error.Message
	}
	return statusLine
}

// sleepContext sleeps for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) countRequest(method string) {
	if c.metrics != nil {
		c.metrics.Requests.WithLabelValues(method).Inc()
	}
}

func (c *Client) countRetry() {
	if c.metrics != nil {
		c.metrics.Retries.Inc()
	}
}

func (c *Client) countThrottle() {
	if c.metrics != nil {
		c.metrics.ThrottleSuspends.Inc()
	}
}
