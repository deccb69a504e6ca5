package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/binrc/roma-client-go/internal/apierrors"
	"github.com/binrc/roma-client-go/internal/credentials"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = time.Second
	DefaultUserAgent   = "roma-client-go"

	// LoginPath is where a Navigator is sent after a 401.
	LoginPath = "/login"

	maxBodyBytes = 16 << 20
)

// Navigator receives the redirect to the login view after a 401.
type Navigator interface {
	// Location returns the current view path.
	Location() string
	// Redirect moves to path.
	Redirect(path string)
}

type nopNavigator struct{}

func (nopNavigator) Location() string { return "" }
func (nopNavigator) Redirect(string)  {}

// Config holds configuration for creating a new Client.
type Config struct {
	// BaseURL is the resolved API root, for example https://roma.example.com/api/v1/.
	BaseURL string
	// Store supplies credentials. Defaults to an empty in-memory store.
	Store credentials.Store
	// HTTPClient performs requests. Redirects follow its CheckRedirect policy.
	HTTPClient *http.Client
	// Timeout bounds a single attempt.
	Timeout time.Duration
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// RetryDelay is the linear backoff step.
	RetryDelay time.Duration
	// Navigator is told to go to LoginPath on 401.
	Navigator Navigator
	// Logger receives request logs. Defaults to discarding them.
	Logger    *slog.Logger
	UserAgent string
}

// Client is the HTTP API client.
type Client struct {
	baseURL    string
	store      credentials.Store
	httpClient *http.Client
	timeout    time.Duration
	retry      RetryPolicy
	navigator  Navigator
	logger     *slog.Logger
	userAgent  string

	// sleep waits between attempts; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new API client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	c := &Client{
		baseURL:    cfg.BaseURL,
		store:      cfg.Store,
		httpClient: cfg.HTTPClient,
		timeout:    cfg.Timeout,
		retry:      DefaultRetryPolicy(),
		navigator:  cfg.Navigator,
		logger:     cfg.Logger,
		userAgent:  cfg.UserAgent,
		sleep:      sleepContext,
	}

	if c.store == nil {
		c.store = credentials.NewMemoryStore(credentials.Credentials{})
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if cfg.MaxAttempts > 0 {
		c.retry.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.RetryDelay > 0 {
		c.retry.BaseDelay = cfg.RetryDelay
	}
	if c.navigator == nil {
		c.navigator = nopNavigator{}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}

	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Store returns the credential store.
func (c *Client) Store() credentials.Store {
	return c.store
}

// HTTPClient returns the underlying HTTP client.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// SetHTTPClient sets a custom HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Send performs req and returns the envelope's data. A JSON null (or an
// empty body) yields nil data and a nil error. Any failure is an
// *apierrors.Error.
func (c *Client) Send(ctx context.Context, req Request) (json.RawMessage, error) {
	built, err := c.build(req)
	if err != nil {
		return nil, err
	}

	var last *apierrors.Error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.retry.Backoff(attempt - 1)
			c.logger.Debug("retrying request",
				"method", built.method,
				"url", built.logURL,
				"request_id", built.requestID,
				"attempt", attempt,
				"max_attempts", c.retry.MaxAttempts,
				"delay", delay,
				"reason", last.Kind.String())
			if err := c.sleep(ctx, delay); err != nil {
				last = canceledError(err)
				last.Attempts = attempt - 1
				break
			}
		}

		data, failure := c.attempt(ctx, built)
		if failure == nil {
			return data, nil
		}
		failure.Attempts = attempt
		last = failure
		if !failure.Retryable() || !c.retry.ShouldRetry(attempt) {
			break
		}
	}

	c.logger.Warn("request failed",
		"method", built.method,
		"url", built.logURL,
		"request_id", built.requestID,
		"kind", last.Kind.String(),
		"code", last.Code,
		"attempts", last.Attempts,
		"message", last.Message)
	return nil, last
}

// Do performs req and decodes the envelope's data into result. result may be
// nil, and is left untouched when the data is null.
func (c *Client) Do(ctx context.Context, req Request, result any) error {
	data, err := c.Send(ctx, req)
	if err != nil {
		return err
	}
	if result == nil || data == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("decode %s response data: %w", req.Path, err)
	}
	return nil
}

// attempt runs one round trip under its own deadline.
func (c *Client) attempt(ctx context.Context, b *builtRequest) (json.RawMessage, *apierrors.Error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if b.body != nil {
		body = bytes.NewReader(b.body)
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, b.method, b.url, body)
	if err != nil {
		return nil, apierrors.New(apierrors.KindInvalidRequest, err)
	}
	httpReq.Header = b.header.Clone()

	c.logger.Debug("api request",
		"method", b.method,
		"url", b.logURL,
		"request_id", b.requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(ctx, attemptCtx, err)
	}
	defer resp.Body.Close()

	if resp.Request != nil && resp.Request.URL.String() != b.url {
		c.logger.Debug("request was redirected",
			"request_id", b.requestID,
			"final_url", redactURL(resp.Request.URL.String()))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, classifyReadError(ctx, attemptCtx, err)
	}
	if len(raw) > maxBodyBytes {
		return nil, &apierrors.Error{
			Kind:    apierrors.KindReadBody,
			Message: apierrors.MsgTooLarge,
			Code:    resp.StatusCode,
			Err:     fmt.Errorf("body exceeds %d bytes", maxBodyBytes),
		}
	}

	c.logger.Debug("api response",
		"request_id", b.requestID,
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
		"duration", time.Since(start))

	data, failure := normalize(resp.StatusCode, resp.Header.Get("Content-Type"), raw)
	if failure != nil && failure.Kind == apierrors.KindUnauthorized {
		c.handleUnauthorized()
	}
	return data, failure
}

// handleUnauthorized drops every stored credential and sends the navigator
// to the login view unless it is already there.
func (c *Client) handleUnauthorized() {
	if err := c.store.Clear(); err != nil {
		c.logger.Warn("failed to clear credentials after 401", "error", err)
	}
	if c.navigator.Location() != LoginPath {
		c.navigator.Redirect(LoginPath)
	}
}

// classifyTransportError maps an error from http.Client.Do to a failure kind.
// Only a request that got no response at all ends up here.
func classifyTransportError(ctx, attemptCtx context.Context, err error) *apierrors.Error {
	if ctx.Err() != nil {
		return canceledError(ctx.Err())
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return apierrors.New(apierrors.KindTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apierrors.New(apierrors.KindTimeout, err)
	}
	return apierrors.New(apierrors.KindNetwork, err)
}

// classifyReadError maps a failure while reading the response body. The
// attempt deadline covers the body too, so running out of time mid-body is a
// timeout.
func classifyReadError(ctx, attemptCtx context.Context, err error) *apierrors.Error {
	if ctx.Err() != nil {
		return canceledError(ctx.Err())
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return apierrors.New(apierrors.KindTimeout, err)
	}
	return apierrors.New(apierrors.KindReadBody, err)
}

func canceledError(err error) *apierrors.Error {
	return apierrors.New(apierrors.KindCanceled, err)
}
