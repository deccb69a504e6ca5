package roma

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/binrc/roma-client-go/internal/api"
	"github.com/binrc/roma-client-go/internal/credentials"
)

// clientConfig holds configuration for the client.
type clientConfig struct {
	httpClient *http.Client
	store      credentials.Store
	navigator  Navigator
	logger     *slog.Logger
	userAgent  string
	timeout    time.Duration
	attempts   int
	retryDelay time.Duration
}

// Option configures the client.
type Option func(*clientConfig)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the deadline of a single attempt.
// Default: 30 seconds
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithMaxAttempts sets the total number of attempts for requests that got
// no response, the first one included.
// Default: 3
func WithMaxAttempts(attempts int) Option {
	return func(c *clientConfig) {
		c.attempts = attempts
	}
}

// WithRetries sets the number of retries after the first attempt.
func WithRetries(count int) Option {
	return func(c *clientConfig) {
		c.attempts = count + 1
	}
}

// WithRetryDelay sets the linear backoff step. The wait before retry n is
// n times the delay.
// Default: 1 second
func WithRetryDelay(delay time.Duration) Option {
	return func(c *clientConfig) {
		c.retryDelay = delay
	}
}

// WithCredentialStore sets where the token and API key are read from and
// written to. Default: an in-memory store.
func WithCredentialStore(store credentials.Store) Option {
	return func(c *clientConfig) {
		c.store = store
	}
}

// WithCredentials seeds an in-memory store with creds.
func WithCredentials(creds Credentials) Option {
	return func(c *clientConfig) {
		c.store = credentials.NewMemoryStore(creds)
	}
}

// WithNavigator sets the navigator sent to the login view after a 401.
func WithNavigator(nav Navigator) Option {
	return func(c *clientConfig) {
		c.navigator = nav
	}
}

// WithLogger sets the logger for request and retry logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

func (c *clientConfig) apiConfig(baseURL string) api.Config {
	return api.Config{
		BaseURL:     baseURL,
		Store:       c.store,
		HTTPClient:  c.httpClient,
		Timeout:     c.timeout,
		MaxAttempts: c.attempts,
		RetryDelay:  c.retryDelay,
		Navigator:   c.navigator,
		Logger:      c.logger,
		UserAgent:   c.userAgent,
	}
}
