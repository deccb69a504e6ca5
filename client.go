package roma

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/binrc/roma-client-go/internal/api"
	"github.com/binrc/roma-client-go/internal/credentials"
)

// Client is the ROMA API client. It is safe for concurrent use.
type Client struct {
	apiClient *api.Client
}

// New creates a client for the API root at baseURL, for example
// https://roma.example.com/api/v1/. Paths of every call are joined to it.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrMissingBaseURL
	}

	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	apiClient, err := api.NewClient(cfg.apiConfig(baseURL))
	if err != nil {
		return nil, err //coverage:ignore
	}

	return &Client{apiClient: apiClient}, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.apiClient.BaseURL()
}

// Store returns the credential store the client reads on every request.
func (c *Client) Store() credentials.Store {
	return c.apiClient.Store()
}

// Do sends params to path with the given method and decodes the response
// data into result, which may be nil. GET sends params as the query string
// and other methods as a JSON body.
func (c *Client) Do(ctx context.Context, method, path string, params, result any) error {
	return c.apiClient.Do(ctx, rawRequest(method, path, params), result)
}

// DoRaw is like Do but returns the response data undecoded. The data is nil
// when the backend sent null or an empty body.
func (c *Client) DoRaw(ctx context.Context, method, path string, params any) (json.RawMessage, error) {
	return c.apiClient.Send(ctx, rawRequest(method, path, params))
}

func rawRequest(method, path string, params any) api.Request {
	if method == "" {
		method = http.MethodGet
	}
	return api.Request{
		Method: strings.ToUpper(method),
		Path:   path,
		Params: params,
	}
}
