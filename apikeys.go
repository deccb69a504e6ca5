package roma

import (
	"context"
)

// ListAPIKeys lists API keys.
func (c *Client) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	return c.apiClient.GetAPIKeys(ctx)
}

// GetAPIKey retrieves an API key by ID.
func (c *Client) GetAPIKey(ctx context.Context, id int64) (*APIKey, error) {
	return c.apiClient.GetAPIKey(ctx, id)
}

// CreateAPIKey creates an API key. Use APIKey.Value to read the key; it is
// only returned once.
func (c *Client) CreateAPIKey(ctx context.Context, req APIKeyRequest) (*APIKey, error) {
	return c.apiClient.CreateAPIKey(ctx, req)
}

// DeleteAPIKey deletes the API key with the given ID.
func (c *Client) DeleteAPIKey(ctx context.Context, id int64) error {
	return c.apiClient.DeleteAPIKey(ctx, id)
}
