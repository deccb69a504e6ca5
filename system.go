package roma

import (
	"context"
)

// SystemInfo retrieves backend build details and dashboard statistics.
func (c *Client) SystemInfo(ctx context.Context) (*SystemInfo, error) {
	return c.apiClient.GetSystemInfo(ctx)
}

// Health calls the public health check. No credentials are sent.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	return c.apiClient.GetHealth(ctx)
}
