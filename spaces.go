package roma

import (
	"context"
	"errors"
	"strings"
)

// ListSpaces lists spaces.
func (c *Client) ListSpaces(ctx context.Context) ([]Space, error) {
	return c.apiClient.GetSpaces(ctx)
}

// GetSpace retrieves a space and its members.
func (c *Client) GetSpace(ctx context.Context, id int64) (*Space, error) {
	return c.apiClient.GetSpace(ctx, id)
}

// CreateSpace creates a space.
func (c *Client) CreateSpace(ctx context.Context, req SpaceRequest) (*Space, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, &ValidationError{Field: "name", Err: errors.New("must not be empty")}
	}
	return c.apiClient.CreateSpace(ctx, req)
}

// AddSpaceMember adds a user to a space.
func (c *Client) AddSpaceMember(ctx context.Context, spaceID, userID int64) error {
	return c.apiClient.AddSpaceMember(ctx, spaceID, userID)
}

// RemoveSpaceMember removes a user from a space.
func (c *Client) RemoveSpaceMember(ctx context.Context, spaceID, userID int64) error {
	return c.apiClient.RemoveSpaceMember(ctx, spaceID, userID)
}
