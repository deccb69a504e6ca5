package roma

import (
	"context"
)

// ListUsers lists every user.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	return c.apiClient.GetUsers(ctx)
}

// GetUser retrieves a user by ID.
func (c *Client) GetUser(ctx context.Context, id int64) (*User, error) {
	return c.apiClient.GetUser(ctx, id)
}

// CurrentUser retrieves the authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	return c.apiClient.GetCurrentUser(ctx)
}

// CreateUser creates a user. Nil fields of req are not sent.
func (c *Client) CreateUser(ctx context.Context, req UserRequest) (*User, error) {
	return c.apiClient.CreateUser(ctx, req)
}

// UpdateUser updates the user with the given ID. Nil fields of req are left
// unchanged.
func (c *Client) UpdateUser(ctx context.Context, id int64, req UserRequest) (*User, error) {
	return c.apiClient.UpdateUser(ctx, id, req)
}

// DeleteUser deletes the user with the given ID.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.apiClient.DeleteUser(ctx, id)
}

// UpdateProfile updates the authenticated user. A changed email or username
// is written back to the credential store.
func (c *Client) UpdateProfile(ctx context.Context, req UserRequest) (*User, error) {
	user, err := c.apiClient.UpdateProfile(ctx, req)
	if err != nil {
		return nil, err
	}

	creds, err := c.Store().Get()
	if err == nil && !creds.Empty() {
		if user.Username != "" {
			creds.Username = user.Username
		}
		if user.Email != "" {
			creds.Email = user.Email
		}
		_ = c.Store().Set(creds)
	}
	return user, nil
}

// ListRoles lists every role.
func (c *Client) ListRoles(ctx context.Context) ([]Role, error) {
	return c.apiClient.GetRoles(ctx)
}

// GetRole retrieves a role by ID.
func (c *Client) GetRole(ctx context.Context, id int64) (*Role, error) {
	return c.apiClient.GetRole(ctx, id)
}

// CreateRole creates a role.
func (c *Client) CreateRole(ctx context.Context, req RoleRequest) (*Role, error) {
	return c.apiClient.CreateRole(ctx, req)
}

// UpdateRole updates the role with the given ID.
func (c *Client) UpdateRole(ctx context.Context, id int64, req RoleRequest) (*Role, error) {
	return c.apiClient.UpdateRole(ctx, id, req)
}

// DeleteRole deletes the role with the given ID.
func (c *Client) DeleteRole(ctx context.Context, id int64) error {
	return c.apiClient.DeleteRole(ctx, id)
}
