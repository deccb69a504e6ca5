package api

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strconv"
)

// Login exchanges a username and password for a session. The endpoint is
// public; storing the returned credentials is left to the caller.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var result LoginResponse
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "auth/login", Params: req, Public: true}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSystemInfo retrieves backend build details and statistics.
func (c *Client) GetSystemInfo(ctx context.Context) (*SystemInfo, error) {
	var result SystemInfo
	if err := c.Do(ctx, Request{Path: "system/info"}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetHealth calls the public health check.
func (c *Client) GetHealth(ctx context.Context) (map[string]any, error) {
	var result map[string]any
	if err := c.Do(ctx, Request{Path: "system/health", Public: true}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetUsers lists every user.
func (c *Client) GetUsers(ctx context.Context) ([]User, error) {
	var result []User
	if err := c.Do(ctx, Request{Path: "users"}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetUser retrieves a user by ID.
func (c *Client) GetUser(ctx context.Context, id int64) (*User, error) {
	var result User
	if err := c.Do(ctx, Request{Path: idPath("users", id)}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetCurrentUser retrieves the authenticated user. Some backend versions
// wrap the record as {"user": {...}}.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	data, err := c.Send(ctx, Request{Path: "users/me"})
	if err != nil {
		return nil, err
	}
	return decodeUser(data)
}

// CreateUser creates a user.
func (c *Client) CreateUser(ctx context.Context, req UserRequest) (*User, error) {
	var result User
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "users", Params: req}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateUser updates the user with the given ID.
func (c *Client) UpdateUser(ctx context.Context, id int64, req UserRequest) (*User, error) {
	var result User
	if err := c.Do(ctx, Request{Method: http.MethodPut, Path: idPath("users", id), Params: req}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteUser deletes the user with the given ID.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: idPath("users", id)}, nil)
}

// UpdateProfile updates the authenticated user.
func (c *Client) UpdateProfile(ctx context.Context, req UserRequest) (*User, error) {
	data, err := c.Send(ctx, Request{Method: http.MethodPut, Path: "users/me", Params: req})
	if err != nil {
		return nil, err
	}
	return decodeUser(data)
}

// GetRoles lists every role.
func (c *Client) GetRoles(ctx context.Context) ([]Role, error) {
	var result []Role
	if err := c.Do(ctx, Request{Path: "roles"}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetRole retrieves a role by ID.
func (c *Client) GetRole(ctx context.Context, id int64) (*Role, error) {
	var result Role
	if err := c.Do(ctx, Request{Path: idPath("roles", id)}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateRole creates a role.
func (c *Client) CreateRole(ctx context.Context, req RoleRequest) (*Role, error) {
	var result Role
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "roles", Params: req}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateRole updates the role with the given ID.
func (c *Client) UpdateRole(ctx context.Context, id int64, req RoleRequest) (*Role, error) {
	var result Role
	if err := c.Do(ctx, Request{Method: http.MethodPut, Path: idPath("roles", id), Params: req}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteRole deletes the role with the given ID.
func (c *Client) DeleteRole(ctx context.Context, id int64) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: idPath("roles", id)}, nil)
}

// GetResources lists resources, optionally of a single type.
func (c *Client) GetResources(ctx context.Context, resourceType string) ([]Resource, error) {
	params := map[string]any{}
	if resourceType != "" {
		params["type"] = resourceType
	}
	var result []Resource
	if err := c.Do(ctx, Request{Path: "resources", Params: params}, &result); err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Type = result[i].InferType(resourceType)
	}
	return result, nil
}

// GetResource retrieves a resource by ID. resourceType may be empty.
func (c *Client) GetResource(ctx context.Context, id int64, resourceType string) (*Resource, error) {
	params := map[string]any{}
	if resourceType != "" {
		params["type"] = resourceType
	}
	var result Resource
	if err := c.Do(ctx, Request{Path: idPath("resources", id), Params: params}, &result); err != nil {
		return nil, err
	}
	result.Type = result.InferType(resourceType)
	return &result, nil
}

// CreateResource creates resources from req. The response shape varies
// by resource type and is returned undecoded.
func (c *Client) CreateResource(ctx context.Context, req ResourceRequest) (json.RawMessage, error) {
	return c.Send(ctx, Request{Method: http.MethodPost, Path: "resources", Params: req})
}

// UpdateResource updates the resource with the given ID. The ID is also
// written into every data item, as the backend expects. The caller's items
// are copied, never modified.
func (c *Client) UpdateResource(ctx context.Context, id int64, req ResourceRequest) (json.RawMessage, error) {
	items := make([]map[string]any, len(req.Data))
	for i, item := range req.Data {
		copied := maps.Clone(item)
		if copied == nil {
			copied = make(map[string]any, 1)
		}
		copied["id"] = id
		items[i] = copied
	}
	req.Data = items
	return c.Send(ctx, Request{Method: http.MethodPut, Path: idPath("resources", id), Params: req})
}

// DeleteResource deletes the resource with the given ID and type.
func (c *Client) DeleteResource(ctx context.Context, id int64, resourceType string) error {
	req := ResourceRequest{
		Type: resourceType,
		Data: []map[string]any{{"id": id}},
	}
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: idPath("resources", id), Params: req}, nil)
}

// GetDatabaseTypes lists the database engines the backend can connect to.
func (c *Client) GetDatabaseTypes(ctx context.Context) (json.RawMessage, error) {
	return c.Send(ctx, Request{Path: "resources/database-types"})
}

// SSHCall posts params to one of the ssh/* operations: execute,
// system-info, health or batch-execute.
func (c *Client) SSHCall(ctx context.Context, operation string, params map[string]any) (json.RawMessage, error) {
	return c.Send(ctx, Request{Method: http.MethodPost, Path: "ssh/" + operation, Params: params})
}

// GetConnector retrieves connection details for a resource through its
// type-specific connector.
func (c *Client) GetConnector(ctx context.Context, resourceType string, id int64) (json.RawMessage, error) {
	return c.Send(ctx, Request{Path: connectorPath(resourceType, id)})
}

// ConnectorCommand runs a command (or, for databases, a query) through a
// resource connector.
func (c *Client) ConnectorCommand(ctx context.Context, resourceType string, id int64, params map[string]any) (json.RawMessage, error) {
	action := "command"
	if resourceType == ResourceDatabase {
		action = "query"
	}
	return c.Send(ctx, Request{
		Method: http.MethodPost,
		Path:   connectorPath(resourceType, id) + "/" + action,
		Params: params,
	})
}

// GetLogs retrieves one page of logs. kind is access, credential or audit.
func (c *Client) GetLogs(ctx context.Context, kind string, query LogQuery) (*LogPage, error) {
	var result LogPage
	if err := c.Do(ctx, Request{Path: "logs/" + kind, Params: query}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetAPIKeys lists API keys.
func (c *Client) GetAPIKeys(ctx context.Context) ([]APIKey, error) {
	var result []APIKey
	if err := c.Do(ctx, Request{Path: "apikeys"}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetAPIKey retrieves an API key by ID.
func (c *Client) GetAPIKey(ctx context.Context, id int64) (*APIKey, error) {
	var result APIKey
	if err := c.Do(ctx, Request{Path: idPath("apikeys", id)}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateAPIKey creates an API key. The key value is only returned once.
func (c *Client) CreateAPIKey(ctx context.Context, req APIKeyRequest) (*APIKey, error) {
	var result APIKey
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "apikeys", Params: req}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteAPIKey deletes the API key with the given ID.
func (c *Client) DeleteAPIKey(ctx context.Context, id int64) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: idPath("apikeys", id)}, nil)
}

// GetMySSHKey retrieves the authenticated user's public key.
func (c *Client) GetMySSHKey(ctx context.Context) (*SSHKey, error) {
	var result SSHKey
	if err := c.Do(ctx, Request{Path: "ssh-keys/me"}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadSSHKey replaces the authenticated user's key pair.
func (c *Client) UploadSSHKey(ctx context.Context, req SSHKeyUpload) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "ssh-keys/me/upload", Params: req}, nil)
}

// GenerateSSHKey asks the backend for a new key pair, replacing the
// current one.
func (c *Client) GenerateSSHKey(ctx context.Context) (*SSHKey, error) {
	var result SSHKey
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "ssh-keys/me/generate"}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSpaces lists spaces.
func (c *Client) GetSpaces(ctx context.Context) ([]Space, error) {
	var result []Space
	if err := c.Do(ctx, Request{Path: "spaces"}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetSpace retrieves a space and its members.
func (c *Client) GetSpace(ctx context.Context, id int64) (*Space, error) {
	var result Space
	if err := c.Do(ctx, Request{Path: idPath("spaces", id)}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateSpace creates a space.
func (c *Client) CreateSpace(ctx context.Context, req SpaceRequest) (*Space, error) {
	var result Space
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "spaces", Params: req}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AddSpaceMember adds a user to a space.
func (c *Client) AddSpaceMember(ctx context.Context, spaceID, userID int64) error {
	return c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   idPath("spaces", spaceID) + "/members",
		Params: SpaceMemberRequest{UserID: userID},
	}, nil)
}

// RemoveSpaceMember removes a user from a space.
func (c *Client) RemoveSpaceMember(ctx context.Context, spaceID, userID int64) error {
	return c.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   idPath("spaces", spaceID) + "/members",
		Params: SpaceMemberRequest{UserID: userID},
	}, nil)
}

// GetBlacklist lists one page of banned addresses.
func (c *Client) GetBlacklist(ctx context.Context, page, pageSize int) (*BlacklistPage, error) {
	params := map[string]any{"page": page, "page_size": pageSize}
	var result BlacklistPage
	if err := c.Do(ctx, Request{Path: "blacklist", Params: params}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetBlacklistEntry retrieves the ban record and geolocation for ip.
func (c *Client) GetBlacklistEntry(ctx context.Context, ip string) (*BlacklistDetail, error) {
	var result BlacklistDetail
	if err := c.Do(ctx, Request{Path: "blacklist/" + url.PathEscape(ip)}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AddToBlacklist bans an address.
func (c *Client) AddToBlacklist(ctx context.Context, req BlacklistRequest) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "blacklist", Params: req}, nil)
}

// RemoveFromBlacklist lifts the ban on ip.
func (c *Client) RemoveFromBlacklist(ctx context.Context, ip string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: "blacklist/" + url.PathEscape(ip)}, nil)
}

// GetIPInfo retrieves geolocation for any address.
func (c *Client) GetIPInfo(ctx context.Context, ip string) (*IPInfo, error) {
	var result IPInfo
	if err := c.Do(ctx, Request{Path: "blacklist/ip-info/" + url.PathEscape(ip)}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func idPath(collection string, id int64) string {
	return collection + "/" + strconv.FormatInt(id, 10)
}

func connectorPath(resourceType string, id int64) string {
	return fmt.Sprintf("connectors/%s/%d", url.PathEscape(resourceType), id)
}

// decodeUser accepts a bare user record or one wrapped as {"user": {...}}.
func decodeUser(data json.RawMessage) (*User, error) {
	if data == nil {
		return &User{}, nil
	}
	var wrapped struct {
		User *User `json:"user"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}
	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}
