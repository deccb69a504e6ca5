package roma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// ListResources lists resources of resourceType, or of every type when it
// is empty. Records without a type get one inferred from their name fields.
func (c *Client) ListResources(ctx context.Context, resourceType string) ([]Resource, error) {
	if err := checkResourceType(resourceType, true); err != nil {
		return nil, err
	}
	return c.apiClient.GetResources(ctx, resourceType)
}

// GetResource retrieves a resource by ID. resourceType may be empty.
func (c *Client) GetResource(ctx context.Context, id int64, resourceType string) (*Resource, error) {
	if err := checkResourceType(resourceType, true); err != nil {
		return nil, err
	}
	return c.apiClient.GetResource(ctx, id, resourceType)
}

// CreateResource creates one resource per item of req.Data. The response
// shape depends on the resource type and is returned undecoded.
func (c *Client) CreateResource(ctx context.Context, req ResourceRequest) (json.RawMessage, error) {
	if err := checkResourceRequest(req); err != nil {
		return nil, err
	}
	return c.apiClient.CreateResource(ctx, req)
}

// UpdateResource replaces the resource with the given ID by the single item
// of req.Data.
func (c *Client) UpdateResource(ctx context.Context, id int64, req ResourceRequest) (json.RawMessage, error) {
	if err := checkResourceRequest(req); err != nil {
		return nil, err
	}
	if len(req.Data) != 1 {
		return nil, &ValidationError{Field: "data", Err: errors.New("exactly one item is required")}
	}
	return c.apiClient.UpdateResource(ctx, id, req)
}

// DeleteResource deletes the resource with the given ID and type.
func (c *Client) DeleteResource(ctx context.Context, id int64, resourceType string) error {
	if err := checkResourceType(resourceType, false); err != nil {
		return err
	}
	return c.apiClient.DeleteResource(ctx, id, resourceType)
}

// DatabaseTypes lists the database engines the backend can connect to.
func (c *Client) DatabaseTypes(ctx context.Context) (json.RawMessage, error) {
	return c.apiClient.GetDatabaseTypes(ctx)
}

// Connector retrieves connection details for a resource.
func (c *Client) Connector(ctx context.Context, resourceType string, id int64) (json.RawMessage, error) {
	if err := checkResourceType(resourceType, false); err != nil {
		return nil, err
	}
	return c.apiClient.GetConnector(ctx, resourceType, id)
}

// ConnectorCommand runs a command on a resource through its connector. For
// databases params is sent as a query.
func (c *Client) ConnectorCommand(ctx context.Context, resourceType string, id int64, params map[string]any) (json.RawMessage, error) {
	if err := checkResourceType(resourceType, false); err != nil {
		return nil, err
	}
	return c.apiClient.ConnectorCommand(ctx, resourceType, id, params)
}

func checkResourceRequest(req ResourceRequest) error {
	if err := checkResourceType(req.Type, false); err != nil {
		return err
	}
	if len(req.Data) == 0 {
		return &ValidationError{Field: "data", Err: errors.New("at least one item is required")}
	}
	for i, item := range req.Data {
		if item == nil {
			return &ValidationError{Field: fmt.Sprintf("data[%d]", i), Err: errors.New("must not be nil")}
		}
	}
	return nil
}

func checkResourceType(resourceType string, allowEmpty bool) error {
	if resourceType == "" && allowEmpty {
		return nil
	}
	if !slices.Contains(ResourceTypes(), resourceType) {
		return &ValidationError{Field: "resource type", Value: resourceType, Err: ErrInvalidResourceType}
	}
	return nil
}
