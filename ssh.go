package roma

import (
	"context"
	"encoding/json"
)

// SSH operations run by the bastion on a resource.
const (
	sshExecute      = "execute"
	sshSystemInfo   = "system-info"
	sshHealth       = "health"
	sshBatchExecute = "batch-execute"
)

// ExecuteCommand runs a command on a resource over SSH. params names the
// target and the command, for example {"resource_id": 1, "command": "uptime"}.
func (c *Client) ExecuteCommand(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return c.apiClient.SSHCall(ctx, sshExecute, params)
}

// RemoteSystemInfo collects OS details from a resource over SSH.
func (c *Client) RemoteSystemInfo(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return c.apiClient.SSHCall(ctx, sshSystemInfo, params)
}

// CheckHealth checks that a resource accepts SSH connections.
func (c *Client) CheckHealth(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return c.apiClient.SSHCall(ctx, sshHealth, params)
}

// BatchExecute runs a command on several resources.
func (c *Client) BatchExecute(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return c.apiClient.SSHCall(ctx, sshBatchExecute, params)
}
