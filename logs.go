package roma

import (
	"context"
)

// Log kinds.
const (
	LogAccess     = "access"
	LogCredential = "credential"
	LogAudit      = "audit"
)

// AccessLogs retrieves one page of SSH access logs.
func (c *Client) AccessLogs(ctx context.Context, query LogQuery) (*LogPage, error) {
	return c.Logs(ctx, LogAccess, query)
}

// CredentialLogs retrieves one page of credential usage logs.
func (c *Client) CredentialLogs(ctx context.Context, query LogQuery) (*LogPage, error) {
	return c.Logs(ctx, LogCredential, query)
}

// AuditLogs retrieves one page of audit logs.
func (c *Client) AuditLogs(ctx context.Context, query LogQuery) (*LogPage, error) {
	return c.Logs(ctx, LogAudit, query)
}

// Logs retrieves one page of logs of the given kind. Zero fields of query
// are not sent.
func (c *Client) Logs(ctx context.Context, kind string, query LogQuery) (*LogPage, error) {
	switch kind {
	case LogAccess, LogCredential, LogAudit:
	default:
		return nil, &ValidationError{Field: "log kind", Value: kind, Err: ErrInvalidLogKind}
	}
	return c.apiClient.GetLogs(ctx, kind, query)
}
