package roma

import (
	"github.com/binrc/roma-client-go/internal/api"
	"github.com/binrc/roma-client-go/internal/credentials"
)

// Navigator receives the redirect to the login view after a 401.
type Navigator = api.Navigator

// LoginPath is where a Navigator is sent after a 401.
const LoginPath = api.LoginPath

// Credentials is the stored authentication state.
type Credentials = credentials.Credentials

// TokenStatus describes the stored bearer token as seen from the client.
type TokenStatus = credentials.TokenStatus

// Token statuses.
const (
	TokenMissing = credentials.TokenMissing
	TokenOpaque  = credentials.TokenOpaque
	TokenExpired = credentials.TokenExpired
	TokenValid   = credentials.TokenValid
)

// Resource types.
const (
	ResourceLinux    = api.ResourceLinux
	ResourceWindows  = api.ResourceWindows
	ResourceDocker   = api.ResourceDocker
	ResourceDatabase = api.ResourceDatabase
	ResourceRouter   = api.ResourceRouter
	ResourceSwitch   = api.ResourceSwitch
)

// API types.
type (
	User             = api.User
	UserRequest      = api.UserRequest
	Role             = api.Role
	RoleRequest      = api.RoleRequest
	LoginResponse    = api.LoginResponse
	SystemInfo       = api.SystemInfo
	Statistics       = api.Statistics
	Resource         = api.Resource
	ResourceRequest  = api.ResourceRequest
	LogQuery         = api.LogQuery
	LogEntry         = api.LogEntry
	LogPage          = api.LogPage
	APIKey           = api.APIKey
	APIKeyRequest    = api.APIKeyRequest
	SSHKey           = api.SSHKey
	Space            = api.Space
	SpaceMember      = api.SpaceMember
	SpaceRequest     = api.SpaceRequest
	BlacklistEntry   = api.BlacklistEntry
	BlacklistPage    = api.BlacklistPage
	BlacklistRequest = api.BlacklistRequest
	BlacklistDetail  = api.BlacklistDetail
	IPInfo           = api.IPInfo
)

// ResourceTypes returns every resource type in display order.
func ResourceTypes() []string {
	return append([]string(nil), api.ResourceTypes...)
}

// Session is the current authentication state.
type Session struct {
	Credentials
	// TokenInfo is what can be read from the bearer token without the
	// signing key. Its Status is TokenMissing when only an API key is stored.
	TokenInfo credentials.TokenInfo
}

// LoggedIn reports whether any credential is stored and the token, if any,
// has not visibly expired.
func (s Session) LoggedIn() bool {
	if s.Empty() {
		return false
	}
	return s.TokenInfo.Status != TokenExpired
}
