package api

import (
	"encoding/json"
)

// Resource types accepted by the resources endpoints.
const (
	ResourceLinux    = "linux"
	ResourceWindows  = "windows"
	ResourceDocker   = "docker"
	ResourceDatabase = "database"
	ResourceRouter   = "router"
	ResourceSwitch   = "switch"
)

// ResourceTypes lists every resource type in display order.
var ResourceTypes = []string{
	ResourceLinux,
	ResourceWindows,
	ResourceDocker,
	ResourceDatabase,
	ResourceRouter,
	ResourceSwitch,
}

// LoginRequest represents the POST auth/login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the auth/login response data.
type LoginResponse struct {
	Token  string `json:"token"`
	APIKey string `json:"apiKey,omitempty"`
	User   *User  `json:"user,omitempty"`
}

// Role represents a role as embedded in users and returned by roles.
type Role struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Desc      string `json:"desc,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// User represents a user account.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Nickname  string `json:"nickname,omitempty"`
	PublicKey string `json:"public_key,omitempty"`
	Roles     []Role `json:"roles,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	DeletedAt string `json:"deleted_at,omitempty"`
}

// UserRequest is the body of user create and update calls. Nil fields are
// left out of the request.
type UserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Nickname *string `json:"nickname"`
	Roles    []int64 `json:"roles"`
}

// RoleRequest is the body of role create and update calls.
type RoleRequest struct {
	Name *string `json:"name"`
	Desc *string `json:"desc"`
}

// SystemInfo represents the system/info response.
type SystemInfo struct {
	System     SystemDetails `json:"system"`
	SSHService SSHService    `json:"ssh_service"`
	Statistics Statistics    `json:"statistics"`
}

// SystemDetails describes the backend build.
type SystemDetails struct {
	Name      string `json:"name,omitempty"`
	Version   string `json:"version,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
	OS        string `json:"os,omitempty"`
	Arch      string `json:"arch,omitempty"`
}

// SSHService describes the bastion's SSH listener.
type SSHService struct {
	Port      int    `json:"port,omitempty"`
	PublicKey string `json:"public_key,omitempty"`
}

// Statistics holds the dashboard counters. The backend has used both
// camelCase and snake_case names for the totals; both are accepted.
type Statistics struct {
	TotalUsers     int            `json:"totalUsers"`
	TotalRoles     int            `json:"totalRoles"`
	TotalResources int            `json:"totalResources"`
	Resources      map[string]int `json:"resources,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Statistics) UnmarshalJSON(data []byte) error {
	var raw struct {
		TotalUsers          *int           `json:"totalUsers"`
		TotalRoles          *int           `json:"totalRoles"`
		TotalResources      *int           `json:"totalResources"`
		TotalUsersSnake     *int           `json:"total_users"`
		TotalRolesSnake     *int           `json:"total_roles"`
		TotalResourcesSnake *int           `json:"total_resources"`
		Resources           map[string]int `json:"resources"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.TotalUsers = firstInt(raw.TotalUsers, raw.TotalUsersSnake)
	s.TotalRoles = firstInt(raw.TotalRoles, raw.TotalRolesSnake)
	s.TotalResources = firstInt(raw.TotalResources, raw.TotalResourcesSnake)
	s.Resources = raw.Resources
	return nil
}

func firstInt(values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

// Resource is a managed host or device. Only the fields relevant to its
// type are set.
type Resource struct {
	ID           int64  `json:"id"`
	Type         string `json:"type,omitempty"`
	Name         string `json:"name,omitempty"`
	Hostname     string `json:"hostname,omitempty"`
	SwitchName   string `json:"switch_name,omitempty"`
	RouterName   string `json:"router_name,omitempty"`
	DatabaseNick string `json:"database_nick,omitempty"`
	Host         string `json:"host,omitempty"`
	IPv4Pub      string `json:"ipv4_pub,omitempty"`
	IPv4Priv     string `json:"ipv4_priv,omitempty"`
	IPv6         string `json:"ipv6,omitempty"`
	Port         int    `json:"port,omitempty"`
	WebPort      int    `json:"web_port,omitempty"`
	Username     string `json:"username,omitempty"`
	Description  string `json:"description,omitempty"`
	SpaceID      *int64 `json:"space_id,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	DeletedAt    string `json:"deleted_at,omitempty"`
}

// DisplayName returns the type-specific name of the resource.
func (r Resource) DisplayName() string {
	for _, name := range []string{r.Hostname, r.SwitchName, r.RouterName, r.DatabaseNick, r.Name} {
		if name != "" {
			return name
		}
	}
	return ""
}

// InferType returns r.Type, or guesses it from the type-specific name
// fields. fallback is used for plain hosts and defaults to linux.
func (r Resource) InferType(fallback string) string {
	switch {
	case r.Type != "":
		return r.Type
	case r.DatabaseNick != "":
		return ResourceDatabase
	case r.RouterName != "":
		return ResourceRouter
	case r.SwitchName != "":
		return ResourceSwitch
	case fallback != "":
		return fallback
	default:
		return ResourceLinux
	}
}

// ResourceRequest is the body of resource create, update and delete calls.
type ResourceRequest struct {
	Type    string           `json:"type"`
	Role    string           `json:"role,omitempty"`
	SpaceID *int64           `json:"space_id,omitempty"`
	Data    []map[string]any `json:"data"`
}

// LogQuery filters the logs endpoints.
type LogQuery struct {
	Page       int    `json:"page,omitempty"`
	PageSize   int    `json:"pageSize,omitempty"`
	Username   string `json:"username,omitempty"`
	ActionType string `json:"action_type,omitempty"`
}

// LogEntry is one access, credential or audit log record.
type LogEntry struct {
	ID           int64  `json:"id,omitempty"`
	Username     string `json:"username,omitempty"`
	Action       string `json:"action,omitempty"`
	Operation    string `json:"operation,omitempty"`
	ResourceType string `json:"resource_type,omitempty"`
	ResourceName string `json:"resource_name,omitempty"`
	Resource     string `json:"resource,omitempty"`
	IP           string `json:"ip,omitempty"`
	IPAddress    string `json:"ip_address,omitempty"`
	Status       string `json:"status,omitempty"`
	Description  string `json:"description,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// ClientIP returns whichever address field the backend filled.
func (l LogEntry) ClientIP() string {
	if l.IP != "" {
		return l.IP
	}
	return l.IPAddress
}

// Time returns whichever timestamp field the backend filled.
func (l LogEntry) Time() string {
	if l.Timestamp != "" {
		return l.Timestamp
	}
	return l.CreatedAt
}

// LogPage is the logs endpoints response data.
type LogPage struct {
	Logs  []LogEntry `json:"logs"`
	Total int        `json:"total,omitempty"`
}

// APIKey represents an API key record.
type APIKey struct {
	ID          int64  `json:"id"`
	Key         string `json:"api_key,omitempty"`
	LegacyKey   string `json:"apikey,omitempty"`
	Description string `json:"description,omitempty"`
	ExpiresAt   string `json:"expires_at,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Value returns the key under whichever name the backend used.
func (k APIKey) Value() string {
	if k.Key != "" {
		return k.Key
	}
	return k.LegacyKey
}

// APIKeyRequest is the body of the API key create call.
type APIKeyRequest struct {
	Description string `json:"description,omitempty"`
	ExpiresAt   string `json:"expires_at,omitempty"`
}

// SSHKey represents the current user's key pair. The private key is only
// present right after generation.
type SSHKey struct {
	PublicKey   string `json:"public_key,omitempty"`
	PrivateKey  string `json:"private_key,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// SSHKeyUpload is the body of ssh-keys/me/upload.
type SSHKeyUpload struct {
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// Space groups resources and the users allowed to use them.
type Space struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	IsActive    bool          `json:"is_active"`
	Members     []SpaceMember `json:"members,omitempty"`
	CreatedAt   string        `json:"created_at,omitempty"`
}

// SpaceMember links a user to a space.
type SpaceMember struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`
	User   *User `json:"user,omitempty"`
}

// SpaceRequest is the body of the space create call.
type SpaceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SpaceMemberRequest is the body of the space member calls.
type SpaceMemberRequest struct {
	UserID int64 `json:"user_id"`
}

// BlacklistEntry is one banned address.
type BlacklistEntry struct {
	ID        int64  `json:"id,omitempty"`
	IP        string `json:"ip"`
	Reason    string `json:"reason,omitempty"`
	Source    string `json:"source,omitempty"`
	BanUntil  string `json:"ban_until,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// BlacklistPage is the blacklist list response data.
type BlacklistPage struct {
	List  []BlacklistEntry `json:"list"`
	Total int              `json:"total"`
}

// BlacklistRequest is the body of the blacklist add call. Duration is in
// seconds; zero bans permanently.
type BlacklistRequest struct {
	IP       string `json:"ip"`
	Reason   string `json:"reason"`
	Duration int    `json:"duration"`
}

// IPInfo is the geolocation record for an address.
type IPInfo struct {
	IP         string         `json:"ip,omitempty"`
	Country    string         `json:"country,omitempty"`
	Province   string         `json:"province,omitempty"`
	City       string         `json:"city,omitempty"`
	ISP        string         `json:"isp,omitempty"`
	ASN        any            `json:"asn,omitempty"`
	CIDR       string         `json:"cidr,omitempty"`
	Latitude   float64        `json:"latitude,omitempty"`
	Longitude  float64        `json:"longitude,omitempty"`
	Additional map[string]any `json:"additional,omitempty"`
}

// BlacklistDetail is the blacklist/{ip} response data.
type BlacklistDetail struct {
	Blacklist *BlacklistEntry `json:"blacklist"`
	IPInfo    *IPInfo         `json:"ip_info,omitempty"`
}
