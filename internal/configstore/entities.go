// Package configstore holds every administrative entity the gateway routes
// and authorizes against: APIs, endpoints, users, roles, groups, subscriptions,
// credit definitions, routing policy, and dynamic crud_data_* collections. It
// exposes a single Store interface with two backends (MEM and EXTERNAL), the
// way the teacher's storage package offered memory/postgres/mongodb backends
// behind one Store interface.
package configstore

import "time"

// API describes a registered backend API: its name/version, upstream servers,
// and the protocol-specific settings needed to dispatch to it.
type API struct {
	APIID           string            `json:"api_id" bson:"api_id" validate:"required"`
	APIName         string            `json:"api_name" bson:"api_name" validate:"required"`
	APIVersion      string            `json:"api_version" bson:"api_version" validate:"required"`
	APIDescription  string            `json:"api_description,omitempty" bson:"api_description,omitempty"`
	APIType         string            `json:"api_type" bson:"api_type" validate:"required,oneof=REST SOAP GraphQL gRPC"`
	APIServers      []string          `json:"api_servers" bson:"api_servers" validate:"required,min=1"`
	APIAllowedRoles []string          `json:"api_allowed_roles,omitempty" bson:"api_allowed_roles,omitempty"`
	APIAllowedGroups []string         `json:"api_allowed_groups,omitempty" bson:"api_allowed_groups,omitempty"`
	APIAllowedHeaders []string        `json:"api_allowed_headers,omitempty" bson:"api_allowed_headers,omitempty"`
	Public          bool              `json:"public,omitempty" bson:"public,omitempty"`
	CORSAllowOrigins []string         `json:"cors_allow_origins,omitempty" bson:"cors_allow_origins,omitempty"`
	CORSAllowMethods []string         `json:"cors_allow_methods,omitempty" bson:"cors_allow_methods,omitempty"`
	CORSAllowHeaders []string         `json:"cors_allow_headers,omitempty" bson:"cors_allow_headers,omitempty"`
	CORSAllowCredentials bool         `json:"cors_allow_credentials,omitempty" bson:"cors_allow_credentials,omitempty"`
	CORSExposeHeaders []string        `json:"cors_expose_headers,omitempty" bson:"cors_expose_headers,omitempty"`
	RateLimitWindowSeconds int        `json:"rate_limit_window_seconds,omitempty" bson:"rate_limit_window_seconds,omitempty"`
	RateLimitCount  int               `json:"rate_limit_count,omitempty" bson:"rate_limit_count,omitempty"`
	ActiveOnly      bool              `json:"active_only,omitempty" bson:"active_only,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" bson:"updated_at"`
}

// Endpoint describes one (method, uri) pair exposed under an API/version.
type Endpoint struct {
	EndpointID     string     `json:"endpoint_id" bson:"endpoint_id" validate:"required"`
	APIName        string     `json:"api_name" bson:"api_name" validate:"required"`
	APIVersion     string     `json:"api_version" bson:"api_version" validate:"required"`
	EndpointMethod string     `json:"endpoint_method" bson:"endpoint_method" validate:"required"`
	EndpointURI    string     `json:"endpoint_uri" bson:"endpoint_uri" validate:"required"`
	UpstreamPath   string     `json:"upstream_path,omitempty" bson:"upstream_path,omitempty"`
	EndpointServers []string  `json:"endpoint_servers,omitempty" bson:"endpoint_servers,omitempty"`
	FieldValidation *FieldSchema `json:"field_validation,omitempty" bson:"field_validation,omitempty"`
	RequiresAuth   bool       `json:"requires_auth" bson:"requires_auth"`
	CreditGroup    string     `json:"credit_group,omitempty" bson:"credit_group,omitempty"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" bson:"updated_at"`
}

// FieldSchema recursively describes the shape a request body must satisfy;
// the resolver walks this tree against the decoded JSON payload.
type FieldSchema struct {
	Type     string                  `json:"type" bson:"type"`
	Required bool                    `json:"required,omitempty" bson:"required,omitempty"`
	Min      *float64                `json:"min,omitempty" bson:"min,omitempty"`
	Max      *float64                `json:"max,omitempty" bson:"max,omitempty"`
	Pattern  string                  `json:"pattern,omitempty" bson:"pattern,omitempty"`
	Enum     []string                `json:"enum,omitempty" bson:"enum,omitempty"`
	Format   string                  `json:"format,omitempty" bson:"format,omitempty"`
	Items    *FieldSchema            `json:"items,omitempty" bson:"items,omitempty"`
	Fields   map[string]*FieldSchema `json:"fields,omitempty" bson:"fields,omitempty"`
}

// User is an authenticating principal.
type User struct {
	UserID              string    `json:"user_id" bson:"user_id" validate:"required"`
	Email               string    `json:"email" bson:"email" validate:"required,email"`
	PasswordHash        string    `json:"-" bson:"password_hash"`
	Role                string    `json:"role" bson:"role" validate:"required"`
	Groups              []string  `json:"groups,omitempty" bson:"groups,omitempty"`
	Active              bool      `json:"active" bson:"active"`
	CreatedAt           time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" bson:"updated_at"`
}

// Role is a named bundle of boolean permission flags, one per administrative
// concern enumerated in spec §4.3.
type Role struct {
	RoleName            string `json:"role_name" bson:"role_name" validate:"required"`
	IsAdmin             bool   `json:"is_admin" bson:"is_admin"`
	ManageUsers         bool   `json:"manage_users" bson:"manage_users"`
	ManageAPIs          bool   `json:"manage_apis" bson:"manage_apis"`
	ManageEndpoints     bool   `json:"manage_endpoints" bson:"manage_endpoints"`
	ManageGroups        bool   `json:"manage_groups" bson:"manage_groups"`
	ManageRoles         bool   `json:"manage_roles" bson:"manage_roles"`
	ManageRoutings      bool   `json:"manage_routings" bson:"manage_routings"`
	ManageGateway       bool   `json:"manage_gateway" bson:"manage_gateway"`
	ManageSubscriptions bool   `json:"manage_subscriptions" bson:"manage_subscriptions"`
	ManageSecurity      bool   `json:"manage_security" bson:"manage_security"`
	ManageCredits       bool   `json:"manage_credits" bson:"manage_credits"`
	ManageAuth          bool   `json:"manage_auth" bson:"manage_auth"`
	ManageTokens        bool   `json:"manage_tokens" bson:"manage_tokens"`
	ManageTiers         bool   `json:"manage_tiers" bson:"manage_tiers"`
	ManageRateLimits    bool   `json:"manage_rate_limits" bson:"manage_rate_limits"`
	ViewAnalytics       bool   `json:"view_analytics" bson:"view_analytics"`
	ViewLogs            bool   `json:"view_logs" bson:"view_logs"`
	ExportData          bool   `json:"export_logs" bson:"export_logs"`
}

// Group is a named bundle of API subscriptions a user can belong to.
type Group struct {
	GroupName string   `json:"group_name" bson:"group_name" validate:"required"`
	APIs      []string `json:"apis,omitempty" bson:"apis,omitempty"`
}

// Subscription records that a user (directly, or via a group) may call one
// api_name/api_version pair; per spec §3 the identity is the full triple, so
// a subscription to v1 never implies access to v2.
type Subscription struct {
	UserID     string `json:"user_id" bson:"user_id" validate:"required"`
	APIName    string `json:"api_name" bson:"api_name" validate:"required"`
	APIVersion string `json:"api_version" bson:"api_version" validate:"required"`
}

// Tier describes one credit tier within a credit group: how many credits it
// grants per reset period and the input/output size limits it enforces.
type Tier struct {
	TierName      string `json:"tier_name" bson:"tier_name" validate:"required"`
	Credits       int64  `json:"credits" bson:"credits"`
	InputLimit    int64  `json:"input_limit,omitempty" bson:"input_limit,omitempty"`
	OutputLimit   int64  `json:"output_limit,omitempty" bson:"output_limit,omitempty"`
	PeriodSeconds int64  `json:"period_seconds" bson:"period_seconds"`
}

// CreditDefinition describes a pool of consumable credits an API or credit
// group draws from, plus the rotating upstream API key used once the
// gateway's own credit ledger has approved the call. APIKeyHeader names the
// upstream header the key is forwarded under; spec §4.6 requires the
// masking endpoint to report that header name without ever returning the
// key itself.
type CreditDefinition struct {
	CreditGroup           string     `json:"credit_group" bson:"credit_group" validate:"required"`
	APIKey                string     `json:"api_key" bson:"api_key"`
	APIKeyHeader          string     `json:"api_key_header" bson:"api_key_header"`
	APIKeyNew             string     `json:"api_key_new,omitempty" bson:"api_key_new,omitempty"`
	APIKeyRotationExpires *time.Time `json:"api_key_rotation_expires,omitempty" bson:"api_key_rotation_expires,omitempty"`
	CreditsPerPeriod      int64      `json:"credits_per_period" bson:"credits_per_period"`
	PeriodSeconds         int64      `json:"period_seconds" bson:"period_seconds"`
	Tiers                 []Tier     `json:"tiers,omitempty" bson:"tiers,omitempty"`
}

// UserCredits tracks one user's remaining balance within a credit group.
// PerUserKey is an optional per-user encrypted upstream key that overrides
// the credit group's shared APIKey when set.
type UserCredits struct {
	UserID        string    `json:"user_id" bson:"user_id" validate:"required"`
	CreditGroup   string    `json:"credit_group" bson:"credit_group" validate:"required"`
	TierName      string    `json:"tier_name,omitempty" bson:"tier_name,omitempty"`
	Remaining     int64     `json:"remaining" bson:"remaining"`
	PeriodResetAt time.Time `json:"period_reset_at" bson:"period_reset_at"`
	PerUserKey    string    `json:"per_user_key,omitempty" bson:"per_user_key,omitempty"`
}

// Routing holds the backend-selection policy for one API: round-robin vs
// pinned, and the current cursor position per client key.
type Routing struct {
	APIName     string `json:"api_name" bson:"api_name" validate:"required"`
	APIVersion  string `json:"api_version" bson:"api_version" validate:"required"`
	Strategy    string `json:"strategy" bson:"strategy" validate:"oneof=round_robin pinned"`
	RetryBudget int    `json:"retry_budget" bson:"retry_budget"`
}

// SecuritySettings holds the global IP allow/deny lists and related auth
// posture that layers on top of internal/config's static configuration; this
// is the admin-editable entity, whereas config.Config is the process's
// boot-time defaults for the same concerns.
type SecuritySettings struct {
	EnableAutoSave           bool     `json:"enable_auto_save" bson:"enable_auto_save"`
	AutoSaveFrequencySeconds int      `json:"auto_save_frequency_seconds,omitempty" bson:"auto_save_frequency_seconds,omitempty"`
	DumpPath                 string   `json:"dump_path,omitempty" bson:"dump_path,omitempty"`
	IPWhitelist              []string `json:"ip_whitelist,omitempty" bson:"ip_whitelist,omitempty"`
	IPBlacklist              []string `json:"ip_blacklist,omitempty" bson:"ip_blacklist,omitempty"`
	TrustXForwardedFor       bool     `json:"trust_x_forwarded_for,omitempty" bson:"trust_x_forwarded_for,omitempty"`
	XFFTrustedProxies        []string `json:"xff_trusted_proxies,omitempty" bson:"xff_trusted_proxies,omitempty"`
	AllowLocalhostBypass     bool     `json:"allow_localhost_bypass,omitempty" bson:"allow_localhost_bypass,omitempty"`
}
