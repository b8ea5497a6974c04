package constants

import "time"

// Session and context keys
const (
	SessionCookieName   = "pandora_session"
	SessionKeyUserID    = "user_id"
	ContextKeyUserID    = "user_id"
	ContextKeyUser      = "user"
	ContextKeyPrincipal = "principal"
)

// Account rules
const (
	MinPasswordLength = 8
	MaxUsernameLength = 50
	MaxEmailLength    = 100
)

// Project and task limits
const (
	MaxProjectNameLength     = 120
	MaxProjectStatusLength   = 50
	MaxTaskNameLength        = 200
	MaxWorkPackageNameLength = 150
	MaxMilestoneNameLength   = 150
	DashboardTaskLimit       = 10
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// DefaultRequestTimeout bounds every store call made on behalf of a request.
const DefaultRequestTimeout = 10 * time.Second
