package models

// Role represents an API token role
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDispatcher Role = "dispatcher"
	RoleViewer     Role = "viewer"
)

// Permission names checked by the API middleware.
const (
	PermViewTrips   = "view_trips"
	PermWriteTrips  = "write_trips"
	PermManageFleet = "manage_fleet"
)

// Claims represents JWT claims
type Claims struct {
	Subject string `json:"sub"`
	Role    Role   `json:"role"`
	Exp     int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleDispatcher, RoleViewer:
		return true
	default:
		return false
	}
}

// HasPermission checks if the role may perform an action
func (r Role) HasPermission(action string) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleDispatcher:
		return action == PermViewTrips || action == PermWriteTrips
	case RoleViewer:
		return action == PermViewTrips
	default:
		return false
	}
}
