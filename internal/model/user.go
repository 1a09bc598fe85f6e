package model

import "time"

// Role is the coarse account type carried in the access token.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
	RoleWorker Role = "worker"
)

// SubRole is the trade of a worker.  It is empty for admins and clients.
type SubRole string

const (
	SubRoleCivilEngineer SubRole = "civil_engineer"
	SubRolePainter       SubRole = "painter"
	SubRolePlumber       SubRole = "plumber"
	SubRoleElectrician   SubRole = "electrician"
	SubRoleOther         SubRole = "other"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleWorker:
		return true
	}
	return false
}

// Valid reports whether s is one of the known worker trades.
func (s SubRole) Valid() bool {
	switch s {
	case SubRoleCivilEngineer, SubRolePainter, SubRolePlumber, SubRoleElectrician, SubRoleOther:
		return true
	}
	return false
}

// User represents a row of the `users` table.  Credentials live with the
// identity provider and are not modelled here.
//
// IsAvailable is owned by the acceptance and assignment workflows; nothing
// else writes it.
type User struct {
	ID          uint64    `json:"id"`                 // users.id
	Email       string    `json:"email"`              // users.email
	Name        string    `json:"name"`               // users.name
	Role        Role      `json:"role"`               // users.role
	SubRole     SubRole   `json:"sub_role,omitempty"` // users.sub_role (empty unless Role is worker)
	IsAvailable bool      `json:"is_available"`       // users.is_available
	CreatedAt   time.Time `json:"created_at"`         // users.created_at
}

// IsCivilEngineer reports whether the user is a worker of the civil
// engineer trade.
func (u User) IsCivilEngineer() bool {
	return u.Role == RoleWorker && u.SubRole == SubRoleCivilEngineer
}

// Actor is the authenticated identity performing a request, as decoded
// from the bearer token.
type Actor struct {
	ID      uint64
	Role    Role
	SubRole SubRole
}
