package model

import "time"

// User represents an application user record as stored in the `users`
// table. Handlers define separate response types with JSON tags; these
// structs are used internally by the repository layer.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	UUID         – stable external identifier exposed through the API.
//	Email        – unique email address.
//	DisplayName  – human readable name shown to administrators.
//	PasswordHash – bcrypt hashed password.
//	Role         – role name (CUSTOMER or STAFF).
//	IsStaff      – global administrator flag; staff see and administer
//	               every unit and resource.
//	IsActive     – whether the account is active.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64
	UUID         string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         string
	IsStaff      bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Roles accepted in the users.role column and the JWT role claim.
const (
	RoleCustomer = "CUSTOMER"
	RoleStaff    = "STAFF"
)

// Actor is the per-request view of the acting user used by policy
// predicates. It bundles the user record with the set of units the user
// administers so that permission checks stay pure and need no database
// access. A zero Actor represents an anonymous caller.
type Actor struct {
	User       *User
	AdminUnits map[uint64]struct{}
}

// Authenticated reports whether the actor carries a signed-in user.
func (a Actor) Authenticated() bool { return a.User != nil }

// IsStaff reports whether the actor is a global administrator.
func (a Actor) IsStaff() bool { return a.User != nil && a.User.IsStaff }

// AdministersUnit reports whether the actor is staff of the given unit.
func (a Actor) AdministersUnit(unitID uint64) bool {
	_, ok := a.AdminUnits[unitID]
	return ok
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user; only the SHA-256 hash of the raw
// token is stored.
//
// Fields:
//
//	ID        – primary key identifier.
//	UserID    – owner of the token.
//	TokenHash – SHA-256 hex digest of the token value.
//	ExpiresAt – expiration timestamp of the token.
//	RevokedAt – when the token was revoked (null if still active).
//	CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
