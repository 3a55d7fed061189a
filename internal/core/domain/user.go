package domain

import (
	"errors"
	"fmt"
	"time"
)

// Role is the closed set of roles an Identity can hold.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleCoach Role = "coach"
	RoleUser  Role = "user"
)

// grantAuthority maps each role to the set of roles it may assign to others
// (including itself). This table is the single source of truth for every
// operation that sets or changes a role field.
var grantAuthority = map[Role][]Role{
	RoleAdmin: {RoleAdmin, RoleCoach, RoleUser},
	RoleCoach: {RoleCoach, RoleUser},
	RoleUser:  {},
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoach, RoleUser:
		return true
	}
	return false
}

// IsManager reports whether r carries management authority over resources
// it does not own (listing, coach/owner reassignment, segment toggling).
func (r Role) IsManager() bool {
	return r == RoleAdmin || r == RoleCoach
}

var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrTooManyAttempts = errors.New("too many login attempts")
var ErrIdentityReferenced = errors.New("identity still owns assessments")
var ErrInvalidRole = errors.New("invalid role")

// ErrUnauthorized is the sentinel every policy denial unwraps to.
var ErrUnauthorized = errors.New("unauthorized")

// UnauthorizedError is a policy denial. Grantable carries the roles the actor
// is allowed to assign so callers can present the permitted alternatives; it
// never exposes anything about the target.
type UnauthorizedError struct {
	Reason    string
	Grantable []Role
}

func (e *UnauthorizedError) Error() string { return "unauthorized: " + e.Reason }

func (e *UnauthorizedError) Unwrap() error { return ErrUnauthorized }

// Unauthorizedf builds an UnauthorizedError with the actor's grantable set.
func Unauthorizedf(actor *Identity, format string, args ...any) *UnauthorizedError {
	var grantable []Role
	if actor != nil {
		grantable = actor.GrantableRoles()
	}
	return &UnauthorizedError{Reason: fmt.Sprintf(format, args...), Grantable: grantable}
}

// Identity models an authenticated actor in the system.
type Identity struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	ResetToken   string    `json:"-"`
	ResetExpiry  time.Time `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GrantableRoles returns the set of roles u may assign to any identity,
// itself included. The result is a copy.
func (u *Identity) GrantableRoles() []Role {
	src := grantAuthority[u.Role]
	out := make([]Role, len(src))
	copy(out, src)
	return out
}

// CanGrantRole reports whether u may assign role r. This answers "can assign
// this specific role" and is independent of CanModifyUser ("can touch this
// record"); every role change must pass both.
func (u *Identity) CanGrantRole(r Role) bool {
	for _, allowed := range grantAuthority[u.Role] {
		if allowed == r {
			return true
		}
	}
	return false
}

// CanCreateUser reports whether u may create a new identity with the given role.
func (u *Identity) CanCreateUser(role Role) bool {
	return u.CanGrantRole(role)
}

// CanModifyUser reports whether u may touch target's record at all.
// Admins may modify anyone; coaches may modify coaches and users; every
// identity may modify itself (role changes are guarded separately by
// CanGrantRole).
func (u *Identity) CanModifyUser(target *Identity) bool {
	if u.Role == RoleAdmin {
		return true
	}
	if u.ID == target.ID {
		return true
	}
	if u.Role == RoleCoach {
		return target.Role == RoleCoach || target.Role == RoleUser
	}
	return false
}

// CanDeleteUser reports whether u may delete target. Unlike CanModifyUser
// there is no self clause: a coach may not delete an admin, itself included.
func (u *Identity) CanDeleteUser(target *Identity) bool {
	if u.Role == RoleAdmin {
		return true
	}
	if u.Role == RoleCoach {
		return target.Role == RoleCoach || target.Role == RoleUser
	}
	return false
}
