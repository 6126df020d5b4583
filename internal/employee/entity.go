// AngelaMos | 2026
// entity.go

package employee

import (
	"time"
)

// Role is a closed variant. The directory intentionally has no way to
// hold two roles at once; an employee without a provisioned role is
// RoleUnset and cannot be routed anywhere.
const (
	RoleUnset = ""
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Employee struct {
	ID            string     `db:"id"`
	Email         string     `db:"email"`
	PasswordHash  string     `db:"password_hash"`
	FullName      string     `db:"full_name"`
	Phone         string     `db:"phone"`
	Role          string     `db:"role"`
	EmailVerified bool       `db:"email_verified"`
	TokenVersion  int        `db:"token_version"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at"`
}

func (e *Employee) IsDeleted() bool {
	return e.DeletedAt != nil
}

func (e *Employee) IsAdmin() bool {
	return e.Role == RoleAdmin
}

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
