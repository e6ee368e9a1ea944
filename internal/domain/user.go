package domain

import (
	"context"
	"strings"
	"time"
)

// Role controls which gated routes a user may reach.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a registered user of the application.
type User struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	Role          Role
	ProfilePicURL string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasRole reports whether the user's role is one of roles.
func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// NormalizeEmail returns the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserChanges lists the columns an update touches. Nil fields keep their
// stored value.
type UserChanges struct {
	Name          *string
	Email         *string
	PasswordHash  *string
	Role          *Role
	ProfilePicURL *string
}

// Assignments returns the changed column names and their values in a fixed
// order.
func (c UserChanges) Assignments() ([]string, []any) {
	var cols []string
	var vals []any
	if c.Name != nil {
		cols, vals = append(cols, "name"), append(vals, *c.Name)
	}
	if c.Email != nil {
		cols, vals = append(cols, "email"), append(vals, *c.Email)
	}
	if c.PasswordHash != nil {
		cols, vals = append(cols, "password_hash"), append(vals, *c.PasswordHash)
	}
	if c.Role != nil {
		cols, vals = append(cols, "role"), append(vals, string(*c.Role))
	}
	if c.ProfilePicURL != nil {
		cols, vals = append(cols, "profile_pic_url"), append(vals, *c.ProfilePicURL)
	}
	return cols, vals
}

// UserRepository defines persistence operations for users.
// Create assigns an ID when the user has none and returns ErrDuplicateEmail
// when the email is already taken. Update writes only the columns set in
// changes, in a single statement.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id string, changes UserChanges) error
	Delete(ctx context.Context, id string) error
}
