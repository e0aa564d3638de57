package auth

import (
	"time"

	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole string

const (
	// RoleUser is the default role for registered accounts
	RoleUser UserRole = "user"
	// RoleAdmin is an admin role
	RoleAdmin UserRole = "admin"
)

// IsValid reports whether r is a known role
func (r UserRole) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64     `bun:"id,pk,autoincrement" json:"userId"`
	Username      string    `bun:"username,notnull,unique" json:"username"`
	Email         string    `bun:"email,notnull,unique" json:"email"`
	PasswordHash  string    `bun:"password_hash,notnull" json:"-"`
	Role          UserRole  `bun:"role,notnull" json:"role"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// UserChanges is a partial update. Nil fields are left untouched.
type UserChanges struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

// IsEmpty reports whether no field is set
func (c UserChanges) IsEmpty() bool {
	return c.Username == nil && c.Email == nil && c.PasswordHash == nil
}

// Profile is the public view of a user
type Profile struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
}

// ToProfile drops credential material from the record
func (u *User) ToProfile() Profile {
	return Profile{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}
