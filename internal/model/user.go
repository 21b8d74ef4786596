package model

import "time"

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleReader = "reader"
)

// ValidRole reports whether role is one of the known role labels.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleEditor, RoleReader:
		return true
	}
	return false
}

// User represents a user in the system
type User struct {
	ID                   int        `json:"id"`
	Username             string     `json:"username"`
	Email                string     `json:"email"`
	PasswordHash         string     `json:"-"` // Do not expose password hash in JSON responses
	Role                 string     `json:"role"`
	ResetPasswordToken   *string    `json:"-"` // Set only while a reset window is open
	ResetPasswordExpires *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
}

// PublicUser is the representation returned by list/read endpoints.
type PublicUser struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Email    string `json:"email"`
}

// Public strips the user down to the fields safe to return to clients.
func (u *User) Public() PublicUser {
	return PublicUser{Username: u.Username, Role: u.Role, Email: u.Email}
}

// CreateUserRequest is used for creating a new user
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required,oneof=admin editor reader"`
	Email    string `json:"email" binding:"required,email"`
}

type UpdateUserRequest struct {
	Password *string `json:"password,omitempty" binding:"omitempty,min=6"` // Pointers to allow partial updates
	Role     *string `json:"role,omitempty" binding:"omitempty,oneof=admin editor reader"`
	Email    *string `json:"email,omitempty" binding:"omitempty,email"`
}
