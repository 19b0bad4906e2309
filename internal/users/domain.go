package users

import "time"

// User represents a user account for management. Accounts are never hard
// deleted; deactivation flips the active flag.
type User struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateParams carries the fields for a new account.
type CreateParams struct {
	Username string
	Email    string
	FullName string
	Role     string
	Password string
}

// UpdateParams carries the mutable profile fields.
type UpdateParams struct {
	Email    string
	FullName string
	Role     string
	IsActive bool
}
