package dto

import "time"

// CreateUserRequest payload for POST /users.
type CreateUserRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     *string `json:"role,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

// UpdateUserRequest payload for PUT /users/:id. Nil fields are left unchanged.
type UpdateUserRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password *string `json:"password,omitempty"`
	Role     *string `json:"role,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

// UserResponse is the public representation of a user.
type UserResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	OccurrenceCount int       `json:"occurrence_count"`
}
