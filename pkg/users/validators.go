package users

// CreateUserPayload represents the request body for creating a user.
type CreateUserPayload struct {
	Username string  `json:"username" mod:"trim" validate:"required,min=3,max=50"`
	Email    *string `json:"email" mod:"trim" validate:"omitempty,email"`
	Password string  `json:"password" validate:"required,min=8"`
	RoleID   int     `json:"role_id" validate:"required"`
}

// UpdateUserPayload represents the request body for updating a user.
type UpdateUserPayload struct {
	Username *string `json:"username" mod:"trim" validate:"omitempty,min=3,max=50"`
	Email    *string `json:"email" mod:"trim" validate:"omitempty,email"`
	RoleID   *int    `json:"role_id"`
	IsActive *bool   `json:"is_active"`
}

// ResetPasswordPayload represents the request body for resetting a password.
type ResetPasswordPayload struct {
	CurrentPassword *string `json:"current_password"` // Required when resetting your own password
	NewPassword     string  `json:"new_password" validate:"required,min=8"`
}

// ListUsersQuery represents the query parameters for listing users.
type ListUsersQuery struct {
	Limit    int   `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset   int   `query:"offset" default:"0" validate:"min=0"`
	IsActive *bool `query:"is_active"`
}
