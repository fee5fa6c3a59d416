package dto

// UserResponse represents a user record in API responses
type UserResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"fullName,omitempty"`
	Role      string `json:"role"`
	IsActive  bool   `json:"isActive"`
	LastLogin string `json:"lastLogin"` // relative, e.g. "5 minutes ago"
	CreatedAt string `json:"createdAt"`
}

// UpdateUserRequest represents a request to update a user
type UpdateUserRequest struct {
	Email    string `json:"email,omitempty" binding:"omitempty,email"`
	FullName string `json:"fullName,omitempty"`
	Role     string `json:"role,omitempty" binding:"omitempty,oneof=admin superadmin user"`
	IsActive *bool  `json:"isActive,omitempty"`
}
