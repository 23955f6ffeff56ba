package dto

import (
	"time"

	"github.com/elimishatrust/studyloan/internal/app/models"
)

// UserResponse represents basic user information
type UserResponse struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}

// StaffResponse is returned after a staff account is created
type StaffResponse struct {
	UserResponse
	StaffID int64  `json:"staffId"`
	AdminID *int64 `json:"adminId,omitempty"`
}

// UserListResponse represents the admin user listing
type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}

// NewUserResponse projects a user without credentials
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Role:       string(u.Role),
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

// NewUserListResponse projects a list of users
func NewUserListResponse(users []models.User) UserListResponse {
	out := UserListResponse{Users: make([]UserResponse, 0, len(users)), Total: len(users)}
	for i := range users {
		out.Users = append(out.Users, NewUserResponse(&users[i]))
	}
	return out
}
