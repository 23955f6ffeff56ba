package dto

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int    `json:"expiresIn"`
	Role        string `json:"role" example:"student"`
}

// RegisterRequest represents a user registration request.
// Role defaults to student when omitted.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,password"`
	Role     string `json:"role" binding:"omitempty,oneof=student staff admin"`
}

// RegisterResponse is returned once the account is created and the verification mail queued
type RegisterResponse struct {
	UserID  int64  `json:"userId"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

// CreateStaffRequest is accepted by the admin staff endpoint
type CreateStaffRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,password"`
}
