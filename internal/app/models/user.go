package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID                int64     `json:"id" db:"id"`
	Email             string    `json:"email" db:"email"`
	PasswordHash      string    `json:"-" db:"password_hash"`
	Role              Role      `json:"role" db:"role"`
	IsVerified        bool      `json:"isVerified" db:"is_verified"`
	VerificationToken *string   `json:"-" db:"verification_token"` // single use, cleared on verify
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
}

// Staff links a staff user to the admin who created it
type Staff struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	AdminID   *int64    `json:"adminId,omitempty" db:"admin_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// IsStudent reports whether the user is an applicant
func (u *User) IsStudent() bool {
	return u != nil && u.Role == RoleStudent
}
