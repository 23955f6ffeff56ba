package models

// Role defines the user role type
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// SubmissionStatus is the review outcome of a ledger entry
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// IsDecision reports whether s is a status staff may set
func (s SubmissionStatus) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}
