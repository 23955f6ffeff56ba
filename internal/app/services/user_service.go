package services

import (
	"context"

	"github.com/elimishatrust/studyloan/internal/app/models"
	"github.com/elimishatrust/studyloan/internal/app/models/dto"
	"github.com/elimishatrust/studyloan/internal/app/repositories"
	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
	"github.com/elimishatrust/studyloan/internal/pkg/auth"
	"github.com/rs/zerolog"
)

// UserService defines the interface for account administration
type UserService interface {
	CreateStaff(ctx context.Context, admin *models.User, req *dto.CreateStaffRequest) (*dto.StaffResponse, error)
	CreateStaffAccount(ctx context.Context, email, password string, adminID *int64) (*dto.StaffResponse, error)
	ListUsers(ctx context.Context, admin *models.User) (*dto.UserListResponse, error)
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	store  repositories.Store
	hasher *auth.PasswordHasher
	logger zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(store repositories.Store, hasher *auth.PasswordHasher, logger zerolog.Logger) UserService {
	return &userServiceImpl{
		store:  store,
		hasher: hasher,
		logger: logger,
	}
}

func isAdmin(u *models.User) bool {
	return u != nil && u.Role == models.RoleAdmin
}

// CreateStaff creates a verified staff account owned by admin
func (s *userServiceImpl) CreateStaff(ctx context.Context, admin *models.User, req *dto.CreateStaffRequest) (*dto.StaffResponse, error) {
	if !isAdmin(admin) {
		return nil, apperrors.NewForbiddenError("admin access required")
	}
	adminID := admin.ID
	return s.CreateStaffAccount(ctx, req.Email, req.Password, &adminID)
}

// CreateStaffAccount creates a verified staff user and its staff row in one
// transaction. adminID is nil for accounts created from the command line.
func (s *userServiceImpl) CreateStaffAccount(ctx context.Context, rawEmail, password string, adminID *int64) (*dto.StaffResponse, error) {
	addr, err := validateCredentials(rawEmail, password)
	if err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.NewDependencyError("failed to hash password", err)
	}

	user := &models.User{
		Email:        addr,
		PasswordHash: digest,
		Role:         models.RoleStaff,
		IsVerified:   true,
	}
	staff := &models.Staff{AdminID: adminID}

	err = s.store.WithinTransaction(ctx, func(ctx context.Context, tx repositories.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		staff.UserID = user.ID
		return tx.Staff().Create(ctx, staff)
	})
	if err != nil {
		return nil, storeError(err, "failed to create staff")
	}

	s.logger.Info().Int64("userID", user.ID).Str("email", addr).Msg("Staff account created")
	return &dto.StaffResponse{
		UserResponse: dto.NewUserResponse(user),
		StaffID:      staff.ID,
		AdminID:      staff.AdminID,
	}, nil
}

// ListUsers returns every account ordered by id
func (s *userServiceImpl) ListUsers(ctx context.Context, admin *models.User) (*dto.UserListResponse, error) {
	if !isAdmin(admin) {
		return nil, apperrors.NewForbiddenError("admin access required")
	}

	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, storeError(err, "failed to list users")
	}

	resp := dto.NewUserListResponse(users)
	return &resp, nil
}

// EnsureAdmin creates a verified admin account unless the email is taken.
// It reports whether an account was created.
func (s *userServiceImpl) EnsureAdmin(ctx context.Context, rawEmail, password string) (bool, error) {
	addr, err := validateCredentials(rawEmail, password)
	if err != nil {
		return false, err
	}

	exists, err := s.store.Users().EmailExists(ctx, addr)
	if err != nil {
		return false, storeError(err, "failed to check admin account")
	}
	if exists {
		return false, nil
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return false, apperrors.NewDependencyError("failed to hash password", err)
	}

	err = s.store.Users().Create(ctx, &models.User{
		Email:        addr,
		PasswordHash: digest,
		Role:         models.RoleAdmin,
		IsVerified:   true,
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			return false, nil
		}
		return false, storeError(err, "failed to create admin account")
	}

	s.logger.Info().Str("email", addr).Msg("Admin account created")
	return true, nil
}
