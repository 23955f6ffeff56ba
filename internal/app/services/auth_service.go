package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/elimishatrust/studyloan/internal/app/models"
	"github.com/elimishatrust/studyloan/internal/app/models/dto"
	"github.com/elimishatrust/studyloan/internal/app/repositories"
	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
	"github.com/elimishatrust/studyloan/internal/pkg/auth"
	"github.com/elimishatrust/studyloan/internal/pkg/email"
	"github.com/elimishatrust/studyloan/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// AuthService handles authentication operations
type AuthService struct {
	store       repositories.Store
	hasher      *auth.PasswordHasher
	jwtService  *auth.JWTService
	notifier    *notifier
	frontendURL string
	logger      zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	store repositories.Store,
	hasher *auth.PasswordHasher,
	jwtService *auth.JWTService,
	notifier email.Notifier,
	opts Options,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		store:       store,
		hasher:      hasher,
		jwtService:  jwtService,
		notifier:    newNotifier(notifier, opts.NotifyTimeout, logger),
		frontendURL: strings.TrimRight(opts.FrontendURL, "/"),
		logger:      logger,
	}
}

// validateCredentials normalizes the email and checks both fields
func validateCredentials(rawEmail, password string) (string, error) {
	addr := validation.NormalizeEmail(rawEmail)
	if !validation.IsEmail(addr) {
		return "", apperrors.NewValidationError("email must be a valid email address").WithField("email")
	}
	if !validation.IsStrongPassword(password) {
		return "", apperrors.NewValidationError("password must be at least 8 characters and contain a letter and a digit").WithField("password")
	}
	return addr, nil
}

// Register creates an unverified student account with an empty application and
// sends the verification link
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	role := models.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if role == "" {
		role = models.RoleStudent
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("role must be one of: student staff admin").WithField("role")
	}
	if role != models.RoleStudent {
		return nil, apperrors.NewForbiddenError("public registration is limited to students")
	}

	addr, err := validateCredentials(req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.NewDependencyError("failed to hash password", err)
	}
	token, err := auth.NewOpaqueToken()
	if err != nil {
		return nil, apperrors.NewDependencyError("failed to create verification token", err)
	}

	user := &models.User{
		Email:             addr,
		PasswordHash:      digest,
		Role:              role,
		VerificationToken: &token,
	}
	err = s.store.WithinTransaction(ctx, func(ctx context.Context, tx repositories.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		return tx.Applications().Create(ctx, &models.Application{UserID: user.ID, Details: models.Details{}})
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			s.logger.Warn().Str("email", addr).Msg("Registration with existing email")
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, storeError(err, "failed to register user")
	}

	s.logger.Info().Int64("userID", user.ID).Str("email", addr).Msg("User registered")
	s.notifier.send(ctx, "verification", email.VerificationMessage(addr, s.verificationURL(token)))

	return &dto.RegisterResponse{
		UserID:  user.ID,
		Email:   user.Email,
		Role:    string(user.Role),
		Message: "User registered. Check your email to verify your account.",
	}, nil
}

func (s *AuthService) verificationURL(token string) string {
	return s.frontendURL + "/verify-email?token=" + url.QueryEscape(token)
}

// VerifyAccount consumes a single-use verification token
func (s *AuthService) VerifyAccount(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.ErrTokenInvalid
	}

	user, err := s.store.Users().GetByVerificationToken(ctx, token)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrTokenInvalid
		}
		return storeError(err, "failed to verify account")
	}

	if err := s.store.Users().MarkVerified(ctx, user.ID); err != nil {
		return storeError(err, "failed to verify account")
	}
	s.logger.Info().Int64("userID", user.ID).Msg("Account verified")
	return nil
}

// Login checks credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	addr := validation.NormalizeEmail(req.Email)

	user, err := s.store.Users().GetByEmail(ctx, addr)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, storeError(err, "failed to load user")
	}

	if !s.hasher.Verify(user.PasswordHash, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, apperrors.ErrEmailNotVerified
	}

	token, expiresIn, err := s.jwtService.IssueToken(user.Email, string(user.Role))
	if err != nil {
		return nil, apperrors.NewDependencyError("failed to issue access token", err)
	}

	return &dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		Role:        string(user.Role),
	}, nil
}

// Authenticate resolves a bearer token to the full user record
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrTokenInvalid
	}

	user, err := s.store.Users().GetByEmail(ctx, claims.Email())
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, storeError(err, "failed to resolve user")
	}
	return user, nil
}
