package middleware

import (
	"context"

	"github.com/elimishatrust/studyloan/internal/app/models"
	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
	"github.com/elimishatrust/studyloan/internal/pkg/auth"
	"github.com/gin-gonic/gin"
)

const userContextKey = "currentUser"

// Authenticator resolves a bearer token to its user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	authenticator Authenticator
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(authenticator Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// JWTAuth validates the bearer token and stores the resolved user in the context.
// The user is looked up once here and handed to every service call of the request.
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortWithError(c, apperrors.NewUnauthorizedError("authentication required"))
			return
		}

		user, err := m.authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireRoles rejects authenticated users whose role is not listed
func (m *AuthMiddleware) RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortWithError(c, apperrors.NewUnauthorizedError("authentication required"))
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		abortWithError(c, apperrors.NewForbiddenError("you don't have sufficient permissions for this operation"))
	}
}

// CurrentUser returns the user resolved by JWTAuth
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// MustCurrentUser is CurrentUser for handlers mounted behind JWTAuth.
// A missing user is reported as Unauthorized and false is returned.
func MustCurrentUser(c *gin.Context) (*models.User, bool) {
	user, ok := CurrentUser(c)
	if !ok {
		HandleAPIError(c, apperrors.NewUnauthorizedError("authentication required"))
		return nil, false
	}
	return user, true
}

func abortWithError(c *gin.Context, err error) {
	HandleAPIError(c, err)
	c.Abort()
}
