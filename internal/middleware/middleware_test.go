package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elimishatrust/studyloan/internal/app/models"
	"github.com/elimishatrust/studyloan/internal/app/models/dto"
	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuthenticator map[string]*models.User

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (*models.User, error) {
	if u, ok := f[token]; ok {
		return u, nil
	}
	return nil, apperrors.ErrTokenInvalid
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.APIResponse {
	t.Helper()
	var resp dto.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func newRouter() *gin.Engine {
	am := NewAuthMiddleware(fakeAuthenticator{
		"student-token": {ID: 1, Email: "jane@example.com", Role: models.RoleStudent},
		"staff-token":   {ID: 2, Email: "staff@example.com", Role: models.RoleStaff},
	})

	r := gin.New()
	r.Use(RequestLogger(zerolog.Nop()))
	r.GET("/me", am.JWTAuth(), func(c *gin.Context) {
		user, ok := MustCurrentUser(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(user.Email))
	})
	r.GET("/staff", am.JWTAuth(), am.RequireRoles(models.RoleStaff, models.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse("ok"))
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	r := newRouter()

	tests := []struct {
		name   string
		header string
		status int
		code   dto.ErrorCode
	}{
		{"missing header", "", http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
		{"valid token", "Bearer student-token", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			if tt.code == "" {
				assert.True(t, resp.Success)
				assert.Equal(t, "jane@example.com", resp.Data)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "Unauthorized", resp.Error.Kind)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	r := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/staff", nil)
	req.Header.Set("Authorization", "Bearer student-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/staff", nil)
	req.Header.Set("Authorization", "Bearer staff-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleAPIErrorStatuses(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   dto.ErrorCode
	}{
		{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
		{apperrors.ErrEmailNotVerified, http.StatusForbidden, dto.ErrorCodeForbidden},
		{apperrors.NewResourceNotFoundError("application not found"), http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeConflict},
		{apperrors.ErrApplicationLocked, http.StatusLocked, dto.ErrorCodeLocked},
		{apperrors.NewInvalidStatusError("bad status"), http.StatusBadRequest, dto.ErrorCodeInvalidStatus},
		{apperrors.NewValidationError("bad input"), http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{apperrors.NewDependencyError("failed to save", errors.New("pq: password=hunter2")), http.StatusServiceUnavailable, dto.ErrorCodeDependencyFailure},
		{errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleAPIError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.NotContains(t, w.Body.String(), "hunter2")
			assert.NotContains(t, w.Body.String(), "boom")
			resp := decode(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestHandleAPIErrorKeepsFieldAndDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	err := apperrors.NewValidationError("file too large").
		WithField("file").
		WithDetails(map[string]interface{}{"maxBytes": 10})
	HandleAPIError(c, err)

	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "file", resp.Error.Field)
	assert.Equal(t, "file too large", resp.Error.Message)
	assert.Equal(t, map[string]interface{}{"maxBytes": float64(10)}, resp.Error.Details)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://frontend.test/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://frontend.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://frontend.test", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRegisterBindingRules(t *testing.T) {
	require.NoError(t, RegisterBindingRules())
}
