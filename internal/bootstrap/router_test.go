package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elimishatrust/studyloan/internal/app/repositories/memory"
	"github.com/elimishatrust/studyloan/internal/config"
	"github.com/elimishatrust/studyloan/internal/pkg/email"
	"github.com/elimishatrust/studyloan/internal/pkg/filestorage"
)

type outbox struct {
	mu   sync.Mutex
	msgs []email.Message
}

func (o *outbox) Notify(_ context.Context, msg email.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
	return nil
}

var tokenPattern = regexp.MustCompile(`verify-email\?token=([0-9a-f]+)`)

func (o *outbox) lastToken(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.msgs)
	m := tokenPattern.FindStringSubmatch(o.msgs[len(o.msgs)-1].Body)
	require.Len(t, m, 2)
	return m[1]
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code  string `json:"code"`
		Kind  string `json:"kind"`
		Field string `json:"field"`
	} `json:"error"`
}

func (a apiClient) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.serve(req)
}

func (a apiClient) serve(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (a apiClient) upload(token, name, content string) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(a.t, err)
	_, err = part.Write([]byte(content))
	require.NoError(a.t, err)
	require.NoError(a.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return a.serve(req)
}

func (a apiClient) login(email, password string) string {
	a.t.Helper()
	w, env := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var tok struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &tok))
	require.NotEmpty(a.t, tok.AccessToken)
	return tok.AccessToken
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "router-test-secret"
	cfg.JWT.AccessTokenExpiration = "1h"
	cfg.JWT.Issuer = "studyloan-test"
	cfg.Storage.MaxUploadBytes = 1024
	cfg.Notification.Timeout = "1s"
	cfg.Notification.ApplicationsInbox = "applications@example.com"
	cfg.FrontendURL = "http://frontend.test"
	return cfg
}

func newTestAPI(t *testing.T) (apiClient, *Dependencies, *outbox) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	storage, err := filestorage.NewLocalStorage(t.TempDir(), "", zerolog.Nop())
	require.NoError(t, err)
	box := &outbox{}

	cfg := testConfig()
	deps, err := BuildDependencies(cfg, memory.New(), storage, box, zerolog.Nop())
	require.NoError(t, err)
	router, err := SetupRouter(cfg, deps, zerolog.Nop())
	require.NoError(t, err)

	return apiClient{t: t, router: router}, deps, box
}

func TestApplicantJourney(t *testing.T) {
	api, _, box := newTestAPI(t)

	w, env := api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "jane@example.com", "password": "secret123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)

	w, env = api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "jane@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Conflict", env.Error.Kind)

	w, _ = api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "jane@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = api.do(http.MethodGet, "/api/v1/auth/verify?token="+url.QueryEscape(box.lastToken(t)), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	token := api.login("jane@example.com", "secret123")

	w, _ = api.do(http.MethodPatch, "/api/v1/students/me/details", token, `{"personalDetails": {"fullName": "Jane Doe"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = api.do(http.MethodPatch, "/api/v1/students/me/details", token, `[1, 2]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ValidationError", env.Error.Kind)

	w, env = api.do(http.MethodPost, "/api/v1/submissions/submit", token, `{"loanDetails": {"amountApplied": 50000}, "studentName": "Jane Doe"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var submitted struct {
		ApplicationID int64 `json:"applicationId"`
		Locked        bool  `json:"locked"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &submitted))
	assert.True(t, submitted.Locked)

	w, env = api.do(http.MethodPatch, "/api/v1/students/me/details", token, `{"a": 1}`)
	assert.Equal(t, http.StatusLocked, w.Code)
	assert.Equal(t, "Locked", env.Error.Kind)

	w, env = api.do(http.MethodGet, "/api/v1/students/me/submission-status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"status":"pending"`)

	w, env = api.upload(token, "id.png", "png bytes")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var doc struct {
		FileURL string `json:"fileUrl"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &doc))
	require.True(t, strings.HasPrefix(doc.FileURL, "uploads/"), doc.FileURL)

	// the local driver serves the stored file
	w, _ = api.serve(httptest.NewRequest(http.MethodGet, "/"+doc.FileURL, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png bytes", w.Body.String())

	w, env = api.upload(token, "huge.pdf", strings.Repeat("x", 2048))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "file", env.Error.Field)

	w, env = api.do(http.MethodGet, "/api/v1/uploads", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "id.png")
	assert.NotContains(t, string(env.Data), "huge.pdf")

	w, _ = api.do(http.MethodGet, "/api/v1/admin/students", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReviewJourney(t *testing.T) {
	api, deps, box := newTestAPI(t)
	ctx := context.Background()

	_, err := deps.Services.Users.EnsureAdmin(ctx, "root@example.com", "rootpass1")
	require.NoError(t, err)
	adminToken := api.login("root@example.com", "rootpass1")

	w, env := api.do(http.MethodPost, "/api/v1/admin/create-staff", adminToken, map[string]string{"email": "staff@example.com", "password": "reviewer1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)
	staffToken := api.login("staff@example.com", "reviewer1")

	w, _ = api.do(http.MethodPost, "/api/v1/admin/create-staff", staffToken, map[string]string{"email": "x@example.com", "password": "reviewer1"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "jane@example.com", "password": "secret123"})
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = api.do(http.MethodGet, "/api/v1/auth/verify?token="+box.lastToken(t), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	studentToken := api.login("jane@example.com", "secret123")

	w, env = api.do(http.MethodPost, "/api/v1/submissions/submit", studentToken, `{"personalDetails": {"fullName": "Jane Doe"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	var submitted struct {
		ApplicationID int64 `json:"applicationId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &submitted))
	appPath := strconv.FormatInt(submitted.ApplicationID, 10)

	w, env = api.do(http.MethodGet, "/api/v1/admin/students", staffToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"fullName":"Jane Doe"`)
	assert.Contains(t, string(env.Data), `"total":1`)

	w, env = api.do(http.MethodGet, "/api/v1/admin/students/"+appPath, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"universityName":"N/A"`)

	w, _ = api.do(http.MethodGet, "/api/v1/admin/students/abc", staffToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.do(http.MethodPatch, "/api/v1/staff/submission/"+appPath, adminToken, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = api.do(http.MethodPatch, "/api/v1/staff/submission/"+appPath, staffToken, map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "InvalidStatus", env.Error.Kind)

	w, _ = api.do(http.MethodPatch, "/api/v1/staff/submission/"+appPath, staffToken, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = api.do(http.MethodPatch, "/api/v1/staff/submission/"+appPath, staffToken, map[string]string{"status": "rejected"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = api.do(http.MethodGet, "/api/v1/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"total":3`)
}

func TestOperationalRoutes(t *testing.T) {
	api, _, _ := newTestAPI(t)

	w, _ := api.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "studyloan_http_requests_total")

	w, env := api.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NotFound", env.Error.Kind)

	w, _ = api.do(http.MethodGet, "/api/v1/uploads", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
