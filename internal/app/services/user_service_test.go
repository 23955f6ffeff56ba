package services

import (
	"context"
	"testing"

	"github.com/elimishatrust/studyloan/internal/app/models"
	"github.com/elimishatrust/studyloan/internal/app/models/dto"
	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStaff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, "admin@example.com", models.RoleAdmin)

	created, err := env.svc.Users.CreateStaff(ctx, admin, &dto.CreateStaffRequest{Email: "Staff@Example.com", Password: "reviewer1"})
	require.NoError(t, err)
	assert.Equal(t, "staff@example.com", created.Email)
	assert.Equal(t, "staff", created.Role)
	assert.True(t, created.IsVerified)
	require.NotNil(t, created.AdminID)
	assert.Equal(t, admin.ID, *created.AdminID)

	staff, err := env.store.Staff().GetByUserID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.StaffID, staff.ID)

	// the new account can log in straight away
	_, err = env.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "staff@example.com", Password: "reviewer1"})
	assert.NoError(t, err)

	_, err = env.svc.Users.CreateStaff(ctx, admin, &dto.CreateStaffRequest{Email: "staff@example.com", Password: "reviewer1"})
	assertKind(t, err, apperrors.KindConflict)
}

func TestCreateStaffRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	staff := env.user(t, "staff@example.com", models.RoleStaff)

	_, err := env.svc.Users.CreateStaff(context.Background(), staff, &dto.CreateStaffRequest{Email: "x@example.com", Password: "reviewer1"})
	assertKind(t, err, apperrors.KindForbidden)
}

func TestCreateStaffAccountWithoutAdmin(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.svc.Users.CreateStaffAccount(context.Background(), "cli@example.com", "reviewer1", nil)
	require.NoError(t, err)
	assert.Nil(t, created.AdminID)
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, "admin@example.com", models.RoleAdmin)
	env.student(t, "jane@example.com")

	list, err := env.svc.Users.ListUsers(ctx, admin)
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)
	assert.Equal(t, "admin@example.com", list.Users[0].Email)
	assert.Equal(t, "jane@example.com", list.Users[1].Email)

	staff := env.user(t, "staff@example.com", models.RoleStaff)
	_, err = env.svc.Users.ListUsers(ctx, staff)
	assertKind(t, err, apperrors.KindForbidden)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.svc.Users.EnsureAdmin(ctx, "root@example.com", "rootpass1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.svc.Users.EnsureAdmin(ctx, "ROOT@example.com", "rootpass1")
	require.NoError(t, err)
	assert.False(t, created)

	u, err := env.store.Users().GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.True(t, u.IsVerified)
}
