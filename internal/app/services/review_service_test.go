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

func TestListApplicantsOneRowPerStudent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.user(t, "staff@example.com", models.RoleStaff)

	jane := env.student(t, "jane@example.com")
	john := env.student(t, "john@example.com")
	env.student(t, "idle@example.com") // never submits

	_, err := env.svc.Applications.Submit(ctx, jane, payload(t, `{"personalDetails": {"fullName": "Jane"}}`))
	require.NoError(t, err)
	second, err := env.svc.Applications.Submit(ctx, jane, payload(t, `{"personalDetails": {"fullName": "Jane"}}`))
	require.NoError(t, err)
	_, err = env.svc.Applications.Submit(ctx, john, payload(t, `{"personalDetails": {"fullName": "John"}}`))
	require.NoError(t, err)

	_, err = env.svc.Documents.Upload(ctx, jane, Upload{FileName: "id.png", Content: stringReader("png")})
	require.NoError(t, err)

	list, err := env.svc.Review.ListApplicants(ctx, staff)
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)

	// newest submission first
	assert.Equal(t, "john@example.com", list.Applicants[0].Email)
	assert.Equal(t, "jane@example.com", list.Applicants[1].Email)
	assert.Equal(t, second.ApplicationID, list.Applicants[1].ApplicationID)

	require.Len(t, list.Applicants[1].Documents, 1)
	assert.Equal(t, "id.png", list.Applicants[1].Documents[0].FileName)
	assert.Empty(t, list.Applicants[0].Documents)

	admin := env.user(t, "admin@example.com", models.RoleAdmin)
	_, err = env.svc.Review.ListApplicants(ctx, admin)
	assert.NoError(t, err)

	_, err = env.svc.Review.ListApplicants(ctx, jane)
	assertKind(t, err, apperrors.KindForbidden)
}

func TestGetApplicantProjection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.user(t, "staff@example.com", models.RoleStaff)
	jane := env.student(t, "jane@example.com")

	res, err := env.svc.Applications.Submit(ctx, jane, payload(t, `{
		"personalDetails": {"fullName": "Jane Doe", "phone": "", "amount": 120000},
		"guarantors": [{"name": "Uncle Bob"}],
		"referees": {"first": {"name": "Dr. Smith", "email": "smith@example.com"}},
		"studentName": "Jane Doe"
	}`))
	require.NoError(t, err)

	got, err := env.svc.Review.GetApplicant(ctx, staff, res.ApplicationID)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", got.PersonalDetails.FullName)
	assert.Equal(t, dto.NotAvailable, got.PersonalDetails.Phone)
	assert.Equal(t, "120000", got.PersonalDetails.Amount)
	assert.Equal(t, dto.NotAvailable, got.ParentGuardian.FullName)
	assert.Equal(t, dto.NotAvailable, got.LoanDetails.UniversityName)
	require.Len(t, got.Guarantors, 1)
	assert.Equal(t, "Uncle Bob", got.Guarantors[0].Name)
	assert.Equal(t, dto.NotAvailable, got.Guarantors[0].Phone)
	require.Len(t, got.Referees, 1)
	assert.Equal(t, "smith@example.com", got.Referees[0].Email)
	assert.Equal(t, "Jane Doe", got.ConsentForm.StudentName)
	assert.NotEqual(t, dto.NotAvailable, got.ConsentForm.SubmittedAt)
	require.NotNil(t, got.Submission)
	assert.True(t, got.Submission.IsLocked)

	_, err = env.svc.Review.GetApplicant(ctx, staff, 9999)
	assertKind(t, err, apperrors.KindNotFound)
}

func TestSetStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.user(t, "staff@example.com", models.RoleStaff)
	jane := env.student(t, "jane@example.com")

	res, err := env.svc.Applications.Submit(ctx, jane, payload(t, `{"a": 1}`))
	require.NoError(t, err)

	_, err = env.svc.Review.SetStatus(ctx, staff, res.ApplicationID, "cancelled")
	assertKind(t, err, apperrors.KindInvalidStatus)

	before, err := env.store.Submissions().GetLatestByApplicationID(ctx, res.ApplicationID)
	require.NoError(t, err)

	decided, err := env.svc.Review.SetStatus(ctx, staff, res.ApplicationID, "approved")
	require.NoError(t, err)
	assert.Equal(t, "approved", decided.Status)

	after, err := env.store.Submissions().GetLatestByApplicationID(ctx, res.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, after.Status)
	assert.Equal(t, before.IsLocked, after.IsLocked)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)

	_, err = env.svc.Review.SetStatus(ctx, staff, res.ApplicationID, "rejected")
	assertKind(t, err, apperrors.KindConflict)
}

func TestSetStatusAccessAndMissingEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.user(t, "staff@example.com", models.RoleStaff)
	admin := env.user(t, "admin@example.com", models.RoleAdmin)
	jane := env.student(t, "jane@example.com")

	_, err := env.svc.Review.SetStatus(ctx, admin, 1, "approved")
	assertKind(t, err, apperrors.KindForbidden)

	_, err = env.svc.Review.SetStatus(ctx, jane, 1, "approved")
	assertKind(t, err, apperrors.KindForbidden)

	// an application without any ledger entry
	app := env.latest(t, jane.ID)
	_, err = env.svc.Review.SetStatus(ctx, staff, app.ID, "approved")
	assertKind(t, err, apperrors.KindNotFound)
}
