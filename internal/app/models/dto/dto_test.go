package dto

import (
	"testing"

	"github.com/elimishatrust/studyloan/internal/app/models"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApplicantResponseFillsMissingValues(t *testing.T) {
	details, err := models.ParseDetails([]byte(`{
		"personalDetails": {"fullName": "Jane Doe", "idNumber": null, "phone": "  ", "amount": 5000.5},
		"loanDetails": "not an object",
		"referees": [{"name": "Dr. Smith"}, "skip me"],
		"consentForm": {"studentName": "Jane Doe"}
	}`))
	require.NoError(t, err)

	got := NewApplicantResponse(&models.Applicant{
		User:        models.User{ID: 7, Email: "jane@example.com"},
		Application: models.Application{ID: 3, Details: details},
	})

	assert.Equal(t, int64(3), got.ApplicationID)
	assert.Equal(t, NotAvailable, got.Name)
	assert.Equal(t, "Jane Doe", got.PersonalDetails.FullName)
	assert.Equal(t, NotAvailable, got.PersonalDetails.IDNumber)
	assert.Equal(t, NotAvailable, got.PersonalDetails.Phone)
	assert.Equal(t, "5000.5", got.PersonalDetails.Amount)
	assert.Equal(t, NotAvailable, got.LoanDetails.AmountApplied)
	assert.Equal(t, NotAvailable, got.BudgetDetails.NetSalary)

	require.Len(t, got.Referees, 1)
	assert.Equal(t, "Dr. Smith", got.Referees[0].Name)
	assert.Equal(t, NotAvailable, got.Referees[0].Email)
	assert.NotNil(t, got.Guarantors)
	assert.Empty(t, got.Guarantors)

	assert.Equal(t, "Jane Doe", got.ConsentForm.StudentName)
	assert.Equal(t, NotAvailable, got.ConsentForm.SubmittedAt)
	assert.Nil(t, got.Submission)
	assert.Empty(t, got.Documents)
}

func TestHandleValidationError(t *testing.T) {
	type login struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=8"`
	}
	v := validator.New()

	err := v.Struct(login{Email: "nope", Password: "secret123"})
	detail := HandleValidationError(err)
	assert.Equal(t, ErrorCodeValidationFailed, detail.Code)
	assert.Equal(t, "email", detail.Field)
	assert.Equal(t, []FieldError{{Field: "email", Message: "email must be a valid email address"}}, detail.Details)

	err = v.Struct(login{})
	detail = HandleValidationError(err)
	assert.Empty(t, detail.Field)
	fields, ok := detail.Details.([]FieldError)
	require.True(t, ok)
	assert.Len(t, fields, 2)

	// malformed JSON is not a validator error
	detail = HandleValidationError(assert.AnError)
	assert.Equal(t, "Invalid request format", detail.Message)
	assert.Nil(t, detail.Details)
}
