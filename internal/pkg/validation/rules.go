package validation

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Validation rule settings
var (
	// PasswordMinLength is the minimum password length
	PasswordMinLength = 8

	// NameMaxLength bounds display names derived from application details
	NameMaxLength = 100
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = RegisterRules(v)
	return v
}

// Validator returns the shared validator with the custom rules registered
func Validator() *validator.Validate {
	return validate
}

// RegisterRules adds the custom rules to another validator, such as gin's binding engine
func RegisterRules(v *validator.Validate) error {
	return v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsEmail reports whether s is a syntactically valid email address
func IsEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

// IsStrongPassword requires the minimum length plus at least one letter and one digit
func IsStrongPassword(password string) bool {
	if len(password) < PasswordMinLength {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}
