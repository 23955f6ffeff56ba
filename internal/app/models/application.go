package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
	"github.com/elimishatrust/studyloan/internal/pkg/validation"
	"github.com/tidwall/gjson"
)

// Application is one version of an applicant's form, based on the 'applications' table.
// A user owns one Application per application cycle.
type Application struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Details   Details   `json:"details" db:"details"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Section names of the details document
const (
	SectionPersonal   = "personalDetails"
	SectionParent     = "parentGuardian"
	SectionEmployment = "employmentDetails"
	SectionFinancial  = "financialDetails"
	SectionLoan       = "loanDetails"
	SectionReferees   = "referees"
	SectionBudget     = "budgetDetails"
	SectionGuarantors = "guarantors"
	SectionConsent    = "consentForm"
)

var objectSections = []string{
	SectionPersonal,
	SectionParent,
	SectionEmployment,
	SectionFinancial,
	SectionLoan,
	SectionBudget,
	SectionConsent,
}

var emailFields = []string{
	SectionPersonal + ".email",
	SectionParent + ".email",
}

// Details is the free-form application document: top-level section name to raw JSON.
// Values are treated as immutable; every write produces a new map.
type Details map[string]json.RawMessage

// ParseDetails decodes a stored details value. Empty input yields an empty document.
func ParseDetails(raw []byte) (Details, error) {
	if len(raw) == 0 || gjson.ParseBytes(raw).Type == gjson.Null {
		return Details{}, nil
	}
	if !gjson.ParseBytes(raw).IsObject() {
		return nil, apperrors.NewValidationError("details must be a JSON object")
	}
	d := Details{}
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, apperrors.NewValidationError("details are not valid JSON")
	}
	return d, nil
}

// ParsePayload decodes a client payload, which must be a non-empty object with
// well-formed known sections.
func ParsePayload(raw []byte) (Details, error) {
	if !gjson.ValidBytes(raw) {
		return nil, apperrors.NewValidationError("payload is not valid JSON")
	}
	if !gjson.ParseBytes(raw).IsObject() {
		return nil, apperrors.NewValidationError("payload must be a JSON object")
	}
	d, err := ParseDetails(raw)
	if err != nil {
		return nil, err
	}
	if len(d) == 0 {
		return nil, apperrors.NewValidationError("payload must not be empty")
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks the shape of known sections. Unknown sections pass through.
func (d Details) Validate() error {
	for _, section := range objectSections {
		if v := d.section(section); v.Exists() && v.Type != gjson.Null && !v.IsObject() {
			return apperrors.NewValidationError(section + " must be an object").WithField(section)
		}
	}
	if v := d.section(SectionGuarantors); v.Exists() && v.Type != gjson.Null && !v.IsArray() {
		return apperrors.NewValidationError(SectionGuarantors + " must be an array").WithField(SectionGuarantors)
	}
	if v := d.section(SectionReferees); v.Exists() && v.Type != gjson.Null && !v.IsArray() && !v.IsObject() {
		return apperrors.NewValidationError(SectionReferees + " must be an array or object").WithField(SectionReferees)
	}
	for _, field := range emailFields {
		v := d.Lookup(field)
		if !v.Exists() || v.Type == gjson.Null || (v.Type == gjson.String && v.Str == "") {
			continue
		}
		if v.Type != gjson.String || !validation.IsEmail(strings.TrimSpace(v.Str)) {
			return apperrors.NewValidationError(field + " must be a valid email address").WithField(field)
		}
	}
	return nil
}

func (d Details) section(name string) gjson.Result {
	raw, ok := d[name]
	if !ok {
		return gjson.Result{}
	}
	return gjson.ParseBytes(raw)
}

// Lookup resolves a dotted path whose first segment is a section name
func (d Details) Lookup(path string) gjson.Result {
	section, rest, _ := strings.Cut(path, ".")
	if rest == "" {
		return d.section(section)
	}
	raw, ok := d[section]
	if !ok {
		return gjson.Result{}
	}
	return gjson.GetBytes(raw, rest)
}

// Clone returns a deep copy
func (d Details) Clone() Details {
	out := make(Details, len(d))
	for k, v := range d {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// Merge returns a new document where each top-level key of patch replaces the
// same key of d. Nested values are never merged.
func (d Details) Merge(patch Details) Details {
	out := d.Clone()
	for k, v := range patch {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// With returns a new document with key set to value
func (d Details) With(key string, value json.RawMessage) Details {
	return d.Merge(Details{key: value})
}

// FullName returns personalDetails.fullName when it is a non-empty string
func (d Details) FullName() string {
	return nonEmptyString(d.Lookup(SectionPersonal + ".fullName"))
}

// Bytes encodes the document; an empty document encodes as {}
func (d Details) Bytes() ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]json.RawMessage(d))
}

// DeriveName picks a display name: consent student name, then personal
// full name, then the previous name.
func DeriveName(main Details, consent Details, previous string) string {
	if name := nonEmptyString(consent.Lookup("studentName")); name != "" {
		return truncateName(name)
	}
	if name := main.FullName(); name != "" {
		return truncateName(name)
	}
	return previous
}

func nonEmptyString(v gjson.Result) string {
	if v.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(v.Str)
}

func truncateName(name string) string {
	r := []rune(name)
	if len(r) > validation.NameMaxLength {
		return string(r[:validation.NameMaxLength])
	}
	return name
}
