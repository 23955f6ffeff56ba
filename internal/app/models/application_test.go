package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/elimishatrust/studyloan/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDetails(t *testing.T, raw string) Details {
	t.Helper()
	d, err := ParseDetails([]byte(raw))
	require.NoError(t, err)
	return d
}

func TestMergeIsShallow(t *testing.T) {
	stored := mustDetails(t, `{"a":{"x":1},"b":true}`)
	patch := mustDetails(t, `{"a":{"y":2}}`)

	merged := stored.Merge(patch)

	out, err := merged.Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"y":2},"b":true}`, string(out))

	// the source documents are untouched
	orig, _ := stored.Bytes()
	assert.JSONEq(t, `{"a":{"x":1},"b":true}`, string(orig))
}

func TestCloneDoesNotShareBytes(t *testing.T) {
	d := mustDetails(t, `{"a":"x"}`)
	c := d.Clone()
	c["a"][1] = 'y'

	assert.Equal(t, `"x"`, string(d["a"]))
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"personalDetails":{"fullName":"Jane","email":"jane@example.com"}}`, false},
		{"unknown section passes", `{"siblings":[{"name":"Tom"}]}`, false},
		{"empty object", `{}`, true},
		{"array", `[1,2]`, true},
		{"invalid json", `{"a":`, true},
		{"section not object", `{"loanDetails":"lots"}`, true},
		{"guarantors not array", `{"guarantors":{"name":"x"}}`, true},
		{"referees object allowed", `{"referees":{"one":{"name":"x"}}}`, false},
		{"referees scalar", `{"referees":3}`, true},
		{"bad personal email", `{"personalDetails":{"email":"nope"}}`, true},
		{"empty parent email ok", `{"parentGuardian":{"email":""}}`, false},
		{"bad parent email", `{"parentGuardian":{"email":"x@"}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePayload([]byte(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPartition(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	payload := mustDetails(t, `{
		"personalDetails": {"fullName": "Jane Doe"},
		"studentName": "Jane D.",
		"guardianSignature": "data:image/png;base64,AAA",
		"consentForm": {"studentName": "ignored", "guarantorName": "Sam", "extra": 1}
	}`)

	main, consent := Partition(payload, now)

	assert.Len(t, main, 1)
	assert.Contains(t, main, SectionPersonal)

	assert.Equal(t, "Jane D.", consent.Lookup("studentName").String())
	assert.Equal(t, "Sam", consent.Lookup("guarantorName").String())
	assert.Equal(t, "data:image/png;base64,AAA", consent.Lookup("guardianSignature").String())
	assert.False(t, consent.Lookup("extra").Exists())
	assert.Equal(t, "2026-03-01T10:00:00Z", consent.Lookup(ConsentSubmittedAt).String())
}

func TestDeriveName(t *testing.T) {
	main := mustDetails(t, `{"personalDetails":{"fullName":" Jane Doe "}}`)
	empty := Details{}

	assert.Equal(t, "Consent Name", DeriveName(main, Details{"studentName": json.RawMessage(`"Consent Name"`)}, "old"))
	assert.Equal(t, "Jane Doe", DeriveName(main, empty, "old"))
	assert.Equal(t, "old", DeriveName(empty, Details{"studentName": json.RawMessage(`""`)}, "old"))
}

func TestLookup(t *testing.T) {
	d := mustDetails(t, `{"loanDetails":{"amountApplied":50000},"guarantors":[{"name":"A"},{"name":"B"}]}`)

	assert.Equal(t, int64(50000), d.Lookup("loanDetails.amountApplied").Int())
	assert.Equal(t, "B", d.Lookup("guarantors.1.name").String())
	assert.True(t, d.Lookup("guarantors").IsArray())
	assert.False(t, d.Lookup("budgetDetails.netSalary").Exists())
}

func TestBytesOfNilDetails(t *testing.T) {
	var d Details
	out, err := d.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}
