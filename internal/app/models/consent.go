package models

import (
	"encoding/json"
	"time"

	"github.com/tidwall/gjson"
)

// ConsentKeys are the payload keys that make up the consent block
var ConsentKeys = []string{
	"studentName", "studentDate", "studentSignature",
	"guardianName", "guardianDate", "guardianSignature",
	"guarantorName", "guarantorDate", "guarantorSignature",
}

// ConsentSubmittedAt is stamped into the consent block on every submit
const ConsentSubmittedAt = "submittedAt"

func isConsentKey(key string) bool {
	for _, k := range ConsentKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Partition splits a submit payload into the main sections and the consent block.
// Consent keys are taken from the top level first, then from a nested consentForm
// object. The consentForm key itself never reaches main.
func Partition(payload Details, now time.Time) (main Details, consent Details) {
	main = Details{}
	consent = Details{}

	if nested := payload.section(SectionConsent); nested.IsObject() {
		nested.ForEach(func(key, value gjson.Result) bool {
			if isConsentKey(key.Str) {
				consent[key.Str] = json.RawMessage(value.Raw)
			}
			return true
		})
	}

	for k, v := range payload {
		switch {
		case k == SectionConsent:
		case isConsentKey(k):
			consent[k] = append(json.RawMessage(nil), v...)
		default:
			main[k] = append(json.RawMessage(nil), v...)
		}
	}

	stamp, _ := json.Marshal(now.UTC().Format(time.RFC3339Nano))
	consent[ConsentSubmittedAt] = stamp
	return main, consent
}
