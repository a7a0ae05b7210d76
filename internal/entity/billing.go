package entity

import (
	"encoding/json"
	"strconv"
	"strings"
)

// UnknownField substitutes for absent free-text fields when they are used
// downstream (prompts, claim form payloads).
const UnknownField = "Unknown"

// BillingLineItem is one billed service/charge. Amount arrives from the
// extractor as a number, a numeric string, or garbage; it is kept raw here
// and coerced at adjudication time.
type BillingLineItem struct {
	ServiceCode string          `json:"service_code"`
	Description string          `json:"description,omitempty"`
	Amount      json.RawMessage `json:"amount,omitempty"`
}

// AmountValue coerces the raw amount to a non-negative float. ok is false
// when the amount is absent, non-numeric, or negative.
func (li BillingLineItem) AmountValue() (float64, bool) {
	return coerceAmount(li.Amount)
}

// BillingRecord is the structured result of extracting one uploaded
// document. All patient fields are optional free text. Created once per
// document, immutable afterward, never persisted.
type BillingRecord struct {
	PatientName    string `json:"patient_name,omitempty"`
	DateOfService  string `json:"date_of_service,omitempty"`
	ProviderName   string `json:"provider_name,omitempty"`
	ProviderPhone  string `json:"provider_phone,omitempty"`
	DiagnosisNotes string `json:"diagnosis_notes,omitempty"`
	Address        string `json:"address,omitempty"`
	InsuranceID    string `json:"insurance_id,omitempty"`

	LineItems []BillingLineItem `json:"services,omitempty"`

	// Flat single-service shape some extractions produce instead of a
	// services array.
	ServiceCode string          `json:"service_code,omitempty"`
	Amount      json.RawMessage `json:"amount,omitempty"`
}

// ResolveLineItems returns the record's line items, synthesizing a
// one-element sequence from the flat top-level code/amount pair when the
// services array is empty.
func (r BillingRecord) ResolveLineItems() []BillingLineItem {
	if len(r.LineItems) > 0 {
		return r.LineItems
	}
	if strings.TrimSpace(r.ServiceCode) != "" && !isJSONNull(r.Amount) {
		return []BillingLineItem{{ServiceCode: r.ServiceCode, Amount: r.Amount}}
	}
	return nil
}

// PatientNameOrUnknown returns the patient name, defaulting when absent.
func (r BillingRecord) PatientNameOrUnknown() string {
	return orUnknown(r.PatientName)
}

// DateOfServiceOrUnknown returns the service date, defaulting when absent.
func (r BillingRecord) DateOfServiceOrUnknown() string {
	return orUnknown(r.DateOfService)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return UnknownField
	}
	return s
}

// isJSONNull reports whether raw is absent or the literal null token.
func isJSONNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

// coerceAmount accepts JSON numbers and numeric strings. Anything else,
// including negative values, fails the coercion. A literal null is checked
// first because encoding/json treats null as a successful no-op decode.
func coerceAmount(raw json.RawMessage) (float64, bool) {
	if isJSONNull(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f < 0 {
			return 0, false
		}
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || f < 0 {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
