package llm

import (
	"fmt"
	"strings"
)

// BuildExtractionPrompt composes the field-extraction instruction. It
// demands a single JSON object with a fixed key set and explicitly forbids
// prose or markdown fencing around the JSON.
func BuildExtractionPrompt(docText string) string {
	var b strings.Builder
	b.WriteString(`Extract as much medical billing information as possible from the provided text, even if data appears in a table, is scattered, or is part of sentences. If a field is not present or cannot be found, set it to null.

Return a JSON dictionary with these top-level keys:
- patient_name
- date_of_service
- provider_name
- provider_phone
- diagnosis_notes
- address
- insurance_id

If there are multiple services (charges), return them as an array under a top-level key "services":
"services": [
    {
      "service_code": ...,
      "description": ...,
      "amount": ...
    },
    ...
]

Do not return any Markdown formatting or explanation. ONLY raw JSON.

Here is the bill text:
`)
	b.WriteString(docText)
	return b.String()
}

// BuildUncoveredAppealPrompt is the denial template for a service code that
// is absent from the rule table or not covered.
func BuildUncoveredAppealPrompt(code, patientName, date string, amount float64) string {
	return fmt.Sprintf(
		"Draft a formal appeal letter for denial of claim with code %s.\n"+
			"Patient: %s, Date: %s, Amount: %s.\n"+
			"Reason: Not covered by insurance.",
		code, patientName, date, formatAmount(amount))
}

// BuildOverbillingAppealPrompt is the denial template for a covered code
// billed above its policy maximum.
func BuildOverbillingAppealPrompt(code, patientName, date string, amount, maxAmount float64) string {
	return fmt.Sprintf(
		"Draft a formal appeal letter for denial due to overbilling.\n"+
			"Patient: %s, Date: %s, Amount: %s.\n"+
			"Maximum allowed amount for code %s: %s",
		patientName, date, formatAmount(amount), code, formatAmount(maxAmount))
}

// BuildClaimFormPrompt renders the full billing record into a claim form
// generation request. The generated text is used verbatim.
func BuildClaimFormPrompt(recordJSON string) string {
	return "Generate a clear, human-readable medical insurance claim form from the following " +
		"billing data. Include patient details, provider details, and an itemized list of " +
		"approved services with amounts. Plain text only, no markdown.\n\n" +
		"Billing data:\n" + recordJSON
}

func formatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
