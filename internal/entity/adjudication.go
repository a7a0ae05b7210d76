package entity

// Status classifies a single line item against the coverage rule table.
type Status string

const (
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

// CoveragePolicy is one rule table entry. MaxAmount is meaningful only
// when Covered is true.
type CoveragePolicy struct {
	Covered   bool    `json:"covered"`
	MaxAmount float64 `json:"max_amount"`
}

// ClaimFormPayload is the structured payload emitted for an approved item.
type ClaimFormPayload struct {
	PatientName string  `json:"patient_name"`
	Date        string  `json:"date"`
	ServiceCode string  `json:"service_code"`
	Amount      float64 `json:"amount"`
}

// AdjudicationResult is the outcome for one surviving line item. Exactly
// one of ClaimForm (approved) or AppealLetter (denied) is set.
type AdjudicationResult struct {
	ServiceCode  string            `json:"service_code"`
	Status       Status            `json:"status"`
	ClaimForm    *ClaimFormPayload `json:"claim_form,omitempty"`
	AppealLetter string            `json:"appeal_letter,omitempty"`
}
