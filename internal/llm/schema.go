package llm

// BuildBillingJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map, used locally to validate sanitized extraction output before
// it is accepted as a billing record. The shape is deliberately lenient:
// every field is optional free text except the services array, whose items
// must at least be objects. Amounts may be numbers or numeric strings; the
// adjudication step does the strict coercion.
func BuildBillingJSONSchema() map[string]any {
	textProp := map[string]any{"type": []any{"string", "null"}}
	amountProp := map[string]any{"type": []any{"string", "number", "null"}}

	serviceItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"service_code": textProp,
			"description":  textProp,
			"amount":       amountProp,
		},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"patient_name":    textProp,
			"date_of_service": textProp,
			"provider_name":   textProp,
			"provider_phone":  textProp,
			"diagnosis_notes": textProp,
			"address":         textProp,
			"insurance_id":    textProp,
			"service_code":    textProp,
			"amount":          amountProp,
			"services": map[string]any{
				"type":  []any{"array", "null"},
				"items": serviceItem,
			},
		},
	}
}
