package ocrresult

// BuildResultJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. The batch OCR model is prompted to return exactly this shape;
// we validate locally before trusting any field.
func BuildResultJSONSchema() map[string]any {
	props := map[string]any{
		"merchant":      map[string]any{"type": "string", "minLength": 1},
		"amount":        decimalProp(),
		"date":          map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"category":      map[string]any{"type": "string"},
		"currency_code": map[string]any{"type": "string", "minLength": 3, "maxLength": 3},
		"confidence":    map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
	}
	required := []string{"merchant", "amount"}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^-?\d+(\.\d{1,2})?$`, // allow negatives for refunds
	}
}
