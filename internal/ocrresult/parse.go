// Package ocrresult parses and validates the JSON document the OCR model
// embeds in each batch output record.
package ocrresult

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ReceiptFields is the normalized shape extracted from one receipt image.
type ReceiptFields struct {
	Merchant     string  `json:"merchant"`
	Amount       string  `json:"amount"`                  // decimal string, 2dp
	Date         string  `json:"date,omitempty"`          // YYYY-MM-DD
	Category     string  `json:"category,omitempty"`      // short label
	CurrencyCode string  `json:"currency_code,omitempty"` // ISO 4217
	Confidence   float32 `json:"confidence,omitempty"`    // 0..1
}

// Parse sanitizes, validates, and decodes a raw model document. The raw
// input is the already-unquoted output.text payload of one batch output
// line. An error here means the record should surface as a failed
// transaction, not be dropped.
func Parse(raw []byte) (ReceiptFields, error) {
	doc := stripCodeFence(raw)

	schema := BuildResultJSONSchema()
	if err := ValidateJSONAgainstSchema(schema, doc); err != nil {
		cleaned, _, sErr := SanitizeFields(doc)
		if sErr != nil {
			return ReceiptFields{}, fmt.Errorf("sanitize: %w", sErr)
		}
		if vErr := ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			return ReceiptFields{}, fmt.Errorf("schema validation failed: %w", vErr)
		}
		doc = cleaned
	}

	var f ReceiptFields
	if err := json.Unmarshal(doc, &f); err != nil {
		return ReceiptFields{}, fmt.Errorf("decode fields: %w", err)
	}
	return f, nil
}

// stripCodeFence removes a markdown fence if the model ignored the "no
// markdown" instruction. Seen in practice with smaller model variants.
func stripCodeFence(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	return []byte(s)
}
