package ocrresult

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reDecimal = regexp.MustCompile(`^-?\d+(\.\d{1,2})?$`)
	reDate    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// SanitizeFields normalizes a raw model document so a merely-sloppy output
// can still validate. Batch models routinely emit amounts as numbers instead
// of strings and pad fields with whitespace; we fix those and drop optional
// offenders rather than failing the record.
func SanitizeFields(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	var dropped []string

	// amount: required; accept number or loose string and reformat to 2dp
	if v, ok := m["amount"]; ok {
		switch t := v.(type) {
		case float64:
			m["amount"] = fmt.Sprintf("%.2f", t)
		case string:
			s := strings.TrimSpace(t)
			if reDecimal.MatchString(s) {
				if f, err := strconv.ParseFloat(s, 64); err == nil {
					m["amount"] = fmt.Sprintf("%.2f", f)
				}
			} else if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
				m["amount"] = fmt.Sprintf("%.2f", f)
			}
			// otherwise leave it; schema validation reports the failure
		}
	}

	// date: if present but not ISO, drop it
	if v, ok := m["date"].(string); ok {
		s := strings.TrimSpace(v)
		if !reDate.MatchString(s) {
			delete(m, "date")
			dropped = append(dropped, "date")
		} else {
			m["date"] = s
		}
	}

	// currency_code: normalize casing; drop if not 3 letters
	if v, ok := m["currency_code"].(string); ok {
		s := strings.ToUpper(strings.TrimSpace(v))
		if len(s) != 3 {
			delete(m, "currency_code")
			dropped = append(dropped, "currency_code")
		} else {
			m["currency_code"] = s
		}
	}

	// confidence: clamp strays instead of dropping
	if v, ok := m["confidence"].(float64); ok {
		if v < 0 {
			m["confidence"] = 0.0
		} else if v > 1 {
			m["confidence"] = 1.0
		}
	}

	// nil optionals: the prompt says omit, some models send null anyway
	for _, k := range []string{"category", "date", "currency_code", "confidence"} {
		if v, ok := m[k]; ok && v == nil {
			delete(m, k)
			dropped = append(dropped, k)
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return b, dropped, nil
}
