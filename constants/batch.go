package constants

import (
	"strings"
	"time"
)

// MinBatchSize is the smallest record count the batch inference service will
// accept in one manifest. Submissions that shrink below this after dropping
// unreadable images must be aborted.
const MinBatchSize = 100

// JobRecordTTL is how long a job record survives before the table's TTL
// sweeper may purge it.
const JobRecordTTL = 7 * 24 * time.Hour

// GuestTransactionTTL bounds retention of transactions owned by guest users.
const GuestTransactionTTL = 30 * 24 * time.Hour

// GuestUserPrefix marks user ids created without an account.
const GuestUserPrefix = "guest-"

// IsGuestUser reports whether a user id belongs to a guest session.
func IsGuestUser(userID string) bool {
	return strings.HasPrefix(userID, GuestUserPrefix)
}

// OCRPrompt is the fixed instruction sent with every manifest entry. The
// batch output parser depends on the field names requested here.
const OCRPrompt = "You are a receipt OCR engine. Read the attached receipt image and return ONLY a JSON object " +
	"with these fields: merchant (string), amount (decimal string, e.g. \"1280.00\"), date (YYYY-MM-DD), " +
	"category (short label), currency_code (3-letter ISO 4217), confidence (number 0..1). " +
	"Never output null; omit a field if it is not visible. Do not wrap the JSON in markdown."

// ImageFormats lists the formats the manifest builder may declare.
var ImageFormats = map[string]struct{}{
	"jpeg": {},
	"png":  {},
	"webp": {},
}

// NormalizeImageFormat maps a stored object key extension to the format name
// the inference service expects. Unknown extensions fall back to jpeg, which
// matches the capture client's default output.
func NormalizeImageFormat(ext string) string {
	e := strings.ToLower(strings.TrimPrefix(ext, "."))
	if e == "jpg" {
		e = "jpeg"
	}
	if _, ok := ImageFormats[e]; ok {
		return e
	}
	return "jpeg"
}
