package entity

import (
	"time"

	"github.com/yorutsuke/yorutsuke-cloud/constants"
)

// Transaction is a bookkeeping entry reconciled from one OCR output record.
// Keyed by (user_id, transaction_id).
type Transaction struct {
	UserID        string             `json:"user_id" dynamodbav:"user_id"`               // PK
	TransactionID string             `json:"transaction_id" dynamodbav:"transaction_id"` // SK
	S3Key         string             `json:"s3_key" dynamodbav:"s3_key"`
	Amount        string             `json:"amount" dynamodbav:"amount"` // decimal string, 2dp
	Merchant      string             `json:"merchant" dynamodbav:"merchant"`
	Category      string             `json:"category,omitempty" dynamodbav:"category,omitempty"`
	ReceiptDate   string             `json:"receipt_date,omitempty" dynamodbav:"receipt_date,omitempty"` // YYYY-MM-DD
	AIConfidence  float32            `json:"ai_confidence,omitempty" dynamodbav:"ai_confidence,omitempty"`
	AIResult      string             `json:"ai_result,omitempty" dynamodbav:"ai_result,omitempty"` // raw model output, kept for review
	Status        constants.TxStatus `json:"status" dynamodbav:"status"`
	CreatedAt     time.Time          `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" dynamodbav:"updated_at"`
	TTL           int64              `json:"ttl,omitempty" dynamodbav:"ttl,omitempty"` // set for guest users only
}
