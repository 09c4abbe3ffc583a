package entity

import "time"

// PendingImage is a receipt image uploaded by the capture client and waiting
// for OCR. This subsystem only reads these rows; the upload path owns them.
type PendingImage struct {
	ImageID    string    `json:"image_id" dynamodbav:"image_id"` // PK; echoed back as the manifest correlation id
	S3Key      string    `json:"s3_key" dynamodbav:"s3_key"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	UploadedAt time.Time `json:"uploaded_at" dynamodbav:"uploaded_at"`
	Status     string    `json:"status" dynamodbav:"status"`
}
