package entity

import (
	"time"

	"github.com/yorutsuke/yorutsuke-cloud/constants"
)

// JobRecord tracks one batch submission, keyed by the client-supplied intent
// id. At most one record exists per intent id; the conditional insert in the
// job repository enforces that. After creation only Status may change.
type JobRecord struct {
	IntentID          string              `json:"intent_id" dynamodbav:"intent_id"` // PK, idempotency key
	JobID             string              `json:"job_id" dynamodbav:"job_id"`       // assigned by the inference service; GSI key
	UserID            string              `json:"user_id" dynamodbav:"user_id"`
	Status            constants.JobStatus `json:"status" dynamodbav:"status"`
	PendingImageCount int                 `json:"pending_image_count" dynamodbav:"pending_image_count"`
	SubmitTime        time.Time           `json:"submit_time" dynamodbav:"submit_time"`
	TTL               int64               `json:"ttl" dynamodbav:"ttl"` // epoch seconds; table TTL sweeper purges after this
}

// NewJobRecord builds a fresh SUBMITTED record with the standard retention
// window applied.
func NewJobRecord(intentID, jobID, userID string, imageCount int, now time.Time) *JobRecord {
	return &JobRecord{
		IntentID:          intentID,
		JobID:             jobID,
		UserID:            userID,
		Status:            constants.JobStatusSubmitted,
		PendingImageCount: imageCount,
		SubmitTime:        now.UTC(),
		TTL:               now.Add(constants.JobRecordTTL).Unix(),
	}
}
