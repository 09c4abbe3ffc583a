package batch

import (
	"fmt"
	"strings"
)

// ShortJobID is the path-safe tail of a job id. The inference service hands
// back a full ARN; storage paths and status URLs use only its last segment.
func ShortJobID(jobID string) string {
	if i := strings.LastIndex(jobID, "/"); i >= 0 {
		return jobID[i+1:]
	}
	return jobID
}

// JobOutputKey is the well-known location of a completed job's JSONL output,
// scoped by job id under the batch output prefix.
func JobOutputKey(outputPrefix, jobID string) string {
	return fmt.Sprintf("%s/%s/records.jsonl", outputPrefix, ShortJobID(jobID))
}
