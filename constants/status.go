package constants

// JobStatus is the canonical status for batch job records.
type JobStatus string

// Stable values (store these exact strings in the jobs table).
const (
	JobStatusSubmitted JobStatus = "SUBMITTED" // batch job accepted by the inference service
	JobStatusRunning   JobStatus = "RUNNING"   // in progress on the service side
	JobStatusCompleted JobStatus = "COMPLETED" // terminal success, output available
	JobStatusFailed    JobStatus = "FAILED"    // terminal failure
)

// IsTerminal reports whether a job status is one of the two terminal states.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// TxStatus is the canonical status for transaction records written by the
// result reconciler.
type TxStatus string

const (
	TxStatusUnconfirmed TxStatus = "unconfirmed" // extracted, awaiting user review
	TxStatusConfirmed   TxStatus = "confirmed"   // user accepted the extraction
	TxStatusFailed      TxStatus = "failed"      // model output did not parse; visible to the user
)
