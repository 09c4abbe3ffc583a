package entity

// SubmitRequest is the batch submission request body. It may arrive either as
// a raw object or wrapped in a gateway envelope whose body field is a JSON
// string; the handler unwraps before decoding into this type.
type SubmitRequest struct {
	IntentID        string   `json:"intentId"`
	PendingImageIDs []string `json:"pendingImageIds"`
	ModelID         string   `json:"modelId"`
	UserID          string   `json:"userId"`
}

// SubmitResponse is returned with HTTP 202 once the job is accepted (or was
// already accepted for this intent id).
type SubmitResponse struct {
	JobID             string `json:"jobId"`
	StatusURL         string `json:"statusUrl"`
	Cached            bool   `json:"cached"`
	EstimatedDuration int    `json:"estimatedDuration"` // seconds, heuristic
	ImageCount        int    `json:"imageCount"`
}

// StatusChangeEvent is the generic job status notification consumed by the
// reconciler entrypoint. The delivery mechanism (poll, push, bus) is owned by
// infrastructure; this subsystem only assumes the payload shape.
type StatusChangeEvent struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}
