package reconcile

import (
	"context"
	"fmt"

	"github.com/yorutsuke/yorutsuke-cloud/constants"
	"github.com/yorutsuke/yorutsuke-cloud/internal/common"
	"github.com/yorutsuke/yorutsuke-cloud/internal/entity"
)

// HandleStatusChange consumes one job status notification. The transition out
// of SUBMITTED is driven by the batch service's own lifecycle; this is the
// status-update path that mutates the record in place, the one allowed
// post-creation mutation.
//
// On COMPLETED the job's output is reconciled in the same invocation.
func (r *Reconciler) HandleStatusChange(ctx context.Context, ev entity.StatusChangeEvent) error {
	if ev.JobID == "" {
		return fmt.Errorf("%w: jobId is required", common.ErrValidation)
	}
	status := constants.JobStatus(ev.Status)
	switch status {
	case constants.JobStatusRunning, constants.JobStatusCompleted, constants.JobStatusFailed:
	default:
		return fmt.Errorf("%w: unknown status %q", common.ErrValidation, ev.Status)
	}

	rec, err := r.jobs.GetByJobID(ctx, ev.JobID)
	if err != nil {
		// No record, no owner: operational alert, nothing written. The
		// submitter may have lost an intent-id race (orphan job) or the
		// record may have aged out past its TTL.
		r.log.Error("status.owner_resolution_failed", "job_id", ev.JobID, "status", ev.Status, "error", err)
		return err
	}

	if err := r.jobs.UpdateStatus(ctx, rec.IntentID, status); err != nil {
		return err
	}

	if status == constants.JobStatusCompleted {
		if _, err := r.Reconcile(ctx, ev.JobID); err != nil {
			return err
		}
	}
	return nil
}
