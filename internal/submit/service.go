// Package submit orchestrates one batch submission: idempotency gate,
// manifest build, external submit, and the conditional job-record insert.
package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yorutsuke/yorutsuke-cloud/internal/batch"
	"github.com/yorutsuke/yorutsuke-cloud/internal/common"
	"github.com/yorutsuke/yorutsuke-cloud/internal/entity"
	"github.com/yorutsuke/yorutsuke-cloud/internal/manifest"
	"github.com/yorutsuke/yorutsuke-cloud/internal/repository"
)

// ManifestBuilder is what the service needs from the manifest package.
type ManifestBuilder interface {
	Build(ctx context.Context, userID, modelID string, imageIDs []string) (*manifest.Result, error)
}

type Service struct {
	jobs      repository.JobRepository
	builder   ManifestBuilder
	submitter batch.Submitter
	cfg       common.BatchConfig
	outputURI string
	log       *slog.Logger
	now       func() time.Time
}

func NewService(jobs repository.JobRepository, builder ManifestBuilder, submitter batch.Submitter, cfg common.BatchConfig, log *slog.Logger) *Service {
	return &Service{
		jobs:      jobs,
		builder:   builder,
		submitter: submitter,
		cfg:       cfg,
		outputURI: fmt.Sprintf("s3://%s/%s/", cfg.Bucket, cfg.OutputPrefix),
		log:       log,
		now:       time.Now,
	}
}

// Submit runs the steps strictly in sequence; each depends on the previous
// step's output, so there is nothing to parallelize.
//
// The up-front Get is an optimization that avoids redundant manifest builds
// on obvious duplicates. The conditional insert at the end is the actual
// correctness boundary: two racing submissions can both pass the read check,
// and only one wins the write.
func (s *Service) Submit(ctx context.Context, req *entity.SubmitRequest) (*entity.SubmitResponse, error) {
	start := s.now()
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if req.ModelID == "" {
		req.ModelID = s.cfg.DefaultModel
	}
	log := s.log.With("intent_id", req.IntentID, "user_id", req.UserID)

	// Idempotency gate. A store failure propagates: submitting without a
	// verified check would defeat the deduplication guarantee.
	existing, err := s.jobs.Get(ctx, req.IntentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Info("submit.cached", "job_id", existing.JobID)
		return s.response(existing.JobID, true, existing.PendingImageCount), nil
	}

	mres, err := s.builder.Build(ctx, req.UserID, req.ModelID, req.PendingImageIDs)
	if err != nil {
		return nil, err
	}

	jobID, err := s.submitter.Submit(ctx, mres.ManifestURI, req.ModelID, s.outputURI)
	if err != nil {
		// No job record was written; the caller may retry with the
		// same intent id.
		return nil, err
	}

	rec := entity.NewJobRecord(req.IntentID, jobID, req.UserID, mres.IncludedCount, s.now())
	if err := s.jobs.CreateIfAbsent(ctx, rec); err != nil {
		if errors.Is(err, common.ErrConflict) {
			// Lost the check-then-act race: another submission with
			// this intent id already recorded its job. Return the
			// winner's result; our just-submitted job becomes an
			// orphan the batch service will run and the reconciler
			// will ignore for lack of a job record.
			winner, rerr := s.jobs.Get(ctx, req.IntentID)
			if rerr != nil {
				return nil, rerr
			}
			if winner == nil {
				return nil, fmt.Errorf("%w: conflicting record vanished for %s", common.ErrStoreUnavailable, req.IntentID)
			}
			log.Info("submit.race_lost", "winner_job_id", winner.JobID, "orphan_job_id", jobID)
			return s.response(winner.JobID, true, winner.PendingImageCount), nil
		}
		return nil, err
	}

	log.Info("submit.done",
		"job_id", jobID, "image_count", mres.IncludedCount,
		"skipped", len(mres.SkippedImageIDs),
		"elapsed_ms", s.now().Sub(start).Milliseconds())
	return s.response(jobID, false, mres.IncludedCount), nil
}

func (s *Service) validate(req *entity.SubmitRequest) error {
	v := common.NewValidator()
	v.Field("intentId", req.IntentID, common.Required)
	v.Field("userId", req.UserID, common.Required)
	v.Field("pendingImageIds", req.PendingImageIDs, common.Required, common.MinItems(s.cfg.MinBatchSize))
	return v.Error()
}

func (s *Service) response(jobID string, cached bool, imageCount int) *entity.SubmitResponse {
	return &entity.SubmitResponse{
		JobID:             jobID,
		StatusURL:         s.cfg.StatusBaseURL + "/" + batch.ShortJobID(jobID),
		Cached:            cached,
		EstimatedDuration: estimateDuration(imageCount),
		ImageCount:        imageCount,
	}
}

// estimateDuration is a coarse heuristic for UI copy only: batch queues
// dominate wall time, so there is a high floor.
func estimateDuration(imageCount int) int {
	est := 5 * imageCount
	if est < 600 {
		est = 600
	}
	return est
}
