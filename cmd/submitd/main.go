// submitd is the Lambda entrypoint for the batch submission API.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/yorutsuke/yorutsuke-cloud/internal/batch"
	"github.com/yorutsuke/yorutsuke-cloud/internal/common"
	"github.com/yorutsuke/yorutsuke-cloud/internal/manifest"
	"github.com/yorutsuke/yorutsuke-cloud/internal/repository"
	"github.com/yorutsuke/yorutsuke-cloud/internal/storage"
	"github.com/yorutsuke/yorutsuke-cloud/internal/submit"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	awsCfg, err := repository.LoadAWSConfig(ctx, log)
	if err != nil {
		os.Exit(1)
	}

	db := repository.NewDynamoClient(awsCfg)
	if err := repository.HealthCheck(ctx, db, cfg.Tables.JobsTable, 3*time.Second, log); err != nil {
		os.Exit(1)
	}

	jobs := repository.NewJobRepository(db, cfg.Tables.JobsTable, cfg.Tables.JobIDIndex, log)
	images := repository.NewPendingImageRepository(db, cfg.Tables.ImagesTable, log)
	store := storage.NewS3Store(storage.NewS3Client(awsCfg), cfg.Batch.Bucket, log)

	builder := manifest.NewBuilder(images, store, cfg.Batch.InputPrefix, cfg.Batch.MinBatchSize, log)
	submitter := batch.NewBedrockSubmitter(batch.NewBedrockClient(awsCfg), cfg.Batch.RoleARN, cfg.Batch.SubmitTimeout, log)

	svc := submit.NewService(jobs, builder, submitter, cfg.Batch, log)
	handler := submit.NewHandler(svc, log)

	log.Info("submitd ready", "jobs_table", cfg.Tables.JobsTable, "bucket", cfg.Batch.Bucket)
	lambda.Start(handler.Handle)
}
