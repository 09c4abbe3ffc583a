// reconciled is the Lambda entrypoint for job status-change events. On
// COMPLETED it reconciles the job's batch output into transactions.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/yorutsuke/yorutsuke-cloud/internal/common"
	"github.com/yorutsuke/yorutsuke-cloud/internal/entity"
	"github.com/yorutsuke/yorutsuke-cloud/internal/reconcile"
	"github.com/yorutsuke/yorutsuke-cloud/internal/repository"
	"github.com/yorutsuke/yorutsuke-cloud/internal/storage"
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
	jobs := repository.NewJobRepository(db, cfg.Tables.JobsTable, cfg.Tables.JobIDIndex, log)
	images := repository.NewPendingImageRepository(db, cfg.Tables.ImagesTable, log)
	txs := repository.NewTransactionRepository(db, cfg.Tables.TransactionsTable, log)
	store := storage.NewS3Store(storage.NewS3Client(awsCfg), cfg.Batch.Bucket, log)

	rec := reconcile.NewReconciler(jobs, images, txs, store, cfg.Batch.OutputPrefix, log)

	log.Info("reconciled ready", "jobs_table", cfg.Tables.JobsTable, "bucket", cfg.Batch.Bucket)
	lambda.Start(func(ctx context.Context, ev entity.StatusChangeEvent) error {
		return rec.HandleStatusChange(ctx, ev)
	})
}
