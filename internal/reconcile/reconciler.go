// Package reconcile consumes completed batch jobs: it streams the JSONL
// output, maps each record back to its source image, and writes transaction
// records for the owning user.
package reconcile

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/yorutsuke/yorutsuke-cloud/constants"
	"github.com/yorutsuke/yorutsuke-cloud/internal/batch"
	"github.com/yorutsuke/yorutsuke-cloud/internal/entity"
	"github.com/yorutsuke/yorutsuke-cloud/internal/ocrresult"
	"github.com/yorutsuke/yorutsuke-cloud/internal/repository"
	"github.com/yorutsuke/yorutsuke-cloud/internal/storage"
)

// maxLineBytes bounds a single output line. Output records carry model text,
// not image bytes, so 1 MiB is generous.
const maxLineBytes = 1 << 20

// Stats summarizes one reconciliation run for operational logs.
type Stats struct {
	Written int // transactions upserted with parsed fields
	Failed  int // transactions upserted with status=failed
	Skipped int // lines dropped (unparseable JSON, missing correlation id)
}

type Reconciler struct {
	jobs         repository.JobRepository
	images       repository.PendingImageRepository
	txs          repository.TransactionRepository
	store        storage.ObjectStore
	outputPrefix string
	log          *slog.Logger
	now          func() time.Time
}

func NewReconciler(jobs repository.JobRepository, images repository.PendingImageRepository, txs repository.TransactionRepository, store storage.ObjectStore, outputPrefix string, log *slog.Logger) *Reconciler {
	return &Reconciler{
		jobs:         jobs,
		images:       images,
		txs:          txs,
		store:        store,
		outputPrefix: outputPrefix,
		log:          log,
		now:          time.Now,
	}
}

// Reconcile processes one completed job's output. Owner resolution happens
// first and is fatal for the whole batch when it fails: without a job record
// there is no user to attribute transactions to, and writing to an unknown
// user would be a correctness violation, so nothing is written at all.
//
// Everything after that is partial-failure tolerant per line.
func (r *Reconciler) Reconcile(ctx context.Context, jobID string) (*Stats, error) {
	start := r.now()
	log := r.log.With("job_id", jobID)

	rec, err := r.jobs.GetByJobID(ctx, jobID)
	if err != nil {
		log.Error("reconcile.owner_resolution_failed", "error", err)
		return nil, fmt.Errorf("resolve owner for job %s: %w", jobID, err)
	}
	log = log.With("intent_id", rec.IntentID, "user_id", rec.UserID)

	key := batch.JobOutputKey(r.outputPrefix, jobID)
	body, err := r.store.Open(ctx, key)
	if err != nil {
		log.Error("reconcile.output_open_failed", "key", key, "error", err)
		return nil, fmt.Errorf("open batch output %s: %w", key, err)
	}
	defer body.Close()

	stats := &Stats{}
	// Line-oriented streaming: output files can hold thousands of records
	// and must never be loaded whole.
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var out entity.BatchOutputRecord
		if err := json.Unmarshal(line, &out); err != nil {
			log.Warn("reconcile.line.parse_error", "line", lineNo, "error", err)
			stats.Skipped++
			continue
		}
		if out.CustomData == "" {
			log.Warn("reconcile.line.missing_correlation_id", "line", lineNo)
			stats.Skipped++
			continue
		}

		tx := r.buildTransaction(ctx, rec, out, log)
		if err := r.txs.Upsert(ctx, tx); err != nil {
			log.Error("reconcile.line.upsert_failed", "line", lineNo, "image_id", out.CustomData, "error", err)
			stats.Skipped++
			continue
		}
		if tx.Status == constants.TxStatusFailed {
			stats.Failed++
		} else {
			stats.Written++
		}
	}
	if err := sc.Err(); err != nil {
		log.Error("reconcile.stream_error", "line", lineNo, "error", err)
		return stats, fmt.Errorf("stream batch output %s: %w", key, err)
	}

	log.Info("reconcile.done",
		"written", stats.Written, "failed", stats.Failed, "skipped", stats.Skipped,
		"elapsed_ms", r.now().Sub(start).Milliseconds())
	return stats, nil
}

// buildTransaction turns one output record into a transaction row. A record
// whose embedded document does not parse still produces a row, marked
// failed, so the user can see the image was processed but not understood.
func (r *Reconciler) buildTransaction(ctx context.Context, rec *entity.JobRecord, out entity.BatchOutputRecord, log *slog.Logger) *entity.Transaction {
	now := r.now().UTC()
	tx := &entity.Transaction{
		UserID: rec.UserID,
		// The image id keys the transaction, which makes re-running a
		// reconciliation idempotent.
		TransactionID: out.CustomData,
		AIResult:      out.Output.Text,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if constants.IsGuestUser(rec.UserID) {
		tx.TTL = now.Add(constants.GuestTransactionTTL).Unix()
	}

	if img, err := r.images.Get(ctx, out.CustomData); err == nil {
		tx.S3Key = img.S3Key
	} else {
		log.Warn("reconcile.line.image_lookup_failed", "image_id", out.CustomData, "error", err)
	}

	fields, err := ocrresult.Parse([]byte(out.Output.Text))
	if err != nil {
		log.Warn("reconcile.line.result_unparseable", "image_id", out.CustomData, "error", err)
		tx.Status = constants.TxStatusFailed
		return tx
	}

	tx.Status = constants.TxStatusUnconfirmed
	tx.Merchant = fields.Merchant
	tx.Amount = fields.Amount
	tx.Category = fields.Category
	tx.ReceiptDate = fields.Date
	tx.AIConfidence = fields.Confidence
	return tx
}
