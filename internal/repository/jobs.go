package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/yorutsuke/yorutsuke-cloud/constants"
	"github.com/yorutsuke/yorutsuke-cloud/internal/common"
	"github.com/yorutsuke/yorutsuke-cloud/internal/entity"
)

type JobRepository interface {
	// Get is the idempotency gate lookup. A miss returns (nil, nil); a
	// store failure returns ErrStoreUnavailable and the caller must not
	// proceed to submit.
	Get(ctx context.Context, intentID string) (*entity.JobRecord, error)

	// CreateIfAbsent inserts the record only if no record exists for its
	// intent id. A lost race returns ErrConflict; the caller re-reads and
	// treats the winner's record as the result.
	CreateIfAbsent(ctx context.Context, rec *entity.JobRecord) error

	// GetByJobID resolves a record through the job-id secondary index.
	// Completion events only carry the job id, so this is how the owning
	// user is recovered.
	GetByJobID(ctx context.Context, jobID string) (*entity.JobRecord, error)

	// UpdateStatus is the single allowed post-creation mutation.
	UpdateStatus(ctx context.Context, intentID string, status constants.JobStatus) error
}

type jobRepo struct {
	db     DynamoAPI
	table  string
	jobIdx string
	log    *slog.Logger
}

func NewJobRepository(db DynamoAPI, table, jobIndex string, log *slog.Logger) JobRepository {
	return &jobRepo{db: db, table: table, jobIdx: jobIndex, log: log}
}

func (r *jobRepo) Get(ctx context.Context, intentID string) (*entity.JobRecord, error) {
	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"intent_id": &types.AttributeValueMemberS{Value: intentID},
		},
		// The gate read is an optimization, but when it hits it must
		// observe a write that just happened on another invocation.
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		r.log.Error("job record lookup failed", "intent_id", intentID, "error", err)
		return nil, fmt.Errorf("%w: get %s: %v", common.ErrStoreUnavailable, intentID, err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var rec entity.JobRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		r.log.Error("job record unmarshal failed", "intent_id", intentID, "error", err)
		return nil, fmt.Errorf("%w: unmarshal %s: %v", common.ErrStoreUnavailable, intentID, err)
	}
	return &rec, nil
}

func (r *jobRepo) CreateIfAbsent(ctx context.Context, rec *entity.JobRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("%w: marshal job record: %v", common.ErrStoreUnavailable, err)
	}
	_, err = r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(intent_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Another submission with this intent id won the race.
			r.log.Info("job record insert lost race", "intent_id", rec.IntentID)
			return common.ErrConflict
		}
		r.log.Error("job record insert failed", "intent_id", rec.IntentID, "error", err)
		return fmt.Errorf("%w: put %s: %v", common.ErrStoreUnavailable, rec.IntentID, err)
	}
	r.log.Info("job record created",
		"intent_id", rec.IntentID, "job_id", rec.JobID,
		"user_id", rec.UserID, "image_count", rec.PendingImageCount)
	return nil
}

func (r *jobRepo) GetByJobID(ctx context.Context, jobID string) (*entity.JobRecord, error) {
	out, err := r.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(r.jobIdx),
		KeyConditionExpression: aws.String("job_id = :j"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":j": &types.AttributeValueMemberS{Value: jobID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		r.log.Error("job record index query failed", "job_id", jobID, "error", err)
		return nil, fmt.Errorf("%w: query job %s: %v", common.ErrStoreUnavailable, jobID, err)
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("%w: job %s", common.ErrNotFound, jobID)
	}
	var rec entity.JobRecord
	if err := attributevalue.UnmarshalMap(out.Items[0], &rec); err != nil {
		return nil, fmt.Errorf("%w: unmarshal job %s: %v", common.ErrStoreUnavailable, jobID, err)
	}
	return &rec, nil
}

func (r *jobRepo) UpdateStatus(ctx context.Context, intentID string, status constants.JobStatus) error {
	_, err := r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"intent_id": &types.AttributeValueMemberS{Value: intentID},
		},
		UpdateExpression:    aws.String("SET #s = :s"),
		ConditionExpression: aws.String("attribute_exists(intent_id)"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: string(status)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("%w: job record %s", common.ErrNotFound, intentID)
		}
		r.log.Error("job status update failed", "intent_id", intentID, "status", status, "error", err)
		return fmt.Errorf("%w: update %s: %v", common.ErrStoreUnavailable, intentID, err)
	}
	r.log.Info("job status updated", "intent_id", intentID, "status", status)
	return nil
}
