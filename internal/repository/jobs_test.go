package repository

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorutsuke/yorutsuke-cloud/constants"
	"github.com/yorutsuke/yorutsuke-cloud/internal/common"
	"github.com/yorutsuke/yorutsuke-cloud/internal/entity"
)

// -------- test fakes --------

type fakeDynamo struct {
	getOut    *dynamodb.GetItemOutput
	getErr    error
	putErr    error
	queryOut  *dynamodb.QueryOutput
	queryErr  error
	updateErr error

	lastGet    *dynamodb.GetItemInput
	lastPut    *dynamodb.PutItemInput
	lastQuery  *dynamodb.QueryInput
	lastUpdate *dynamodb.UpdateItemInput
}

func (f *fakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGet = params
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.getOut != nil {
		return f.getOut, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPut = params
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.lastQuery = params
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.queryOut != nil {
		return f.queryOut, nil
	}
	return &dynamodb.QueryOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.lastUpdate = params
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{}, nil
}

// -------- helpers --------

func testRecord(t *testing.T) *entity.JobRecord {
	t.Helper()
	return entity.NewJobRecord("abc", "arn:aws:bedrock:us-east-1:123456789012:model-invocation-job/job1", "u1", 104, time.Now())
}

func marshalRecord(t *testing.T, rec *entity.JobRecord) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(rec)
	require.NoError(t, err)
	return item
}

func newTestJobRepo(db DynamoAPI) JobRepository {
	return NewJobRepository(db, "jobs-test", "job_id-index", slog.Default())
}

// -------- tests --------

func TestJobGet_MissReturnsNil(t *testing.T) {
	db := &fakeDynamo{}
	repo := newTestJobRepo(db)

	rec, err := repo.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NotNil(t, db.lastGet)
	assert.Equal(t, "jobs-test", aws.ToString(db.lastGet.TableName))
	assert.True(t, aws.ToBool(db.lastGet.ConsistentRead), "gate read must be strongly consistent")
}

func TestJobGet_HitRoundTrips(t *testing.T) {
	want := testRecord(t)
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: marshalRecord(t, want)}}
	repo := newTestJobRepo(db)

	got, err := repo.Get(context.Background(), "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.IntentID, got.IntentID)
	assert.Equal(t, want.JobID, got.JobID)
	assert.Equal(t, want.UserID, got.UserID)
	assert.Equal(t, constants.JobStatusSubmitted, got.Status)
	assert.Equal(t, 104, got.PendingImageCount)
	assert.Equal(t, want.TTL, got.TTL)
}

func TestJobGet_StoreFailureIsRetryableClass(t *testing.T) {
	db := &fakeDynamo{getErr: errors.New("throttled")}
	repo := newTestJobRepo(db)

	_, err := repo.Get(context.Background(), "abc")
	require.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestJobCreateIfAbsent_SendsCondition(t *testing.T) {
	db := &fakeDynamo{}
	repo := newTestJobRepo(db)

	require.NoError(t, repo.CreateIfAbsent(context.Background(), testRecord(t)))
	require.NotNil(t, db.lastPut)
	assert.Equal(t, "attribute_not_exists(intent_id)", aws.ToString(db.lastPut.ConditionExpression))
}

func TestJobCreateIfAbsent_LostRaceIsConflict(t *testing.T) {
	db := &fakeDynamo{putErr: &types.ConditionalCheckFailedException{}}
	repo := newTestJobRepo(db)

	err := repo.CreateIfAbsent(context.Background(), testRecord(t))
	require.ErrorIs(t, err, common.ErrConflict)
}

func TestJobCreateIfAbsent_OtherFailureIsStoreClass(t *testing.T) {
	db := &fakeDynamo{putErr: errors.New("capacity exceeded")}
	repo := newTestJobRepo(db)

	err := repo.CreateIfAbsent(context.Background(), testRecord(t))
	require.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, common.ErrConflict)
}

func TestJobGetByJobID_QueriesIndex(t *testing.T) {
	want := testRecord(t)
	db := &fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{marshalRecord(t, want)}}}
	repo := newTestJobRepo(db)

	got, err := repo.GetByJobID(context.Background(), want.JobID)
	require.NoError(t, err)
	assert.Equal(t, want.IntentID, got.IntentID)
	assert.Equal(t, want.UserID, got.UserID)

	require.NotNil(t, db.lastQuery)
	assert.Equal(t, "job_id-index", aws.ToString(db.lastQuery.IndexName))
}

func TestJobGetByJobID_MissIsNotFound(t *testing.T) {
	db := &fakeDynamo{}
	repo := newTestJobRepo(db)

	_, err := repo.GetByJobID(context.Background(), "arn:aws:bedrock:us-east-1:123456789012:model-invocation-job/ghost")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestJobUpdateStatus(t *testing.T) {
	db := &fakeDynamo{}
	repo := newTestJobRepo(db)

	require.NoError(t, repo.UpdateStatus(context.Background(), "abc", constants.JobStatusCompleted))
	require.NotNil(t, db.lastUpdate)
	assert.Equal(t, "attribute_exists(intent_id)", aws.ToString(db.lastUpdate.ConditionExpression))
	val, ok := db.lastUpdate.ExpressionAttributeValues[":s"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "COMPLETED", val.Value)
}

func TestJobUpdateStatus_MissingRecordIsNotFound(t *testing.T) {
	db := &fakeDynamo{updateErr: &types.ConditionalCheckFailedException{}}
	repo := newTestJobRepo(db)

	err := repo.UpdateStatus(context.Background(), "ghost", constants.JobStatusFailed)
	require.ErrorIs(t, err, common.ErrNotFound)
}
