package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoAPI is the narrow slice of the DynamoDB client this package uses.
// Tests substitute fakes; production passes *dynamodb.Client.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// LoadAWSConfig resolves the shared AWS configuration once per process.
func LoadAWSConfig(ctx context.Context, logger *slog.Logger) (aws.Config, error) {
	logger.Info("loading aws config")
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("failed to load aws config", "error", err)
		return aws.Config{}, err
	}
	return cfg, nil
}

// NewDynamoClient builds the DynamoDB client from a resolved config.
func NewDynamoClient(cfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg)
}

// HealthCheck verifies the jobs table is reachable; used by entrypoints to
// catch IAM/region issues at cold start rather than mid-request.
func HealthCheck(ctx context.Context, db DynamoAPI, table string, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging jobs table", "table", table)
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	_, err := db.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
	if err != nil {
		logger.Error("jobs table ping failed", "table", table, "error", err)
		return err
	}
	logger.Debug("jobs table ping successful", "table", table)
	return nil
}
