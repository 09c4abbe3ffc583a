package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/yorutsuke/yorutsuke-cloud/internal/entity"
)

type TransactionRepository interface {
	// Upsert writes a transaction, replacing any previous reconciliation
	// of the same (user, transaction) pair. Reconciliation may re-run
	// after partial failures, so writes are deliberately last-wins.
	Upsert(ctx context.Context, tx *entity.Transaction) error

	// ListByUser returns all transactions for one user, newest first.
	ListByUser(ctx context.Context, userID string) ([]*entity.Transaction, error)
}

type txRepo struct {
	db    DynamoAPI
	table string
	log   *slog.Logger
}

func NewTransactionRepository(db DynamoAPI, table string, log *slog.Logger) TransactionRepository {
	return &txRepo{db: db, table: table, log: log}
}

func (r *txRepo) Upsert(ctx context.Context, tx *entity.Transaction) error {
	item, err := attributevalue.MarshalMap(tx)
	if err != nil {
		return fmt.Errorf("marshal transaction %s: %w", tx.TransactionID, err)
	}
	_, err = r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		r.log.Error("transaction upsert failed",
			"user_id", tx.UserID, "transaction_id", tx.TransactionID, "error", err)
		return fmt.Errorf("put transaction %s: %w", tx.TransactionID, err)
	}
	return nil
}

func (r *txRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Transaction, error) {
	var txs []*entity.Transaction
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.db.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.table),
			KeyConditionExpression: aws.String("user_id = :u"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":u": &types.AttributeValueMemberS{Value: userID},
			},
			ScanIndexForward:  aws.Bool(false),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			r.log.Error("transaction query failed", "user_id", userID, "error", err)
			return nil, fmt.Errorf("query transactions for %s: %w", userID, err)
		}
		for _, item := range out.Items {
			var tx entity.Transaction
			if err := attributevalue.UnmarshalMap(item, &tx); err != nil {
				return nil, fmt.Errorf("unmarshal transaction: %w", err)
			}
			txs = append(txs, &tx)
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return txs, nil
}
