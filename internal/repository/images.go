package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/yorutsuke/yorutsuke-cloud/internal/common"
	"github.com/yorutsuke/yorutsuke-cloud/internal/entity"
)

// PendingImageRepository reads rows owned by the upload path. This subsystem
// never writes them.
type PendingImageRepository interface {
	Get(ctx context.Context, imageID string) (*entity.PendingImage, error)
}

type imageRepo struct {
	db    DynamoAPI
	table string
	log   *slog.Logger
}

func NewPendingImageRepository(db DynamoAPI, table string, log *slog.Logger) PendingImageRepository {
	return &imageRepo{db: db, table: table, log: log}
}

func (r *imageRepo) Get(ctx context.Context, imageID string) (*entity.PendingImage, error) {
	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"image_id": &types.AttributeValueMemberS{Value: imageID},
		},
	})
	if err != nil {
		r.log.Error("pending image lookup failed", "image_id", imageID, "error", err)
		return nil, fmt.Errorf("get image %s: %w", imageID, err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("%w: image %s", common.ErrNotFound, imageID)
	}
	var img entity.PendingImage
	if err := attributevalue.UnmarshalMap(out.Item, &img); err != nil {
		return nil, fmt.Errorf("unmarshal image %s: %w", imageID, err)
	}
	return &img, nil
}
