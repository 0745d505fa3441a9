package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/farmdirect/farmdirect-orders/internal/aws"
)

// Store encapsulates operations on the crops table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new crops Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Put creates or replaces a crop listing. Timestamps are filled in when zero.
func (s *Store) Put(ctx context.Context, crop Crop) error {
	now := s.nowFunc()
	if crop.CreatedAt.IsZero() {
		crop.CreatedAt = now
	}
	crop.UpdatedAt = now

	item, err := attributevalue.MarshalMap(crop)
	if err != nil {
		return fmt.Errorf("marshal crop: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put crop: %w", err)
	}
	return nil
}

// Get fetches a crop by crop_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, cropID string) (*Crop, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"crop_id": &types.AttributeValueMemberS{Value: cropID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get crop: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var c Crop
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, fmt.Errorf("unmarshal crop: %w", err)
	}
	return &c, nil
}

// List returns all crop listings. Fine for a marketplace of this size; a
// paginated query would replace this before the catalog grows large.
func (s *Store) List(ctx context.Context) ([]Crop, error) {
	out, err := s.client.Scan(ctx, &dyn.ScanInput{
		TableName: &s.tableName,
	})
	if err != nil {
		return nil, fmt.Errorf("scan crops: %w", err)
	}

	crops := make([]Crop, 0, len(out.Items))
	for _, item := range out.Items {
		var c Crop
		if err := attributevalue.UnmarshalMap(item, &c); err != nil {
			return nil, fmt.Errorf("unmarshal crop: %w", err)
		}
		crops = append(crops, c)
	}
	return crops, nil
}
