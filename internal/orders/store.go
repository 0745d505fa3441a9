package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/farmdirect/farmdirect-orders/internal/aws"
)

// GSI names on the orders table.
const (
	consumerIndex = "consumer_id-index"
	farmerIndex   = "farmer_id-index"
)

// Store encapsulates operations on the orders and order lines tables.
type Store struct {
	client     aws.DynamoDBAPI
	tableName  string
	linesTable string
	nowFunc    func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName, linesTable string) *Store {
	return &Store{
		client:     client,
		tableName:  tableName,
		linesTable: linesTable,
		nowFunc:    time.Now,
	}
}

// CreateWithLines atomically creates an order and all of its lines with a
// single TransactWriteItems call: either the order and every line are
// visible, or nothing is. The order must not already exist.
func (s *Store) CreateWithLines(ctx context.Context, order Order, lines []OrderLine) error {
	if len(lines) == 0 {
		return errors.New("order must have at least one line")
	}

	now := s.nowFunc()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	orderMap, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	transactItems := make([]types.TransactWriteItem, 0, len(lines)+1)
	transactItems = append(transactItems, types.TransactWriteItem{
		Put: &types.Put{
			TableName:           &s.tableName,
			Item:                orderMap,
			ConditionExpression: awsString("attribute_not_exists(order_id)"),
		},
	})

	for _, line := range lines {
		line.OrderID = order.OrderID
		lineMap, err := attributevalue.MarshalMap(line)
		if err != nil {
			return fmt.Errorf("marshal order line: %w", err)
		}
		transactItems = append(transactItems, types.TransactWriteItem{
			Put: &types.Put{
				TableName: &s.linesTable,
				Item:      lineMap,
			},
		})
	}

	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("transaction canceled (order id collision?): %w", err)
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("transact write order (%s): %w", apiErr.ErrorCode(), err)
		}
		return fmt.Errorf("transact write order: %w", err)
	}
	return nil
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// Lines returns all lines belonging to an order.
func (s *Store) Lines(ctx context.Context, orderID string) ([]OrderLine, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.linesTable,
		KeyConditionExpression: awsString("order_id = :oid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":oid": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	return unmarshalLines(out.Items)
}

// ListByConsumer returns all orders placed by a consumer.
func (s *Store) ListByConsumer(ctx context.Context, consumerID string) ([]Order, error) {
	return s.listByIndex(ctx, consumerIndex, "consumer_id", consumerID)
}

// ListByFarmer returns all orders addressed to a farmer.
func (s *Store) ListByFarmer(ctx context.Context, farmerID string) ([]Order, error) {
	return s.listByIndex(ctx, farmerIndex, "farmer_id", farmerID)
}

func (s *Store) listByIndex(ctx context.Context, index, attr, value string) ([]Order, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.tableName,
		IndexName:              &index,
		KeyConditionExpression: awsString(fmt.Sprintf("%s = :v", attr)),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: value},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", index, err)
	}

	result := make([]Order, 0, len(out.Items))
	for _, item := range out.Items {
		var o Order
		if err := attributevalue.UnmarshalMap(item, &o); err != nil {
			return nil, fmt.Errorf("unmarshal order: %w", err)
		}
		result = append(result, o)
	}
	return result, nil
}

// ErrStatusMismatch is returned when a conditional status update finds the
// order in a different status than expected.
var ErrStatusMismatch = errors.New("status mismatch/conditional failed")

// UpdateStatus conditionally updates the order status from expected -> newStatus.
// Returns ErrStatusMismatch if the condition failed.
func (s *Store) UpdateStatus(ctx context.Context, orderID, expectedStatus, newStatus string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         awsString("SET #s = :new, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new":      &types.AttributeValueMemberS{Value: newStatus},
			":expected": &types.AttributeValueMemberS{Value: expectedStatus},
			":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("#s = :expected"),
	}

	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

// ErrAlreadyNotified is returned when the notified marker was already set.
var ErrAlreadyNotified = errors.New("order already notified")

// MarkNotified sets the notified_at marker exactly once; a second call
// returns ErrAlreadyNotified so duplicate SQS deliveries become no-ops.
func (s *Store) MarkNotified(ctx context.Context, orderID string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: awsString("SET notified_at = :na"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":na": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("attribute_not_exists(notified_at)"),
	}

	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrAlreadyNotified
		}
		return fmt.Errorf("mark notified: %w", err)
	}
	return nil
}

func unmarshalLines(items []map[string]types.AttributeValue) ([]OrderLine, error) {
	lines := make([]OrderLine, 0, len(items))
	for _, item := range items {
		var l OrderLine
		if err := attributevalue.UnmarshalMap(item, &l); err != nil {
			return nil, fmt.Errorf("unmarshal order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func awsString(s string) *string { return &s }
