// Package sellers reads farmer profile data owned by the external
// registration collaborator. Checkout only needs the registered pincode.
package sellers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/farmdirect/farmdirect-orders/internal/aws"
)

// profile is the subset of the users table read here.
type profile struct {
	UserID  string `dynamodbav:"user_id"` // PK
	Pincode string `dynamodbav:"pincode,omitempty"`
}

// Directory looks up farmer pincodes in the users table.
type Directory struct {
	client    aws.DynamoDBAPI
	tableName string
}

// NewDirectory returns a Directory over the users table.
func NewDirectory(client aws.DynamoDBAPI, tableName string) *Directory {
	return &Directory{client: client, tableName: tableName}
}

// Pincode returns the farmer's registered pincode, or "" when the farmer has
// none on file (or does not exist). Callers substitute a default.
func (d *Directory) Pincode(ctx context.Context, farmerID string) (string, error) {
	out, err := d.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &d.tableName,
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: farmerID},
		},
	})
	if err != nil {
		return "", fmt.Errorf("get farmer profile: %w", err)
	}
	if len(out.Item) == 0 {
		return "", nil
	}
	var p profile
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return "", fmt.Errorf("unmarshal farmer profile: %w", err)
	}
	return p.Pincode, nil
}
