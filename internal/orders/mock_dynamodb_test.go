package orders

import (
	"context"
	"errors"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is an in-memory stand-in supporting the subset of DynamoDB the
// orders Store uses: multi-table TransactWriteItems, GetItem, conditional
// UpdateItem and Query (base table and GSI emulation).
// NOTE: intentionally minimal, not production-grade.
type mockDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue

	failTransact bool
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{tables: map[string]map[string]map[string]types.AttributeValue{}}
}

func (m *mockDynamo) ensureTable(tbl string) {
	if _, ok := m.tables[tbl]; !ok {
		m.tables[tbl] = map[string]map[string]types.AttributeValue{}
	}
}

func strAttr(item map[string]types.AttributeValue, name string) (string, bool) {
	v, ok := item[name]
	if !ok {
		return "", false
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return s.Value, true
}

// itemKey builds the storage key: order_id, optionally combined with crop_id
// for the composite-keyed lines table.
func itemKey(item map[string]types.AttributeValue) (string, error) {
	oid, ok := strAttr(item, "order_id")
	if !ok {
		return "", errors.New("no order_id in item")
	}
	if cid, ok := strAttr(item, "crop_id"); ok {
		return oid + "|" + cid, nil
	}
	return oid, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureTable(*params.TableName)
	k, err := itemKey(params.Item)
	if err != nil {
		return nil, err
	}
	m.tables[*params.TableName][k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureTable(*params.TableName)
	k, err := itemKey(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.tables[*params.TableName][k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureTable(*params.TableName)
	k, err := itemKey(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.tables[*params.TableName][k]
	if !ok {
		return nil, errors.New("item not found")
	}

	if params.ConditionExpression != nil {
		switch *params.ConditionExpression {
		case "#s = :expected":
			curr, _ := strAttr(item, "status")
			expected := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS).Value
			if curr != expected {
				return nil, &types.ConditionalCheckFailedException{}
			}
		case "attribute_not_exists(notified_at)":
			if _, exists := item["notified_at"]; exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
		}
	}

	if v, ok := params.ExpressionAttributeValues[":new"]; ok {
		item["status"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":ua"]; ok {
		item["updated_at"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":na"]; ok {
		item["notified_at"] = v
	}
	m.tables[*params.TableName][k] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureTable(*params.TableName)

	// derive the attribute name from "attr = :v" style expressions
	expr := *params.KeyConditionExpression
	attr := strings.TrimSpace(strings.SplitN(expr, "=", 2)[0])
	var want string
	for _, v := range params.ExpressionAttributeValues {
		want = v.(*types.AttributeValueMemberS).Value
	}

	out := &dyn.QueryOutput{}
	for _, item := range m.tables[*params.TableName] {
		if got, ok := strAttr(item, attr); ok && got == want {
			out.Items = append(out.Items, item)
		}
	}
	return out, nil
}

func (m *mockDynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureTable(*params.TableName)
	out := &dyn.ScanOutput{}
	for _, item := range m.tables[*params.TableName] {
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTransact {
		return nil, errors.New("transact write failed")
	}
	// first pass: verify conditions so the write stays all-or-nothing
	for _, it := range params.TransactItems {
		p := it.Put
		if p == nil {
			continue
		}
		m.ensureTable(*p.TableName)
		if p.ConditionExpression != nil && *p.ConditionExpression == "attribute_not_exists(order_id)" {
			k, err := itemKey(p.Item)
			if err != nil {
				return nil, err
			}
			if _, exists := m.tables[*p.TableName][k]; exists {
				return nil, &types.TransactionCanceledException{}
			}
		}
	}
	// second pass: apply
	for _, it := range params.TransactItems {
		p := it.Put
		if p == nil {
			continue
		}
		k, err := itemKey(p.Item)
		if err != nil {
			return nil, err
		}
		m.tables[*p.TableName][k] = p.Item
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}
