package workflow

import (
	stderrors "errors"

	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	statusSK = "STATUS"
)

// stepItem is one append-only step record: a workflow's steps are never
// overwritten once written, only appended — mirroring an event stream.
type stepItem struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	Output []byte `dynamodbav:"output"`
}

type statusItem struct {
	PK      string `dynamodbav:"PK"`
	SK      string `dynamodbav:"SK"`
	Status  string `dynamodbav:"status"`
	Result  []byte `dynamodbav:"result,omitempty"`
	Error   string `dynamodbav:"error,omitempty"`
	Updated string `dynamodbav:"updated_at"`
}

// Store is the DynamoDB-backed ports.WorkflowStore adapter, sharing the graph store's
// table (`PK = WORKFLOW#{id}`).
type Store struct {
	client    *dynamodb.Client
	tableName string
}

func NewStore(client *dynamodb.Client, tableName string) *Store {
	return &Store{client: client, tableName: tableName}
}

func workflowPK(workflowID string) string { return "WORKFLOW#" + workflowID }
func stepSK(stepName string) string       { return "STEP#" + stepName }

func (s *Store) GetStep(ctx context.Context, workflowID, stepName string) ([]byte, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: workflowPK(workflowID)},
			"SK": &types.AttributeValueMemberS{Value: stepSK(stepName)},
		},
	})
	if err != nil {
		return nil, false, err
	}
	if out.Item == nil {
		return nil, false, nil
	}
	var item stepItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, false, err
	}
	return item.Output, true, nil
}

// PutStep appends a step record, conditioned on it not already existing —
// the append-only contract that makes step replay safe.
func (s *Store) PutStep(ctx context.Context, workflowID, stepName string, output []byte) error {
	item := stepItem{PK: workflowPK(workflowID), SK: stepSK(stepName), Output: output}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	cond := expression.AttributeNotExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 &s.tableName,
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	var cce *types.ConditionalCheckFailedException
	if stderrors.As(err, &cce) {
		return nil // already recorded by a prior attempt; replay treats this as success
	}
	return err
}

func (s *Store) SetStatus(ctx context.Context, workflowID, status string, result []byte, errMsg string) error {
	item := statusItem{
		PK: workflowPK(workflowID), SK: statusSK, Status: status,
		Result: result, Error: errMsg, Updated: time.Now().UTC().Format(time.RFC3339),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: &s.tableName, Item: av})
	return err
}

func (s *Store) GetStatus(ctx context.Context, workflowID string) (string, []byte, string, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: workflowPK(workflowID)},
			"SK": &types.AttributeValueMemberS{Value: statusSK},
		},
	})
	if err != nil {
		return "", nil, "", false, err
	}
	if out.Item == nil {
		return "", nil, "", false, nil
	}
	var item statusItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return "", nil, "", false, err
	}
	return item.Status, item.Result, item.Error, true, nil
}
