package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-chat-api/internal/domain"
)

// SignalRepo provides typed DynamoDB operations for the call_signals table.
// PK: to_user_id, SK: signal_id (ULID). Rows age out via TTL once stale.
type SignalRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSignalRepo(client *dynamodb.Client, tableName string) *SignalRepo {
	return &SignalRepo{client: client, tableName: tableName}
}

func (r *SignalRepo) Put(ctx context.Context, s *domain.CallSignal) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal call signal: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListUnread returns all unread signals addressed to toUserID in ascending
// created_at order.
func (r *SignalRepo) ListUnread(ctx context.Context, toUserID string) ([]domain.CallSignal, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("to_user_id = :u"),
		FilterExpression:       aws.String("is_read = :f"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: toUserID},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
		ScanIndexForward: aws.Bool(true),
		ConsistentRead:   aws.Bool(true),
	}
	var signals []domain.CallSignal
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		var page []domain.CallSignal
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		signals = append(signals, page...)
		if out.LastEvaluatedKey == nil {
			return signals, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// MarkRead claims a signal for delivery, conditioned on it still being
// unread. Under concurrent pollers exactly one claim succeeds per row; the
// losers get ErrConflict and must not deliver the signal.
func (r *SignalRepo) MarkRead(ctx context.Context, toUserID, signalID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey("to_user_id", toUserID, "signal_id", signalID),
		UpdateExpression:    aws.String("SET is_read = :t"),
		ConditionExpression: aws.String("is_read = :f"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return fmt.Errorf("signal already delivered: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}
