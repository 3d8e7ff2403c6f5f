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

// MessageRepo provides typed DynamoDB operations for the messages table.
// PK: chat_id, SK: message_id (ULID), so key order is creation order.
type MessageRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewMessageRepo(client *dynamodb.Client, tableName string) *MessageRepo {
	return &MessageRepo{client: client, tableName: tableName}
}

func (r *MessageRepo) Put(ctx context.Context, m *domain.Message) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListByChat returns the full message history of a chat in ascending
// created_at order.
func (r *MessageRepo) ListByChat(ctx context.Context, chatID string) ([]domain.Message, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("chat_id = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: chatID},
		},
		ScanIndexForward: aws.Bool(true),
	}
	var msgs []domain.Message
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		var page []domain.Message
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		msgs = append(msgs, page...)
		if out.LastEvaluatedKey == nil {
			return msgs, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// Latest returns the most recent message of a chat, or ErrNotFound for an
// empty chat.
func (r *MessageRepo) Latest(ctx context.Context, chatID string) (*domain.Message, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("chat_id = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: chatID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("chat has no messages: %w", domain.ErrNotFound)
	}
	var m domain.Message
	if err := attributevalue.UnmarshalMap(out.Items[0], &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// CountUnread counts unread messages in a chat not sent by excludeSenderID.
func (r *MessageRepo) CountUnread(ctx context.Context, chatID, excludeSenderID string) (int, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("chat_id = :c"),
		FilterExpression:       aws.String("is_read = :f AND sender_id <> :s"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: chatID},
			":f": &types.AttributeValueMemberBOOL{Value: false},
			":s": &types.AttributeValueMemberS{Value: excludeSenderID},
		},
		Select: types.SelectCount,
	}
	count := 0
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return 0, err
		}
		count += int(out.Count)
		if out.LastEvaluatedKey == nil {
			return count, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}
