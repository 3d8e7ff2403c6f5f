package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-chat-api/internal/domain"
)

// VerificationRepo manages one-time login codes.
// PK: phone_number, SK: code_id (ULID). Codes are never deleted explicitly;
// expired items age out via TTL.
type VerificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationRepo(client *dynamodb.Client, tableName string) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName}
}

func (r *VerificationRepo) Put(ctx context.Context, v *domain.VerificationCode) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// LatestMatch returns the most recently created unused, unexpired code row
// matching (phoneNumber, code). A phone number may have many historical
// codes; only the newest valid one is considered, so the query walks the
// ULID sort key in descending order and takes the first filtered hit.
func (r *VerificationRepo) LatestMatch(ctx context.Context, phoneNumber, code string, now time.Time) (*domain.VerificationCode, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("phone_number = :p"),
		// "code" is a DynamoDB reserved word.
		FilterExpression:         aws.String("#code = :c AND is_used = :f AND expires_at > :now"),
		ExpressionAttributeNames: map[string]string{"#code": "code"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p":   &types.AttributeValueMemberS{Value: phoneNumber},
			":c":   &types.AttributeValueMemberS{Value: code},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
			":now": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Unix())},
		},
		ScanIndexForward: aws.Bool(false),
		ConsistentRead:   aws.Bool(true),
	}
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		if len(out.Items) > 0 {
			var v domain.VerificationCode
			if err := attributevalue.UnmarshalMap(out.Items[0], &v); err != nil {
				return nil, err
			}
			return &v, nil
		}
		if out.LastEvaluatedKey == nil {
			return nil, fmt.Errorf("verification code not found: %w", domain.ErrNotFound)
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// Consume flips is_used on a code row, conditioned on it still being unused.
// Under concurrent verification attempts only the first caller succeeds;
// the rest get ErrConflict.
func (r *VerificationRepo) Consume(ctx context.Context, phoneNumber, codeID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey("phone_number", phoneNumber, "code_id", codeID),
		UpdateExpression:    aws.String("SET is_used = :t"),
		ConditionExpression: aws.String("is_used = :f"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return fmt.Errorf("code already used: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}
