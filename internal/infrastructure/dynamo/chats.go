package dynamo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-chat-api/internal/domain"
)

// ChatRepo provides typed DynamoDB operations for the chats table.
//
// The table holds three item kinds under the chat_id PK:
//   - chat rows:    chat_id = <ULID>
//   - pair markers: chat_id = "pair#<lo>#<hi>", ref_chat_id — uniqueness
//     constraint on the unordered participant pair of a private chat
//   - member rows:  chat_id = "member#<user>#<chat>", member_user_id,
//     ref_chat_id, peer_user_id — queried via member_user_id-index for the
//     chat list
//
// CreatePrivate writes all four items in one transaction conditioned on the
// pair marker not existing, so two concurrent create attempts for the same
// pair can never yield two distinct chat ids.
type ChatRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewChatRepo(client *dynamodb.Client, tableName string) *ChatRepo {
	return &ChatRepo{client: client, tableName: tableName}
}

// PairKey returns the canonical marker key for an unordered user pair.
func PairKey(userA, userB string) string {
	lo, hi := userA, userB
	if strings.Compare(lo, hi) > 0 {
		lo, hi = hi, lo
	}
	return "pair#" + lo + "#" + hi
}

func memberKey(userID, chatID string) string {
	return "member#" + userID + "#" + chatID
}

// CreatePrivate inserts the chat row, the pair marker, and both membership
// rows atomically. Returns ErrConflict when a chat for the pair already
// exists; the caller re-reads the marker to get the winner's chat id.
func (r *ChatRepo) CreatePrivate(ctx context.Context, c *domain.Chat) error {
	chatItem, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal chat: %w", err)
	}
	marker := map[string]types.AttributeValue{
		"chat_id":     &types.AttributeValueMemberS{Value: PairKey(c.MemberA, c.MemberB)},
		"ref_chat_id": &types.AttributeValueMemberS{Value: c.ChatID},
	}
	items := []types.TransactWriteItem{
		{Put: &types.Put{
			TableName:           aws.String(r.tableName),
			Item:                marker,
			ConditionExpression: aws.String("attribute_not_exists(chat_id)"),
		}},
		{Put: &types.Put{
			TableName: aws.String(r.tableName),
			Item:      chatItem,
		}},
	}
	for _, m := range []domain.ChatMember{
		{UserID: c.MemberA, ChatID: c.ChatID, PeerID: c.MemberB},
		{UserID: c.MemberB, ChatID: c.ChatID, PeerID: c.MemberA},
	} {
		memberItem, err := attributevalue.MarshalMap(m)
		if err != nil {
			return fmt.Errorf("marshal chat member: %w", err)
		}
		memberItem["chat_id"] = &types.AttributeValueMemberS{Value: memberKey(m.UserID, m.ChatID)}
		items = append(items, types.TransactWriteItem{Put: &types.Put{
			TableName: aws.String(r.tableName),
			Item:      memberItem,
		}})
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return fmt.Errorf("chat already exists for pair: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

// PairChatID resolves the existing private chat id for an unordered user
// pair. The marker read is strongly consistent so a create-conflict loser
// always sees the winner's chat.
func (r *ChatRepo) PairChatID(ctx context.Context, userA, userB string) (string, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("chat_id", PairKey(userA, userB)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", err
	}
	if out.Item == nil {
		return "", fmt.Errorf("no private chat for pair: %w", domain.ErrNotFound)
	}
	ref, ok := out.Item["ref_chat_id"].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("pair marker missing ref_chat_id: %w", domain.ErrNotFound)
	}
	return ref.Value, nil
}

func (r *ChatRepo) Get(ctx context.Context, chatID string) (*domain.Chat, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("chat_id", chatID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("chat not found: %w", domain.ErrNotFound)
	}
	var c domain.Chat
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// IsMember reports whether userID participates in chatID.
func (r *ChatRepo) IsMember(ctx context.Context, userID, chatID string) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("chat_id", memberKey(userID, chatID)),
	})
	if err != nil {
		return false, err
	}
	return out.Item != nil, nil
}

// ListMemberships returns all chats the user participates in.
func (r *ChatRepo) ListMemberships(ctx context.Context, userID string) ([]domain.ChatMember, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("member_user_id-index"),
		KeyConditionExpression: aws.String("member_user_id = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: userID},
		},
	}
	var members []domain.ChatMember
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		var page []domain.ChatMember
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		members = append(members, page...)
		if out.LastEvaluatedKey == nil {
			return members, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// Touch bumps the chat's recency marker, read by the chat-list ordering.
func (r *ChatRepo) Touch(ctx context.Context, chatID string, at time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("chat_id", chatID),
		UpdateExpression: aws.String("SET updated_at = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberS{Value: at.UTC().Format(time.RFC3339Nano)},
		},
	})
	return err
}
