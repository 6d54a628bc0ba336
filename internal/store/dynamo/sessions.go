package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/bookmate/bookmate-server/internal/domain"
	"github.com/bookmate/bookmate-server/internal/store"
)

// CreateSession puts a session item with a TTL at its expiry.
func (s *Store) CreateSession(ctx context.Context, ss *domain.Session) error {
	item, err := attributevalue.MarshalMap(sessionItem{
		ID:               ss.ID,
		UserID:           ss.UserID,
		Email:            ss.Email,
		RefreshTokenHash: ss.RefreshTokenHash,
		CreatedAt:        ss.CreatedAt,
		ExpiresAt:        ss.ExpiresAt,
		TTL:              ss.ExpiresAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.Sessions),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("create session: %w", store.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession reads a session. TTL deletion is lazy, so expiry is left to
// the caller.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tables.Sessions),
		Key:            map[string]types.AttributeValue{"id": str(id)},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, store.ErrSessionNotFound
	}
	var item sessionItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &domain.Session{
		ID:               item.ID,
		UserID:           item.UserID,
		Email:            item.Email,
		RefreshTokenHash: item.RefreshTokenHash,
		CreatedAt:        item.CreatedAt,
		ExpiresAt:        item.ExpiresAt,
	}, nil
}

// DeleteSession deletes a session item.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tables.Sessions),
		Key:       map[string]types.AttributeValue{"id": str(id)},
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RotateSession swaps the refresh token hash under a condition on the old
// hash, so concurrent refreshes with the same token cannot both succeed.
func (s *Store) RotateSession(ctx context.Context, id, oldHash, newHash string) error {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("refresh_token_hash"), expression.Value(newHash))).
		WithCondition(expression.Equal(expression.Name("refresh_token_hash"), expression.Value(oldHash))).
		Build()
	if err != nil {
		return fmt.Errorf("build rotate: %w", err)
	}
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tables.Sessions),
		Key:                       map[string]types.AttributeValue{"id": str(id)},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionFailed(err) {
		return store.ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	return nil
}
