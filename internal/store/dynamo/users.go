package dynamo

import (
	"context"
	"fmt"
	"iter"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/bookmate/bookmate-server/internal/domain"
	"github.com/bookmate/bookmate-server/internal/store"
)

// SaveUser puts the user item unconditionally.
func (s *Store) SaveUser(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(toUserItem(u))
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.Users),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// LoadUser returns the user with email, or (nil, nil).
func (s *Store) LoadUser(ctx context.Context, email string) (*domain.User, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.Users),
		Key:       map[string]types.AttributeValue{"email": str(email)},
	})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var item userItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return item.domain(), nil
}

// GetUserByID finds the email through the user_id-index GSI, then reads
// the full item. The index projection only needs the table key.
func (s *Store) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	keyCond := expression.Key("user_id").Equal(expression.Value(userID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build key condition: %w", err)
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tables.Users),
		IndexName:                 aws.String(UserIDIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	if len(out.Items) == 0 {
		return nil, store.ErrUserNotFound
	}
	var key struct {
		Email string `dynamodbav:"email"`
	}
	if err := attributevalue.UnmarshalMap(out.Items[0], &key); err != nil {
		return nil, fmt.Errorf("unmarshal user key: %w", err)
	}
	u, err := s.LoadUser(ctx, key.Email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

// UserIDs scans the users table, projecting only user_id.
func (s *Store) UserIDs(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		p := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
			TableName:            aws.String(s.tables.Users),
			ProjectionExpression: aws.String("user_id"),
		})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				yield("", fmt.Errorf("scan user ids: %w", err))
				return
			}
			for _, raw := range page.Items {
				var item struct {
					UserID string `dynamodbav:"user_id"`
				}
				if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
					yield("", err)
					return
				}
				if item.UserID == "" {
					continue
				}
				if !yield(item.UserID, nil) {
					return
				}
			}
		}
	}
}
