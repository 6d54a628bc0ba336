package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/bookmate/bookmate-server/internal/id"
	"github.com/bookmate/bookmate-server/internal/store"
)

// AllocateUserID returns the next US### ID.
func (s *Store) AllocateUserID(ctx context.Context) (string, error) {
	seq, err := s.increment(ctx, "users", func() (int, error) {
		ids, err := store.Collect(s.UserIDs(ctx))
		return id.MaxUserSeq(ids), err
	})
	if err != nil {
		return "", fmt.Errorf("allocate user id: %w", err)
	}
	return id.FormatUserID(seq), nil
}

// AllocateBookID returns the next BS_<userID>_### ID for userID.
func (s *Store) AllocateBookID(ctx context.Context, userID string) (string, error) {
	seq, err := s.increment(ctx, "book:"+userID, func() (int, error) {
		in := s.partitionQuery(userID)
		in.ProjectionExpression = aws.String("book_id")
		books, err := s.queryAll(ctx, in)
		if err != nil {
			return 0, err
		}
		ids := make([]string, len(books))
		for i, b := range books {
			ids[i] = b.BookID
		}
		return id.MaxBookSeq(ids), nil
	})
	if err != nil {
		return "", fmt.Errorf("allocate book id: %w", err)
	}
	return id.FormatBookID(userID, seq), nil
}

// increment adds one to an existing counter. When the counter does not exist
// yet, it is created from seed with if_not_exists, so a racing creator's
// value is incremented rather than overwritten.
func (s *Store) increment(ctx context.Context, name string, seed func() (int, error)) (int, error) {
	key := map[string]types.AttributeValue{"name": str(name)}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tables.Counters),
		Key:                 key,
		UpdateExpression:    aws.String("ADD seq :one"),
		ConditionExpression: aws.String("attribute_exists(seq)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": num(1),
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	switch {
	case err == nil:
		return readSeq(out.Attributes)
	case !isConditionFailed(err):
		return 0, err
	}

	start, err := seed()
	if err != nil {
		return 0, fmt.Errorf("seed counter %s: %w", name, err)
	}
	s.logger.Debug("seeding counter", "name", name, "start", start)

	out, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.tables.Counters),
		Key:              key,
		UpdateExpression: aws.String("SET seq = if_not_exists(seq, :start) + :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":start": num(start),
			":one":   num(1),
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, err
	}
	return readSeq(out.Attributes)
}

func readSeq(attrs map[string]types.AttributeValue) (int, error) {
	n, ok := attrs["seq"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, errors.New("counter response has no numeric seq")
	}
	return strconv.Atoi(n.Value)
}
