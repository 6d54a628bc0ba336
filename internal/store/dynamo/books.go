package dynamo

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/bookmate/bookmate-server/internal/domain"
	"github.com/bookmate/bookmate-server/internal/store"
)

func bookKey(userID, bookID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"user_id": str(userID),
		"book_id": str(bookID),
	}
}

func decodeBooks(items []map[string]types.AttributeValue) ([]*domain.Book, error) {
	var raw []bookItem
	if err := attributevalue.UnmarshalListOfMaps(items, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal books: %w", err)
	}
	out := make([]*domain.Book, len(raw))
	for i, item := range raw {
		out[i] = item.domain()
	}
	return out, nil
}

// SaveBook puts the book item unconditionally.
func (s *Store) SaveBook(ctx context.Context, b *domain.Book) error {
	item, err := attributevalue.MarshalMap(toBookItem(b))
	if err != nil {
		return fmt.Errorf("marshal book: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.Books),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("save book: %w", err)
	}
	return nil
}

// GetBook returns one book, or store.ErrBookNotFound.
func (s *Store) GetBook(ctx context.Context, userID, bookID string) (*domain.Book, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.Books),
		Key:       bookKey(userID, bookID),
	})
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, store.ErrBookNotFound
	}
	var item bookItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal book: %w", err)
	}
	return item.domain(), nil
}

// queryAll follows LastEvaluatedKey until the query is exhausted.
func (s *Store) queryAll(ctx context.Context, in *dynamodb.QueryInput) ([]*domain.Book, error) {
	var out []*domain.Book
	p := dynamodb.NewQueryPaginator(s.client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		books, err := decodeBooks(page.Items)
		if err != nil {
			return nil, err
		}
		out = append(out, books...)
	}
	return out, nil
}

func (s *Store) partitionQuery(userID string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.Books),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": str(userID),
		},
	}
}

// GetUserBooks queries the user's partition.
func (s *Store) GetUserBooks(ctx context.Context, userID string) ([]*domain.Book, error) {
	books, err := s.queryAll(ctx, s.partitionQuery(userID))
	if err != nil {
		return nil, fmt.Errorf("get user books: %w", err)
	}
	return books, nil
}

// ListUserBooks returns one page of the user's partition. The cursor holds
// the owner and the last book ID, which becomes ExclusiveStartKey.
func (s *Store) ListUserBooks(ctx context.Context, userID string, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	params.Normalize()

	in := s.partitionQuery(userID)
	in.Limit = aws.Int32(int32(params.Limit + 1)) //nolint:gosec // bounded by MaxPageSize

	after, err := store.DecodeCursor(params.Cursor)
	if err != nil {
		return nil, fmt.Errorf("list user books: %w", err)
	}
	if after != "" {
		bookID, ok := strings.CutPrefix(after, userID+"/")
		if !ok {
			return nil, fmt.Errorf("list user books: %w", store.ErrInvalidCursor)
		}
		in.ExclusiveStartKey = bookKey(userID, bookID)
	}

	out, err := s.client.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("list user books: %w", err)
	}
	books, err := decodeBooks(out.Items)
	if err != nil {
		return nil, err
	}

	result := &store.PaginatedResult[*domain.Book]{Items: books}
	switch {
	case len(books) > params.Limit:
		result.Items = books[:params.Limit]
		result.HasMore = true
		result.NextCursor = store.EncodeCursor(userID + "/" + result.Items[params.Limit-1].BookID)
	case len(out.LastEvaluatedKey) > 0:
		// The query stopped at the 1 MB response cap before the limit.
		var last struct {
			BookID string `dynamodbav:"book_id"`
		}
		if err := attributevalue.UnmarshalMap(out.LastEvaluatedKey, &last); err != nil {
			return nil, fmt.Errorf("list user books: %w", err)
		}
		result.HasMore = true
		result.NextCursor = store.EncodeCursor(userID + "/" + last.BookID)
	}
	return result, nil
}

// ScanBooks scans the whole books table.
func (s *Store) ScanBooks(ctx context.Context) iter.Seq2[*domain.Book, error] {
	return func(yield func(*domain.Book, error) bool) {
		p := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
			TableName: aws.String(s.tables.Books),
		})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				yield(nil, fmt.Errorf("scan books: %w", err))
				return
			}
			books, err := decodeBooks(page.Items)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, b := range books {
				if !yield(b, nil) {
					return
				}
			}
		}
	}
}

// DeleteBook deletes the item; DynamoDB treats a missing key as success.
func (s *Store) DeleteBook(ctx context.Context, userID, bookID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tables.Books),
		Key:       bookKey(userID, bookID),
	})
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}

// UpdateBook builds one UpdateItem call from the partial update. The
// condition keeps it from creating a book that does not exist.
func (s *Store) UpdateBook(ctx context.Context, userID, bookID string, u domain.BookUpdate) (*domain.Book, error) {
	if u.IsEmpty() {
		return s.GetBook(ctx, userID, bookID)
	}

	expr, err := expression.NewBuilder().
		WithUpdate(bookUpdate(u)).
		WithCondition(expression.AttributeExists(expression.Name("book_id"))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tables.Books),
		Key:                       bookKey(userID, bookID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, store.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}

	var item bookItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, fmt.Errorf("unmarshal book: %w", err)
	}
	return item.domain(), nil
}

// bookUpdate maps a partial update onto SET and REMOVE clauses. Clearing
// the due date or rating removes the attribute.
func bookUpdate(u domain.BookUpdate) expression.UpdateBuilder {
	var b expression.UpdateBuilder
	if u.Status != nil {
		b = b.Set(expression.Name("status"), expression.Value(string(*u.Status)))
	}
	if u.PagesRead != nil {
		b = b.Set(expression.Name("pages_read"), expression.Value(*u.PagesRead))
	}
	if u.TotalPages != nil {
		b = b.Set(expression.Name("total_pages"), expression.Value(*u.TotalPages))
	}
	if u.DueDate != nil {
		if *u.DueDate == "" {
			b = b.Remove(expression.Name("due_date"))
		} else {
			b = b.Set(expression.Name("due_date"), expression.Value(*u.DueDate))
		}
	}
	if u.Rating != nil {
		if *u.Rating == 0 {
			b = b.Remove(expression.Name("rating"))
		} else {
			b = b.Set(expression.Name("rating"), expression.Value(*u.Rating))
		}
	}
	switch u.Archive {
	case domain.ArchiveSet:
		b = b.Set(expression.Name("archived"), expression.Value(true)).
			Set(expression.Name("archived_date"), expression.Value(u.ArchivedAt))
	case domain.ArchiveRemove:
		b = b.Remove(expression.Name("archived"))
	}
	return b
}

// queryIndex reads every book of userID whose sort key on index equals value.
func (s *Store) queryIndex(ctx context.Context, index, attr, userID, value string) ([]*domain.Book, error) {
	keyCond := expression.Key("user_id").Equal(expression.Value(userID)).
		And(expression.Key(attr).Equal(expression.Value(value)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build key condition: %w", err)
	}
	return s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tables.Books),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

// BooksByStatus queries the status-index LSI within the user's partition.
func (s *Store) BooksByStatus(ctx context.Context, userID string, status domain.Status) ([]*domain.Book, error) {
	books, err := s.queryIndex(ctx, StatusIndex, "status", userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("books by status: %w", err)
	}
	return books, nil
}

// BooksByGenre queries the genre-index LSI within the user's partition.
func (s *Store) BooksByGenre(ctx context.Context, userID, genre string) ([]*domain.Book, error) {
	books, err := s.queryIndex(ctx, GenreIndex, "genre", userID, genre)
	if err != nil {
		return nil, fmt.Errorf("books by genre: %w", err)
	}
	return books, nil
}
