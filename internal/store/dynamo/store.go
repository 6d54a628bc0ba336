// Package dynamo implements store.RecordStore on DynamoDB tables:
//
//	UsersTable    pk email; GSI user_id-index (user_id)
//	BooksTable    pk user_id, sk book_id; LSIs status-index (status), genre-index (genre)
//	BookCounters  pk name, attribute seq
//	BookSessions  pk id, TTL attribute ttl
package dynamo

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/bookmate/bookmate-server/internal/store"
)

// Index names. StatusIndex and GenreIndex are LSIs on the books table;
// UserIDIndex is a GSI on the users table.
const (
	StatusIndex = "status-index"
	GenreIndex  = "genre-index"
	UserIDIndex = "user_id-index"
)

// API is the subset of *dynamodb.Client the store calls.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Tables names the four tables.
type Tables struct {
	Users    string
	Books    string
	Counters string
	Sessions string
}

// Store is the DynamoDB backend.
type Store struct {
	client API
	tables Tables
	logger *slog.Logger
}

var _ store.RecordStore = (*Store)(nil)

// New wraps a DynamoDB client.
func New(client API, tables Tables, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{client: client, tables: tables, logger: logger}
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *Store) Close() error { return nil }

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func str(v string) *types.AttributeValueMemberS {
	return &types.AttributeValueMemberS{Value: v}
}

func num(n int) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.Itoa(n)}
}
