package dynamo

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/bookmate/bookmate-server/internal/domain"
)

type userItem struct {
	Email        string    `dynamodbav:"email"`
	UserID       string    `dynamodbav:"user_id"`
	Name         string    `dynamodbav:"name"`
	PasswordHash string    `dynamodbav:"password_hash,omitempty"`
	CreatedAt    time.Time `dynamodbav:"created_at"`
}

func toUserItem(u *domain.User) userItem {
	return userItem{
		Email:        u.Email,
		UserID:       u.UserID,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func (i userItem) domain() *domain.User {
	return &domain.User{
		UserID:       i.UserID,
		Email:        i.Email,
		Name:         i.Name,
		PasswordHash: i.PasswordHash,
		CreatedAt:    i.CreatedAt,
	}
}

// legacyTimeLayout is how rows written by the first version of the app
// store timestamp and archived_date.
const legacyTimeLayout = "2006-01-02 15:04:05"

// itemTime is written as an RFC 3339 string and also read from
// legacyTimeLayout, taken as UTC.
type itemTime time.Time

func (t itemTime) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return str(time.Time(t).Format(time.RFC3339Nano)), nil
}

func (t *itemTime) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	switch v := av.(type) {
	case *types.AttributeValueMemberNULL:
		*t = itemTime{}
		return nil
	case *types.AttributeValueMemberS:
		if v.Value == "" {
			*t = itemTime{}
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, v.Value)
		if err != nil {
			parsed, err = time.ParseInLocation(legacyTimeLayout, v.Value, time.UTC)
		}
		if err != nil {
			return fmt.Errorf("parse time %q: %w", v.Value, err)
		}
		*t = itemTime(parsed)
		return nil
	default:
		return fmt.Errorf("time attribute has type %T", av)
	}
}

// itemRating reads a rating stored as a number, a digit string, an empty
// string or NULL. Anything that is not a positive number means unrated.
type itemRating int

func (r *itemRating) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	var raw string
	switch v := av.(type) {
	case *types.AttributeValueMemberNULL:
		*r = 0
		return nil
	case *types.AttributeValueMemberN:
		raw = v.Value
	case *types.AttributeValueMemberS:
		raw = strings.TrimSpace(v.Value)
		if raw == "" {
			*r = 0
			return nil
		}
	default:
		return fmt.Errorf("rating attribute has type %T", av)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		*r = 0
		return nil
	}
	*r = itemRating(int(f))
	return nil
}

type bookItem struct {
	UserID       string     `dynamodbav:"user_id"`
	BookID       string     `dynamodbav:"book_id"`
	Title        string     `dynamodbav:"title"`
	Author       string     `dynamodbav:"author"`
	Genre        string     `dynamodbav:"genre,omitempty"`
	Rating       itemRating `dynamodbav:"rating,omitempty"`
	Status       string     `dynamodbav:"status"`
	Tags         []string   `dynamodbav:"tags"`
	Timestamp    itemTime   `dynamodbav:"timestamp"`
	TotalPages   int        `dynamodbav:"total_pages"`
	PagesRead    int        `dynamodbav:"pages_read"`
	Email        string     `dynamodbav:"email"`
	DueDate      string     `dynamodbav:"due_date,omitempty"`
	Archived     bool       `dynamodbav:"archived,omitempty"`
	ArchivedDate *itemTime  `dynamodbav:"archived_date,omitempty"`
}

func toBookItem(b *domain.Book) bookItem {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	var archived *itemTime
	if b.ArchivedDate != nil {
		at := itemTime(*b.ArchivedDate)
		archived = &at
	}
	return bookItem{
		UserID:       b.UserID,
		BookID:       b.BookID,
		Title:        b.Title,
		Author:       b.Author,
		Genre:        b.Genre,
		Rating:       itemRating(b.RatingValue()),
		Status:       string(b.Status),
		Tags:         tags,
		Timestamp:    itemTime(b.Timestamp),
		TotalPages:   b.TotalPages,
		PagesRead:    b.PagesRead,
		Email:        b.Email,
		DueDate:      b.DueDate,
		Archived:     b.Archived,
		ArchivedDate: archived,
	}
}

func (i bookItem) domain() *domain.Book {
	b := &domain.Book{
		UserID:       i.UserID,
		BookID:       i.BookID,
		Title:        i.Title,
		Author:       i.Author,
		Genre:        i.Genre,
		Status:       domain.Status(i.Status),
		Tags:         i.Tags,
		Timestamp:    time.Time(i.Timestamp),
		TotalPages:   i.TotalPages,
		PagesRead:    i.PagesRead,
		Email:        i.Email,
		DueDate:      i.DueDate,
		Archived:     i.Archived,
	}
	if i.ArchivedDate != nil {
		at := time.Time(*i.ArchivedDate)
		b.ArchivedDate = &at
	}
	if i.Rating > 0 {
		r := int(i.Rating)
		b.Rating = &r
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return b
}

type sessionItem struct {
	ID               string    `dynamodbav:"id"`
	UserID           string    `dynamodbav:"user_id"`
	Email            string    `dynamodbav:"email"`
	RefreshTokenHash string    `dynamodbav:"refresh_token_hash"`
	CreatedAt        time.Time `dynamodbav:"created_at"`
	ExpiresAt        time.Time `dynamodbav:"expires_at"`
	TTL              int64     `dynamodbav:"ttl"` // epoch seconds, for DynamoDB TTL
}
