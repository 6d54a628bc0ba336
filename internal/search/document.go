// Package search keeps a Bleve full-text index over every reader's books.
// Each document carries its owner's user ID and every query is filtered on
// it, so one index serves all tenants.
package search

import (
	"strings"

	"github.com/bookmate/bookmate-server/internal/domain"
)

// Document is one indexed book.
type Document struct {
	ID     string // DocID(UserID, BookID)
	UserID string
	BookID string
	Title  string
	Author string
	Genre  string
	Status string
	Tags   []string

	CreatedAt int64 // Unix millis
}

// DocID is the index key of a book.
func DocID(userID, bookID string) string {
	return userID + "/" + bookID
}

// FromBook builds the index document for b.
func FromBook(b *domain.Book) *Document {
	tags := make([]string, 0, len(b.Tags))
	for _, t := range b.Tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			tags = append(tags, t)
		}
	}
	return &Document{
		ID:        DocID(b.UserID, b.BookID),
		UserID:    b.UserID,
		BookID:    b.BookID,
		Title:     b.Title,
		Author:    b.Author,
		Genre:     b.Genre,
		Status:    string(b.Status),
		Tags:      tags,
		CreatedAt: b.Timestamp.UnixMilli(),
	}
}

// ToMap converts the document to the lowercase field names of the mapping.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"user_id":    d.UserID,
		"book_id":    d.BookID,
		"title":      d.Title,
		"author":     d.Author,
		"genre":      d.Genre,
		"genre_key":  d.Genre,
		"status":     d.Status,
		"created_at": d.CreatedAt,
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	return m
}
