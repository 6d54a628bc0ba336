package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"iter"
)

// Page size bounds.
const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// PaginationParams selects one page of a listing.
type PaginationParams struct {
	Limit  int    // items per page, DefaultPageSize when unset, capped at MaxPageSize
	Cursor string // opaque, empty for the first page
}

// PaginatedResult is one page of a listing.
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// Normalize clamps Limit into range.
func (p *PaginationParams) Normalize() {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
}

// EncodeCursor makes an opaque cursor from the last key of a page.
func EncodeCursor(key string) string {
	if key == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// DecodeCursor reverses EncodeCursor.
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	return string(b), nil
}

// PageFunc fetches one page.
type PageFunc[T any] func(ctx context.Context, params PaginationParams) (*PaginatedResult[T], error)

// Batches walks every page of a listing, yielding each page's items as a
// batch. Nothing is fetched until the sequence is ranged over, and every
// range starts again from the first page.
//
//	for batch, err := range store.Batches(ctx, 200, pageOfBooks) {
//	    if err != nil { ... }
//	}
func Batches[T any](ctx context.Context, limit int, fetch PageFunc[T]) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		params := PaginationParams{Limit: limit}
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			page, err := fetch(ctx, params)
			if err != nil {
				yield(nil, err)
				return
			}
			if len(page.Items) > 0 && !yield(page.Items, nil) {
				return
			}
			if !page.HasMore || page.NextCursor == "" {
				return
			}
			params.Cursor = page.NextCursor
		}
	}
}

// Collect drains a lazy sequence into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
