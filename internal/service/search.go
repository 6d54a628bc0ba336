package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bookmate/bookmate-server/internal/domain"
	domainerrors "github.com/bookmate/bookmate-server/internal/errors"
	"github.com/bookmate/bookmate-server/internal/search"
	"github.com/bookmate/bookmate-server/internal/store"
)

// SearchService runs full-text queries and rebuilds the index.
type SearchService struct {
	store  store.BookStore
	index  *search.Index
	logger *slog.Logger
}

// NewSearchService creates a search service.
func NewSearchService(st store.BookStore, index *search.Index, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SearchService{store: st, index: index, logger: logger}
}

// SearchRequest is a free-text query over the caller's books.
type SearchRequest struct {
	Query  string `json:"q" validate:"max=200"`
	Status string `json:"status" validate:"omitempty,status"`
	Limit  int    `json:"limit" validate:"min=0,max=100"`
	Offset int    `json:"offset" validate:"min=0"`
}

// Search matches req against title, author, genre and tags.
func (s *SearchService) Search(ctx context.Context, userID string, req SearchRequest) (*search.Result, error) {
	req.Query = strings.TrimSpace(req.Query)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	params := search.Params{
		UserID: userID,
		Query:  req.Query,
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if st, ok := domain.ParseStatus(req.Status); ok {
		params.Status = string(st)
	}

	res, err := s.index.Search(ctx, params)
	if errors.Is(err, search.ErrNoOwner) {
		return nil, domainerrors.Unauthorized("search requires a signed-in user")
	}
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return res, nil
}

// Reindex rebuilds the index from every stored book.
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	start := time.Now()
	if err := s.index.Reset(); err != nil {
		return 0, fmt.Errorf("reset index: %w", err)
	}
	n, err := s.index.IndexBooks(ctx, s.store.ScanBooks(ctx))
	if err != nil {
		return n, fmt.Errorf("reindex: %w", err)
	}
	s.logger.Info("search index rebuilt", "books", n, "duration", time.Since(start))
	return n, nil
}
