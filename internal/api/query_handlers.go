package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerQueryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "queryByStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/query/status",
		Summary:     "Books by status",
		Tags:        []string{"Query"},
		Security:    bearerSecurity,
	}, s.handleQueryStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "queryByGenre",
		Method:      http.MethodGet,
		Path:        "/api/v1/query/genre",
		Summary:     "Books by genre",
		Tags:        []string{"Query"},
		Security:    bearerSecurity,
	}, s.handleQueryGenre)

	huma.Register(s.api, huma.Operation{
		OperationID: "queryByRating",
		Method:      http.MethodGet,
		Path:        "/api/v1/query/rating",
		Summary:     "Books by rating",
		Description: "Compares each book's rating to value with eq, gt, gte (default), lt or lte. Unrated books never match.",
		Tags:        []string{"Query"},
		Security:    bearerSecurity,
	}, s.handleQueryRating)
}

// StatusQueryInput selects books by status.
type StatusQueryInput struct {
	Status string `query:"status" required:"true" doc:"To Read, Reading or Completed, any casing"`
}

// GenreQueryInput selects books by genre.
type GenreQueryInput struct {
	Genre string `query:"genre" required:"true" doc:"Exact genre"`
}

// RatingQueryInput selects books by rating.
type RatingQueryInput struct {
	Value int    `query:"value" required:"true" doc:"Rating 1-5"`
	Cmp   string `query:"cmp" doc:"eq, gt, gte, lt or lte"`
}

func (s *Server) handleQueryStatus(ctx context.Context, input *StatusQueryInput) (*BookListOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	books, err := s.services.Query.ByStatus(ctx, user.UserID, input.Status)
	if err != nil {
		return nil, err
	}
	return s.bookList(books), nil
}

func (s *Server) handleQueryGenre(ctx context.Context, input *GenreQueryInput) (*BookListOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	books, err := s.services.Query.ByGenre(ctx, user.UserID, input.Genre)
	if err != nil {
		return nil, err
	}
	return s.bookList(books), nil
}

func (s *Server) handleQueryRating(ctx context.Context, input *RatingQueryInput) (*BookListOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	books, err := s.services.Query.ByRating(ctx, user.UserID, input.Value, input.Cmp)
	if err != nil {
		return nil, err
	}
	return s.bookList(books), nil
}
