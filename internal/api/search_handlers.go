package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/bookmate/bookmate-server/internal/errors"
	"github.com/bookmate/bookmate-server/internal/search"
	"github.com/bookmate/bookmate-server/internal/service"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search books",
		Description: "Full-text search over the caller's titles, authors, genres and tags. An empty query lists every book.",
		Tags:        []string{"Search"},
		Security:    bearerSecurity,
	}, s.handleSearch)
}

// SearchInput contains search parameters.
type SearchInput struct {
	Query  string `query:"q" maxLength:"200" doc:"Search query"`
	Status string `query:"status" doc:"Only books with this status"`
	Limit  int    `query:"limit" minimum:"0" maximum:"100" doc:"Max results (default 20)"`
	Offset int    `query:"offset" minimum:"0" doc:"Pagination offset"`
}

// SearchOutput wraps search results for Huma.
type SearchOutput struct {
	Body *search.Result
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if s.services.Search == nil {
		return nil, domainerrors.Unavailable("search is not available")
	}

	res, err := s.services.Search.Search(ctx, user.UserID, service.SearchRequest{
		Query:  input.Query,
		Status: input.Status,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: res}, nil
}
