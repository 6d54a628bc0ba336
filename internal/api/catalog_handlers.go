package api

import (
	"context"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookmate/bookmate-server/internal/domain"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCatalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog",
		Summary:     "Form options",
		Description: "Returns the genre options, reading statuses and rating comparators",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleGetCatalog)
}

// CatalogResponse lists the values the book forms accept.
type CatalogResponse struct {
	Genres      []string `json:"genres" doc:"Genre options; Other requires custom_genre"`
	Statuses    []string `json:"statuses" doc:"Reading statuses"`
	Comparators []string `json:"comparators" doc:"Rating comparators"`
}

// CatalogOutput wraps the catalog response for Huma.
type CatalogOutput struct {
	Body CatalogResponse
}

func (s *Server) handleGetCatalog(ctx context.Context, _ *struct{}) (*CatalogOutput, error) {
	if _, err := GetPrincipal(ctx); err != nil {
		return nil, err
	}

	statuses := make([]string, len(domain.Statuses))
	for i, st := range domain.Statuses {
		statuses[i] = string(st)
	}
	comparators := make([]string, len(domain.Comparators))
	for i, c := range domain.Comparators {
		comparators[i] = string(c)
	}

	return &CatalogOutput{
		Body: CatalogResponse{
			Genres:      slices.Clone(domain.GenreOptions),
			Statuses:    statuses,
			Comparators: comparators,
		},
	}, nil
}
