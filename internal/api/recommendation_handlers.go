package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookmate/bookmate-server/internal/service"
)

func (s *Server) registerRecommendationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getRecommendations",
		Method:      http.MethodPost,
		Path:        "/api/v1/recommendations",
		Summary:     "Fetch recommendations",
		Description: "Sends the caller's reading history to the recommendation service. When the service cannot answer, available is false and message explains why.",
		Tags:        []string{"Recommendations"},
		Security:    bearerSecurity,
	}, s.handleRecommendations)
}

// RecommendationOutput wraps the recommendation result for Huma.
type RecommendationOutput struct {
	Body *service.RecommendationResult
}

func (s *Server) handleRecommendations(ctx context.Context, _ *struct{}) (*RecommendationOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.services.Recommendation.Recommend(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	return &RecommendationOutput{Body: res}, nil
}
