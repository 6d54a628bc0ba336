package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bookmate/bookmate-server/internal/domain"
	"github.com/bookmate/bookmate-server/internal/recommend"
	"github.com/bookmate/bookmate-server/internal/store"
)

// Messages shown when no recommendations can be produced.
const (
	MsgNoHistory          = "No reading history found. Add books to get recommendations."
	MsgServiceDown        = "Could not retrieve recommendations. The service may be down."
	MsgHistoryUnavailable = "A database error occurred while fetching your history."
	MsgNotConfigured      = "Recommendations are not enabled on this server."
)

// Recommender fetches recommendations for a reading history.
type Recommender interface {
	Enabled() bool
	Fetch(ctx context.Context, history []*domain.Book) (*domain.Recommendations, error)
}

// RecommendationResult is always returned with a nil error. Failures set
// Available to false and explain themselves in Message.
type RecommendationResult struct {
	Available       bool                    `json:"available"`
	Message         string                  `json:"message,omitempty"`
	Recommendations []domain.Recommendation `json:"recommendations"`
	TopGenres       []string                `json:"top_genres"`
	TopAuthors      []string                `json:"top_authors"`
	History         []domain.BookSummary    `json:"history"`
}

// RecommendationService sends a reader's history to the recommender.
type RecommendationService struct {
	store  store.BookStore
	client Recommender
	logger *slog.Logger
}

// NewRecommendationService creates a recommendation service.
func NewRecommendationService(st store.BookStore, client Recommender, logger *slog.Logger) *RecommendationService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RecommendationService{store: st, client: client, logger: logger}
}

// Recommend fetches recommendations for the caller.
func (s *RecommendationService) Recommend(ctx context.Context, userID string) (*RecommendationResult, error) {
	res := &RecommendationResult{
		Recommendations: []domain.Recommendation{},
		TopGenres:       []string{},
		TopAuthors:      []string{},
		History:         []domain.BookSummary{},
	}

	if s.client == nil || !s.client.Enabled() {
		res.Message = MsgNotConfigured
		return res, nil
	}

	history, err := s.store.GetUserBooks(ctx, userID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Error("load reading history", "user_id", userID, "error", err)
		res.Message = MsgHistoryUnavailable
		return res, nil
	}
	if len(history) == 0 {
		res.Message = MsgNoHistory
		return res, nil
	}
	for _, b := range history {
		res.History = append(res.History, b.Summarize())
	}

	recs, err := s.client.Fetch(ctx, history)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("fetch recommendations: %w", err)
		}
		s.logger.Warn("recommendation service failed", "user_id", userID, "error", err)
		res.Message = MsgServiceDown
		return res, nil
	}

	res.Available = true
	res.Recommendations = recs.Items
	res.TopGenres = recs.TopGenres
	res.TopAuthors = recs.TopAuthors
	if len(res.Recommendations) == 0 {
		res.Message = "We couldn't find any new recommendations for you at this time."
	}
	return res, nil
}

var _ Recommender = (*recommend.Client)(nil)
