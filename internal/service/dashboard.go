package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/bookmate/bookmate-server/internal/domain"
	"github.com/bookmate/bookmate-server/internal/store"
)

// topRatedLimit caps DashboardStats.TopRated.
const topRatedLimit = 5

// DashboardService computes reading statistics.
type DashboardService struct {
	store  store.BookStore
	logger *slog.Logger
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(st store.BookStore, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DashboardService{store: st, logger: logger}
}

// Stats summarizes every book the caller owns, archived ones included.
func (s *DashboardService) Stats(ctx context.Context, userID string) (*domain.DashboardStats, error) {
	books, err := s.store.GetUserBooks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	return ComputeStats(books), nil
}

// ComputeStats builds the dashboard for books. A book counts as completed
// when it is Completed and rated; it is pending when unrated or not yet
// Completed.
func ComputeStats(books []*domain.Book) *domain.DashboardStats {
	stats := &domain.DashboardStats{
		TotalBooks: len(books),
		Pending:    []domain.BookSummary{},
		TopRated:   []domain.BookSummary{},
		ByGenre:    []domain.Count{},
		ByStatus:   []domain.Count{},
		ByMonth:    []domain.Count{},
	}
	if len(books) == 0 {
		return stats
	}

	byTime := slices.Clone(books)
	slices.SortStableFunc(byTime, func(a, b *domain.Book) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	var ratingSum, rated int
	genres := map[string]int{}
	statuses := map[string]int{}
	months := map[string]int{}

	for _, b := range byTime {
		if b.Status == domain.StatusCompleted && b.IsRated() {
			stats.CompletedBooks++
		}
		if b.IsRated() {
			ratingSum += b.RatingValue()
			rated++
			stats.TopRated = append(stats.TopRated, b.Summarize())
		}
		if !b.IsRated() || b.Status == domain.StatusToRead || b.Status == domain.StatusReading {
			stats.Pending = append(stats.Pending, b.Summarize())
		}
		genres[b.Genre]++
		statuses[string(b.Status)]++
		if !b.Timestamp.IsZero() {
			months[monthKey(b.Timestamp)]++
		}
	}

	stats.CompletionPercent = round2(float64(stats.CompletedBooks) / float64(len(books)) * 100)
	if rated > 0 {
		avg := round2(float64(ratingSum) / float64(rated))
		stats.AverageRating = &avg
	}
	if len(months) > 0 {
		avg := round2(float64(len(books)-countZeroTimes(books)) / float64(len(months)))
		stats.AveragePerMonth = &avg
	}
	if latest := byTime[len(byTime)-1]; !latest.Timestamp.IsZero() {
		sum := latest.Summarize()
		stats.LatestBook = &sum
	}

	slices.SortStableFunc(stats.TopRated, func(a, b domain.BookSummary) int {
		return cmp.Compare(b.Rating, a.Rating)
	})
	if len(stats.TopRated) > topRatedLimit {
		stats.TopRated = stats.TopRated[:topRatedLimit]
	}

	stats.ByGenre = sortedCounts(genres, false)
	stats.ByStatus = sortedCounts(statuses, false)
	stats.ByMonth = sortedCounts(months, true)
	return stats
}

func countZeroTimes(books []*domain.Book) int {
	n := 0
	for _, b := range books {
		if b.Timestamp.IsZero() {
			n++
		}
	}
	return n
}

// sortedCounts orders by count descending then key, or by key alone.
func sortedCounts(m map[string]int, byKey bool) []domain.Count {
	out := make([]domain.Count, 0, len(m))
	for k, n := range m {
		out = append(out, domain.Count{Key: k, Count: n})
	}
	slices.SortFunc(out, func(a, b domain.Count) int {
		if !byKey {
			if c := cmp.Compare(b.Count, a.Count); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// monthKey is the ByMonth bucket of t.
func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
