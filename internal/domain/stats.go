package domain

import "time"

// BookSummary is the slice of a book shown in dashboard lists.
type BookSummary struct {
	BookID    string    `json:"book_id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Genre     string    `json:"genre"`
	Rating    int       `json:"rating"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Summarize builds a BookSummary.
func (b *Book) Summarize() BookSummary {
	return BookSummary{
		BookID:    b.BookID,
		Title:     b.Title,
		Author:    b.Author,
		Genre:     b.Genre,
		Rating:    b.RatingValue(),
		Status:    b.Status,
		Timestamp: b.Timestamp,
	}
}

// Count is one bucket of a grouped count.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// DashboardStats summarizes a reader's collection.
type DashboardStats struct {
	TotalBooks        int           `json:"total_books"`
	CompletedBooks    int           `json:"completed_books"` // Completed and rated
	CompletionPercent float64       `json:"completion_percent"`
	AverageRating     *float64      `json:"average_rating,omitzero"`
	AveragePerMonth   *float64      `json:"average_per_month,omitzero"`
	LatestBook        *BookSummary  `json:"latest_book,omitzero"`
	Pending           []BookSummary `json:"pending"`
	TopRated          []BookSummary `json:"top_rated"`
	ByGenre           []Count       `json:"by_genre"`
	ByStatus          []Count       `json:"by_status"`
	ByMonth           []Count       `json:"by_month"` // keyed YYYY-MM, oldest first
}
