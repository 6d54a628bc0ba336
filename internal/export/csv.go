// Package export renders a reader's collection as CSV and uploads exports
// to S3-compatible object storage.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bookmate/bookmate-server/internal/domain"
)

// Columns is the CSV header.
var Columns = []string{"title", "genre", "rating", "status", "timestamp"}

// ContentType of a CSV export.
const ContentType = "text/csv; charset=utf-8"

// WriteCSV writes books oldest first. Unrated books get an empty rating
// cell and statuses are lower-cased.
func WriteCSV(w io.Writer, books []*domain.Book) error {
	sorted := slices.Clone(books)
	slices.SortStableFunc(sorted, func(a, b *domain.Book) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, b := range sorted {
		rating := ""
		if b.IsRated() {
			rating = strconv.Itoa(b.RatingValue())
		}
		row := []string{
			b.Title,
			b.Genre,
			rating,
			strings.ToLower(string(b.Status)),
			b.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", b.BookID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
