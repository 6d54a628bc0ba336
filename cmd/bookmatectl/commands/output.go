package commands

import (
	"encoding/json/v2"
	"encoding/json/jsontext"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/bookmate/bookmate-server/internal/domain"
)

func printJSON(w io.Writer, v any) error {
	if err := json.MarshalWrite(w, v, jsontext.WithIndent("  ")); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func printBooks(w io.Writer, books []*domain.Book, asJSON bool) error {
	if asJSON {
		if books == nil {
			books = []*domain.Book{}
		}
		return printJSON(w, books)
	}
	if len(books) == 0 {
		_, err := fmt.Fprintln(w, "No books found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tGENRE\tRATING\tSTATUS\tPROGRESS\tTAGS")
	for _, b := range books {
		rating := "-"
		if b.IsRated() {
			rating = strconv.Itoa(b.RatingValue())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%.0f%%\t%s\n",
			b.BookID, b.Title, b.Author, b.Genre, rating, b.Status,
			b.ProgressPercent(), strings.Join(b.Tags, ", "))
	}
	return tw.Flush()
}
