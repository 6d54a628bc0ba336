package commands

import (
	"github.com/spf13/cobra"

	"github.com/bookmate/bookmate-server/internal/domain"
	"github.com/bookmate/bookmate-server/internal/service"
	"github.com/bookmate/bookmate-server/internal/store"
)

func newBooksCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "List and add books",
	}
	cmd.AddCommand(newBooksListCmd(g), newBooksAddCmd(g))
	return cmd
}

func newBooksListCmd(g *globals) *cobra.Command {
	var (
		email    string
		archived bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a reader's books, overdue first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			user, err := lookupUser(ctx, g, email)
			if err != nil {
				return err
			}
			bookService, err := invoke[*service.BookService](g)
			if err != nil {
				return err
			}

			if archived {
				books, err := bookService.ListArchived(ctx, user.UserID)
				if err != nil {
					return err
				}
				return printBooks(cmd.OutOrStdout(), books, g.jsonOutput)
			}

			var books []*domain.Book
			params := store.PaginationParams{Limit: store.MaxPageSize}
			for {
				page, err := bookService.ListActive(ctx, user.UserID, params)
				if err != nil {
					return err
				}
				books = append(books, page.Items...)
				if !page.HasMore {
					break
				}
				params.Cursor = page.NextCursor
			}
			return printBooks(cmd.OutOrStdout(), books, g.jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&email, "user", "u", "", "Reader email")
	cmd.Flags().BoolVar(&archived, "archived", false, "List archived books instead")
	return cmd
}

func newBooksAddCmd(g *globals) *cobra.Command {
	var (
		email string
		req   service.AddBookRequest
		tags  string
		rate  int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to a reader's collection",
		Long: `Add a book to a reader's collection.

Examples:
  bookmatectl books add -u alice@example.com --title Dune --author "Frank Herbert" \
      --genre "Science Fiction" --status "To Read" --pages 412
  bookmatectl books add -u alice@example.com --title Piranesi --author "Susanna Clarke" \
      --genre Other --custom-genre "Weird Fiction" --status Completed --rating 5 --tags "library,favourite"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			user, err := lookupUser(ctx, g, email)
			if err != nil {
				return err
			}
			bookService, err := invoke[*service.BookService](g)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("rating") {
				req.Rating = &rate
			}
			req.Tags = domain.ParseTags(tags)

			book, err := bookService.AddBook(ctx, user, req)
			if err != nil {
				return err
			}
			return printBooks(cmd.OutOrStdout(), []*domain.Book{book}, g.jsonOutput)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&email, "user", "u", "", "Reader email")
	f.StringVar(&req.Title, "title", "", "Title")
	f.StringVar(&req.Author, "author", "", "Author")
	f.StringVar(&req.Genre, "genre", "", "Genre from the catalog, or Other")
	f.StringVar(&req.CustomGenre, "custom-genre", "", "Genre name when --genre is Other")
	f.StringVar(&req.Status, "status", "To Read", "To Read, Reading or Completed")
	f.IntVar(&rate, "rating", 0, "Rating 1-5")
	f.StringVar(&tags, "tags", "", "Comma separated tags")
	f.IntVar(&req.TotalPages, "pages", 0, "Total pages")
	f.IntVar(&req.PagesRead, "pages-read", 0, "Pages read so far")
	f.StringVar(&req.DueDate, "due", "", "Due date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	_ = cmd.MarkFlagRequired("genre")
	return cmd
}
