package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bookmate/bookmate-server/internal/domain"
	"github.com/bookmate/bookmate-server/internal/service"
)

func newQueryCmd(g *globals) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Filter a reader's books by status, genre or rating",
	}
	cmd.PersistentFlags().StringVarP(&email, "user", "u", "", "Reader email")

	// run resolves the reader and query service, then prints what fn returns.
	run := func(cmd *cobra.Command, fn func(ctx context.Context, qs *service.QueryService, userID string) ([]*domain.Book, error)) error {
		ctx := cmd.Context()
		user, err := lookupUser(ctx, g, email)
		if err != nil {
			return err
		}
		qs, err := invoke[*service.QueryService](g)
		if err != nil {
			return err
		}
		books, err := fn(ctx, qs, user.UserID)
		if err != nil {
			return err
		}
		return printBooks(cmd.OutOrStdout(), books, g.jsonOutput)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status <status>",
		Short: "Books with the given status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, qs *service.QueryService, userID string) ([]*domain.Book, error) {
				return qs.ByStatus(ctx, userID, args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "genre <genre>",
		Short: "Books in the given genre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, qs *service.QueryService, userID string) ([]*domain.Book, error) {
				return qs.ByGenre(ctx, userID, args[0])
			})
		},
	})

	var cmp string
	ratingCmd := &cobra.Command{
		Use:   "rating <value>",
		Short: "Books whose rating compares to value",
		Long: `Books whose rating compares to value. Unrated books never match.

Examples:
  bookmatectl query rating 4 -u alice@example.com             # rating >= 4
  bookmatectl query rating 3 --cmp lt -u alice@example.com    # rating < 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("rating must be a number: %q", args[0])
			}
			return run(cmd, func(ctx context.Context, qs *service.QueryService, userID string) ([]*domain.Book, error) {
				return qs.ByRating(ctx, userID, value, cmp)
			})
		},
	}
	ratingCmd.Flags().StringVar(&cmp, "cmp", "gte", "eq, gt, gte, lt or lte")
	cmd.AddCommand(ratingCmd)

	return cmd
}
