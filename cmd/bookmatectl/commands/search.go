package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookmate/bookmate-server/internal/service"
)

func newSearchCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Query or rebuild the search index",
	}
	cmd.AddCommand(newSearchReindexCmd(g), newSearchQueryCmd(g))
	return cmd
}

func newSearchReindexCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from every stored book",
		RunE: func(cmd *cobra.Command, _ []string) error {
			searchService, err := invoke[*service.SearchService](g)
			if err != nil {
				return err
			}
			n, err := searchService.Reindex(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d books\n", n)
			return err
		},
	}
}

func newSearchQueryCmd(g *globals) *cobra.Command {
	var (
		email string
		req   service.SearchRequest
	)

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Search a reader's books",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user, err := lookupUser(ctx, g, email)
			if err != nil {
				return err
			}
			searchService, err := invoke[*service.SearchService](g)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				req.Query = args[0]
			}

			res, err := searchService.Search(ctx, user.UserID, req)
			if err != nil {
				return err
			}
			if g.jsonOutput {
				return printJSON(cmd.OutOrStdout(), res)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%d matches in %dms\n", res.Total, res.TookMs)
			for _, h := range res.Hits {
				fmt.Fprintf(w, "  %s  %s by %s (%s, %s)\n", h.BookID, h.Title, h.Author, h.Genre, h.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "user", "u", "", "Reader email")
	cmd.Flags().StringVar(&req.Status, "status", "", "Only books with this status")
	cmd.Flags().IntVar(&req.Limit, "limit", 20, "Maximum hits")
	return cmd
}
