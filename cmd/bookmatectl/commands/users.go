package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookmate/bookmate-server/internal/service"
)

func newUsersCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage reader accounts",
	}
	cmd.AddCommand(newUsersRegisterCmd(g))
	return cmd
}

func newUsersRegisterCmd(g *globals) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a reader account",
		Long: `Create a reader account. The password is read from the terminal
without echo, or from the first line of stdin when it is piped.

Examples:
  bookmatectl users register --name Alice --email alice@example.com
  echo 's3cret-pass' | bookmatectl users register --name Alice --email alice@example.com`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			authService, err := invoke[*service.AuthService](g)
			if err != nil {
				return err
			}
			resp, err := authService.Register(cmd.Context(), service.RegisterRequest{
				Name:     name,
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}

			if g.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"user_id":    resp.User.UserID,
					"email":      resp.User.Email,
					"name":       resp.User.Name,
					"created_at": resp.User.CreatedAt,
				})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", resp.User.Email, resp.User.UserID)
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
