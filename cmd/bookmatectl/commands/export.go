package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookmate/bookmate-server/internal/service"
)

func newExportCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a reader's collection",
	}
	cmd.AddCommand(newExportCSVCmd(g))
	return cmd
}

func newExportCSVCmd(g *globals) *cobra.Command {
	var (
		email  string
		output string
		upload bool
	)

	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Write the collection as CSV",
		Long: `Write the collection as CSV to stdout, a file, or the configured
export bucket.

Examples:
  bookmatectl export csv -u alice@example.com > alice.csv
  bookmatectl export csv -u alice@example.com -o alice.csv
  bookmatectl export csv -u alice@example.com --upload`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			user, err := lookupUser(ctx, g, email)
			if err != nil {
				return err
			}
			exportService, err := invoke[*service.ExportService](g)
			if err != nil {
				return err
			}

			if upload {
				up, err := exportService.Upload(ctx, user.UserID)
				if err != nil {
					return err
				}
				if g.jsonOutput {
					return printJSON(cmd.OutOrStdout(), up)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Uploaded s3://%s/%s\nDownload (until %s): %s\n",
					up.Bucket, up.Key, up.ExpiresAt.Format("2006-01-02 15:04 MST"), up.URL)
				return err
			}

			if output == "" || output == "-" {
				return exportService.WriteCSV(ctx, user.UserID, cmd.OutOrStdout())
			}

			data, err := exportService.CSV(ctx, user.UserID)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d bytes to %s\n", len(data), output)
			return err
		},
	}

	cmd.Flags().StringVarP(&email, "user", "u", "", "Reader email")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&upload, "upload", false, "Upload to the export bucket and print a download link")
	return cmd
}
