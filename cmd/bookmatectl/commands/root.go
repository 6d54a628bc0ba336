// Package commands implements the bookmatectl command tree.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/bookmate/bookmate-server/internal/config"
	"github.com/bookmate/bookmate-server/internal/di"
	"github.com/bookmate/bookmate-server/internal/di/providers"
	"github.com/bookmate/bookmate-server/internal/domain"
)

// globals holds the persistent flags and the injector built from them.
type globals struct {
	dataPath   string
	backend    string
	envFile    string
	logLevel   string
	jsonOutput bool

	injector *do.RootScope
}

// Execute runs the root command.
func Execute() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes one invocation. The injector is shut down even when the
// command fails, releasing the store and index file locks.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	g := &globals{}
	cmd := newRootCmd(g)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if cerr := g.close(); err == nil {
		err = cerr
	}
	return err
}

func newRootCmd(g *globals) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bookmatectl",
		Short: "BookMate administration tool",
		Long: `bookmatectl works directly against a BookMate data directory or
DynamoDB tables, using the same services as the HTTP server.

Stop the server before pointing bookmatectl at a badger or sqlite
data directory: both backends and the search index hold file locks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return g.open()
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.dataPath, "data-path", "", "Base path for data storage (default: DATA_PATH or ~/BookMate/data)")
	rootCmd.PersistentFlags().StringVar(&g.backend, "store", "", "Store backend (badger, sqlite, dynamodb)")
	rootCmd.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "Path to .env file")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&g.jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddCommand(
		newUsersCmd(g),
		newBooksCmd(g),
		newQueryCmd(g),
		newExportCmd(g),
		newSearchCmd(g),
	)
	return rootCmd
}

func (g *globals) open() error {
	args := []string{"-env-file", g.envFile, "-log-level", g.logLevel}
	if g.dataPath != "" {
		args = append(args, "-data-path", g.dataPath)
	}
	if g.backend != "" {
		args = append(args, "-store", g.backend)
	}

	cfg, err := config.LoadConfig(args)
	if err != nil {
		return err
	}
	g.injector = di.NewToolContainer(cfg)
	return nil
}

func (g *globals) close() error {
	if g.injector == nil {
		return nil
	}
	injector := g.injector
	g.injector = nil
	if err := injector.Shutdown(); err != nil {
		return err
	}
	return nil
}

// lookupUser resolves the --user flag to a stored reader.
func lookupUser(ctx context.Context, g *globals, email string) (*domain.User, error) {
	if email == "" {
		return nil, errors.New("--user is required")
	}
	st, err := invoke[*providers.StoreHandle](g)
	if err != nil {
		return nil, err
	}
	user, err := st.LoadUser(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("no user with email %s", email)
	}
	return user, nil
}

func invoke[T any](g *globals) (T, error) {
	return do.Invoke[T](g.injector)
}
