package commands

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookmate/bookmate-server/internal/domain"
)

type cli struct {
	dataPath string
	envFile  string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	return &cli{
		dataPath: filepath.Join(dir, "data"),
		envFile:  filepath.Join(dir, "missing.env"),
	}
}

// run executes one bookmatectl invocation with stdin and returns stdout.
func (c *cli) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), append([]string{
		"--data-path", c.dataPath,
		"--store", "badger",
		"--env-file", c.envFile,
	}, args...), strings.NewReader(stdin), &out, &errOut)
	return out.String(), err
}

func (c *cli) mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := c.run(t, stdin, args...)
	require.NoError(t, err, out)
	return out
}

func TestUsersRegister(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun(t, "correct-horse\n", "users", "register", "--name", "Alice", "--email", " Alice@Example.com ")
	assert.Equal(t, "Registered alice@example.com (US001)\n", out)

	_, err := c.run(t, "correct-horse\n", "users", "register", "--name", "Alice", "--email", "alice@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already")

	_, err = c.run(t, "\n", "users", "register", "--name", "Bob", "--email", "bob@example.com")
	assert.EqualError(t, err, "empty password")
}

func TestUsersRegister_JSONOmitsPasswordHash(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun(t, "correct-horse\n", "--json", "users", "register", "--name", "Alice", "--email", "alice@example.com")
	assert.NotContains(t, out, "password")

	var user map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, "US001", user["user_id"])
}

func TestBooksAddListAndQuery(t *testing.T) {
	c := newCLI(t)
	c.mustRun(t, "correct-horse\n", "users", "register", "--name", "Alice", "--email", "alice@example.com")

	out := c.mustRun(t, "", "books", "add", "-u", "alice@example.com",
		"--title", "Dune", "--author", "Frank Herbert", "--genre", "Science Fiction", "--pages", "412")
	assert.Contains(t, out, "BS_US001_001")

	c.mustRun(t, "", "books", "add", "-u", "alice@example.com",
		"--title", "Piranesi", "--author", "Susanna Clarke", "--genre", "Other", "--custom-genre", "Weird Fiction",
		"--status", "Completed", "--rating", "5", "--tags", "library, favourite")

	_, err := c.run(t, "", "books", "add", "-u", "alice@example.com",
		"--title", " dune ", "--author", "FRANK HERBERT", "--genre", "Science Fiction")
	require.Error(t, err)

	out = c.mustRun(t, "", "--json", "books", "list", "-u", "alice@example.com")
	var books []*domain.Book
	require.NoError(t, json.Unmarshal([]byte(out), &books))
	require.Len(t, books, 2)

	var piranesi *domain.Book
	for _, b := range books {
		if b.Title == "Piranesi" {
			piranesi = b
		}
	}
	require.NotNil(t, piranesi)
	assert.Equal(t, "Weird Fiction", piranesi.Genre)
	assert.Equal(t, []string{"library", "favourite"}, piranesi.Tags)

	out = c.mustRun(t, "", "query", "rating", "4", "-u", "alice@example.com")
	assert.Contains(t, out, "Piranesi")
	assert.NotContains(t, out, "Dune")

	out = c.mustRun(t, "", "query", "status", "to read", "-u", "alice@example.com")
	assert.Contains(t, out, "Dune")
	assert.NotContains(t, out, "Piranesi")

	out = c.mustRun(t, "", "query", "genre", "Weird Fiction", "-u", "alice@example.com")
	assert.Contains(t, out, "Piranesi")

	_, err = c.run(t, "", "query", "rating", "five", "-u", "alice@example.com")
	assert.Error(t, err)
}

func TestBooksList_UnknownUser(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "", "books", "list", "-u", "nobody@example.com")
	assert.EqualError(t, err, "no user with email nobody@example.com")

	_, err = c.run(t, "", "books", "list")
	assert.EqualError(t, err, "--user is required")
}

func TestExportCSV(t *testing.T) {
	c := newCLI(t)
	c.mustRun(t, "correct-horse\n", "users", "register", "--name", "Alice", "--email", "alice@example.com")
	c.mustRun(t, "", "books", "add", "-u", "alice@example.com",
		"--title", "Dune", "--author", "Frank Herbert", "--genre", "Science Fiction")

	out := c.mustRun(t, "", "export", "csv", "-u", "alice@example.com")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "title,genre,rating,status,timestamp", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Dune,Science Fiction,,to read,"), lines[1])

	_, err := c.run(t, "", "export", "csv", "--upload", "-u", "alice@example.com")
	assert.Error(t, err)
}

func TestSearchReindexAndQuery(t *testing.T) {
	c := newCLI(t)
	c.mustRun(t, "correct-horse\n", "users", "register", "--name", "Alice", "--email", "alice@example.com")
	c.mustRun(t, "", "books", "add", "-u", "alice@example.com",
		"--title", "Dune", "--author", "Frank Herbert", "--genre", "Science Fiction")

	out := c.mustRun(t, "", "search", "reindex")
	assert.Equal(t, "Indexed 1 books\n", out)

	out = c.mustRun(t, "", "search", "query", "herbert", "-u", "alice@example.com")
	assert.Contains(t, out, "1 matches")
	assert.Contains(t, out, "BS_US001_001")
}
