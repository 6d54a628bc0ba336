package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/bookmate/bookmate-server/internal/errors"
	"github.com/bookmate/bookmate-server/internal/export"
)

type fakeUploader struct {
	userID string
	data   []byte
	err    error
}

func (f *fakeUploader) Put(_ context.Context, userID string, data []byte) (*export.Upload, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.userID, f.data = userID, data
	return &export.Upload{Key: "exports/" + userID + "/x.csv", URL: "https://example.com/x.csv"}, nil
}

func TestExportService_CSV(t *testing.T) {
	env := setupTest(t)
	alice := env.register(t, "alice@example.com")
	env.add(t, alice, addReq("Dune", "Frank Herbert"))
	env.add(t, alice, addReq("Emma", "Jane Austen"))

	data, err := NewExportService(env.store, nil, nil).CSV(context.Background(), alice.UserID)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "title,genre,rating,status,timestamp", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Dune,Science Fiction,,to read,"))
}

func TestExportService_Upload(t *testing.T) {
	env := setupTest(t)
	alice := env.register(t, "alice@example.com")
	env.add(t, alice, addReq("Dune", "Frank Herbert"))

	up := &fakeUploader{}
	res, err := NewExportService(env.store, up, nil).Upload(context.Background(), alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, "exports/US001/x.csv", res.Key)
	assert.Equal(t, "US001", up.userID)
	assert.Contains(t, string(up.data), "Dune")
}

func TestExportService_UploadErrors(t *testing.T) {
	env := setupTest(t)
	alice := env.register(t, "alice@example.com")

	_, err := NewExportService(env.store, nil, nil).Upload(context.Background(), alice.UserID)
	assert.ErrorIs(t, err, domainerrors.ErrUnavailable)

	boom := errors.New("bucket gone")
	_, err = NewExportService(env.store, &fakeUploader{err: boom}, nil).Upload(context.Background(), alice.UserID)
	assert.ErrorIs(t, err, boom)
}
