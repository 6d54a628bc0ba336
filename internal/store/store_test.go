package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookmate/bookmate-server/internal/domain"
	"github.com/bookmate/bookmate-server/internal/store"
	"github.com/bookmate/bookmate-server/internal/store/storetest"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.RecordStore { return newTestStore(t) })
}

func TestSaveUser_UserIDTaken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveUser(ctx, &domain.User{UserID: "US001", Email: "a@example.com"}))
	err := s.SaveUser(ctx, &domain.User{UserID: "US001", Email: "b@example.com"})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestScanBooks_StopEarly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"BS_US001_001", "BS_US001_002", "BS_US001_003"} {
		require.NoError(t, s.SaveBook(ctx, storetest.NewBook("US001", id, id, domain.StatusToRead)))
	}

	n := 0
	for b, err := range s.ScanBooks(ctx) {
		require.NoError(t, err)
		require.NotNil(t, b)
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestScanBooks_Cancelled(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveBook(context.Background(), storetest.NewBook("US001", "BS_US001_001", "x", domain.StatusToRead)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var gotErr error
	for _, err := range s.ScanBooks(ctx) {
		gotErr = err
	}
	assert.True(t, errors.Is(gotErr, context.Canceled))
}

func TestListUserBooks_ForeignCursor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"BS_US002_001", "BS_US002_002"} {
		require.NoError(t, s.SaveBook(ctx, storetest.NewBook("US002", id, id, domain.StatusToRead)))
	}

	page, err := s.ListUserBooks(ctx, "US002", store.PaginationParams{Limit: 1})
	require.NoError(t, err)
	require.True(t, page.HasMore)

	_, err = s.ListUserBooks(ctx, "US001", store.PaginationParams{Cursor: page.NextCursor})
	assert.ErrorIs(t, err, store.ErrInvalidCursor)
}
