package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	domainerrors "github.com/bookmate/bookmate-server/internal/errors"
	"github.com/bookmate/bookmate-server/internal/export"
	"github.com/bookmate/bookmate-server/internal/store"
)

// ExportUploader stores a finished export.
type ExportUploader interface {
	Put(ctx context.Context, userID string, data []byte) (*export.Upload, error)
}

// ExportService renders CSV exports of a reader's collection.
type ExportService struct {
	store    store.BookStore
	uploader ExportUploader // nil when no bucket is configured
	logger   *slog.Logger
}

// NewExportService creates an export service. uploader may be nil.
func NewExportService(st store.BookStore, uploader ExportUploader, logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ExportService{store: st, uploader: uploader, logger: logger}
}

// WriteCSV writes the caller's collection to w.
func (s *ExportService) WriteCSV(ctx context.Context, userID string, w io.Writer) error {
	books, err := s.store.GetUserBooks(ctx, userID)
	if err != nil {
		return fmt.Errorf("load books: %w", err)
	}
	return export.WriteCSV(w, books)
}

// CSV returns the caller's collection as CSV bytes.
func (s *ExportService) CSV(ctx context.Context, userID string) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.WriteCSV(ctx, userID, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Upload stores the caller's CSV in object storage and returns a download
// link.
func (s *ExportService) Upload(ctx context.Context, userID string) (*export.Upload, error) {
	if s.uploader == nil {
		return nil, domainerrors.Unavailable("export uploads are not configured")
	}
	data, err := s.CSV(ctx, userID)
	if err != nil {
		return nil, err
	}
	up, err := s.uploader.Put(ctx, userID, data)
	if err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}
	s.logger.Info("export uploaded", "user_id", userID, "key", up.Key, "bytes", len(data))
	return up, nil
}
