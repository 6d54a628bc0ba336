package search

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/bookmate/bookmate-server/internal/domain"
)

// Index wraps a Bleve index of books. All methods are safe for concurrent
// use; Reset takes the lock exclusively.
type Index struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the index.
type Options struct {
	DataPath string
	Logger   *slog.Logger
}

// mappingVersion changes whenever buildIndexMapping does. A mismatch on
// open discards the index so the next reindex rebuilds it.
const mappingVersion = "bm-1"

const batchSize = 500

// Open opens the index under DataPath, creating it when missing, outdated
// or unreadable.
func Open(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var idx bleve.Index
	if _, err := os.Stat(indexPath); err == nil {
		version, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil || string(version) != mappingVersion:
			logger.Info("search mapping changed, recreating index",
				"old_version", string(version),
				"new_version", mappingVersion,
			)
		default:
			idx, err = bleve.Open(indexPath)
			if err != nil {
				logger.Warn("open search index failed, recreating", "path", indexPath, "error", err)
				idx = nil
			}
		}
		if idx == nil {
			if err := os.RemoveAll(indexPath); err != nil {
				return nil, fmt.Errorf("remove old index: %w", err)
			}
		}
	}

	if idx == nil {
		var err error
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("write search version file", "error", err)
		}
		logger.Info("created search index", "path", indexPath)
	}

	return &Index{index: idx, path: indexPath, logger: logger}, nil
}

// Close releases the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// Shutdown lets the injector close the index.
func (s *Index) Shutdown() error {
	return s.Close()
}

// IndexBook adds or replaces one book.
func (s *Index) IndexBook(b *domain.Book) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := FromBook(b)
	return s.index.Index(doc.ID, doc.ToMap())
}

// DeleteBook removes one book. Missing documents are ignored.
func (s *Index) DeleteBook(userID, bookID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(DocID(userID, bookID))
}

// IndexBooks consumes books and indexes them in batches, returning how many
// were written.
func (s *Index) IndexBooks(ctx context.Context, books iter.Seq2[*domain.Book, error]) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.index.NewBatch()
	total := 0
	flush := func() error {
		if batch.Size() == 0 {
			return nil
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch at %d: %w", total, err)
		}
		batch.Reset()
		return nil
	}

	for b, err := range books {
		if err != nil {
			return total, err
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
		doc := FromBook(b)
		if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
			return total, fmt.Errorf("batch index %s: %w", doc.ID, err)
		}
		total++
		if batch.Size() >= batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	return total, flush()
}

// Count returns the number of indexed books.
func (s *Index) Count() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Reset drops every document by recreating the index. Other calls block
// until it finishes.
func (s *Index) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}
	idx, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.index = idx
	s.logger.Info("reset search index", "path", s.path)
	return nil
}
