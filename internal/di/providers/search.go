package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/bookmate/bookmate-server/internal/config"
	"github.com/bookmate/bookmate-server/internal/logger"
	"github.com/bookmate/bookmate-server/internal/search"
	"github.com/bookmate/bookmate-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.Open(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.Count()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// ProvideSearchService provides the search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(storeHandle, indexHandle.Index, log.Logger), nil
}

// TriggerSearchReindexIfNeeded rebuilds an empty index in the background
// when the store already holds books.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	searchService := do.MustInvoke[*service.SearchService](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	if docCount, _ := indexHandle.Count(); docCount > 0 {
		return
	}

	ctx := context.Background()
	hasBooks := false
	for _, err := range storeHandle.ScanBooks(ctx) {
		if err != nil {
			log.Warn("Could not check for books to index", "error", err)
			return
		}
		hasBooks = true
		break
	}
	if !hasBooks {
		return
	}

	log.Info("Search index is empty but books exist, triggering initial reindex")

	go func() {
		n, err := searchService.Reindex(context.Background())
		if err != nil {
			log.Error("Initial search reindex failed", "error", err, "indexed", n)
			return
		}
		log.Info("Initial search reindex completed", "documents", n)
	}()
}
