package providers

import (
	"github.com/samber/do/v2"

	"github.com/quadroapp/quadro-server/internal/config"
	"github.com/quadroapp/quadro-server/internal/logger"
	"github.com/quadroapp/quadro-server/internal/search"
	"github.com/quadroapp/quadro-server/internal/service"
)

// SearchIndexHandle wraps the bleve index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the full-text search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Search index ready")

	return &SearchIndexHandle{Index: index}, nil
}

// SearchIndexerHandle wraps the async indexer with shutdown capability.
type SearchIndexerHandle struct {
	*search.Indexer
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexerHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideSearchIndexer provides the async indexer and hooks it into
// the store's write path.
func ProvideSearchIndexer(i do.Injector) (*SearchIndexerHandle, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	indexer := search.NewIndexer(indexHandle.Index, storeHandle.Store, log.Logger)
	indexer.Start()
	storeHandle.SetSearchIndexer(indexer)

	log.Info("Search indexer started")

	return &SearchIndexerHandle{Indexer: indexer}, nil
}

// ProvideSearchService provides the access-fenced query service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(indexHandle.Index, storeHandle.Store, log.Logger), nil
}
