package query

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/appsearch/internal/search/result"
)

// Searcher hands out queries bound to the configured indexes.
type Searcher struct {
	backend *Backend
	indexes map[string]string
}

// NewSearcher creates a searcher. indexes maps entity types to index names;
// an unmapped type is queried in an index of the same name.
func NewSearcher(exec Executor, fetcher result.Fetcher, indexes map[string]string, logger *zap.Logger) *Searcher {
	cp := make(map[string]string, len(indexes))
	for k, v := range indexes {
		cp[k] = v
	}
	return &Searcher{
		backend: &Backend{Executor: exec, Fetcher: fetcher, Logger: logger},
		indexes: cp,
	}
}

// IndexFor resolves the index of an entity type.
func (s *Searcher) IndexFor(entityType string) string {
	if idx, ok := s.indexes[entityType]; ok {
		return idx
	}
	return entityType
}

// Query starts a query over entityType.
func (s *Searcher) Query(entityType string) SearchQuery {
	return New(entityType, s.IndexFor(entityType), s.backend)
}
