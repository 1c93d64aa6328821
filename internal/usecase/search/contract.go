package search

import (
	"context"

	"github.com/kailas-cloud/appsearch/internal/domain/collection"
	"github.com/kailas-cloud/appsearch/internal/search/query"
)

// QueryStarter hands out queries bound to the configured indexes.
type QueryStarter interface {
	Query(entityType string) query.SearchQuery
}

// CollectionReader reads collections for existence checks.
type CollectionReader interface {
	GetCollection(ctx context.Context, id int64) (*collection.Collection, error)
}
