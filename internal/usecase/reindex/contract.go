package reindex

import (
	"context"

	"github.com/kailas-cloud/appsearch/internal/db"
	"github.com/kailas-cloud/appsearch/internal/search/result"
)

// Source reads entity records from the system of record.
type Source interface {
	ListIDs(ctx context.Context, entityType string) ([]int64, error)
	FetchByIDs(ctx context.Context, entityType string, ids []int64) ([]result.Entity, error)
}

// Indexer manages indexes and writes documents into them.
type Indexer interface {
	db.IndexManager
	db.BulkIndexer
}
