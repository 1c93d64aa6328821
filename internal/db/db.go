package db

import (
	"context"
	"time"
)

// Store is the system-of-record facade combining the sub-interfaces.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides key-value operations over serialized entities.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// MGet returns one entry per key, nil where the key is missing.
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// IndexManager provides search index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DeleteIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// IndexDoc is one document of a bulk indexing request.
type IndexDoc struct {
	ID   string
	Body any
}

// BulkFailure reports a document the engine rejected.
type BulkFailure struct {
	ID     string
	Reason string
}

// BulkResult summarizes a bulk indexing request.
type BulkResult struct {
	Indexed int
	Failed  []BulkFailure
}

// BulkIndexer writes documents into a search index.
type BulkIndexer interface {
	BulkIndex(ctx context.Context, index string, docs []IndexDoc) (BulkResult, error)
}
