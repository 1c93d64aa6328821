package elastic

import (
	"context"
	"fmt"

	"github.com/olivere/elastic/v7"

	"github.com/kailas-cloud/appsearch/internal/db"
)

const errAlreadyExists = "resource_already_exists_exception"

// CreateIndex creates an index with the definition's settings and mapping.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid index definition: %w", err)
	}

	_, err := s.client.CreateIndex(def.Name).BodyJson(def.Body()).Do(ctx)
	if err != nil {
		if errorType(err) == errAlreadyExists {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: classify(db.OpCreateIndex, def.Name, err)}
	}
	return nil
}

// DeleteIndex drops an index.
func (s *Store) DeleteIndex(ctx context.Context, name string) error {
	_, err := s.client.DeleteIndex(name).Do(ctx)
	if err != nil {
		if elastic.IsNotFound(err) {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDeleteIndex, Err: classify(db.OpDeleteIndex, name, err)}
	}
	return nil
}

// IndexExists reports whether an index exists.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	ok, err := s.client.IndexExists(name).Do(ctx)
	if err != nil {
		return false, &db.Error{Op: db.OpIndexExists, Err: classify(db.OpIndexExists, name, err)}
	}
	return ok, nil
}

// BulkIndex writes docs into index in one request. Per-document rejections
// are reported in the result, not as an error.
func (s *Store) BulkIndex(ctx context.Context, index string, docs []db.IndexDoc) (db.BulkResult, error) {
	if len(docs) == 0 {
		return db.BulkResult{}, nil
	}

	bulk := s.client.Bulk().Index(index)
	for _, d := range docs {
		bulk.Add(elastic.NewBulkIndexRequest().Id(d.ID).Doc(d.Body))
	}

	resp, err := bulk.Do(ctx)
	if err != nil {
		return db.BulkResult{}, &db.Error{Op: db.OpBulk, Err: classify(db.OpBulk, index, err)}
	}

	failed := resp.Failed()
	out := db.BulkResult{Indexed: len(docs) - len(failed)}
	for _, item := range failed {
		reason := "rejected"
		if item.Error != nil {
			reason = item.Error.Reason
		}
		out.Failed = append(out.Failed, db.BulkFailure{ID: item.Id, Reason: reason})
	}
	return out, nil
}
