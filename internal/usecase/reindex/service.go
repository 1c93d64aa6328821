// Package reindex rebuilds search indexes from the system of record.
package reindex

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/appsearch/internal/db"
	"github.com/kailas-cloud/appsearch/internal/domain/app"
	"github.com/kailas-cloud/appsearch/internal/domain/catalog"
	"github.com/kailas-cloud/appsearch/internal/domain/collection"
	"github.com/kailas-cloud/appsearch/internal/metrics"
	"github.com/kailas-cloud/appsearch/internal/search/analysis"
	"github.com/kailas-cloud/appsearch/internal/search/extract"
	"github.com/kailas-cloud/appsearch/internal/search/mapping"
	"github.com/kailas-cloud/appsearch/internal/search/result"
)

// EntityTypes are the indexed entity types, in reindex order.
var EntityTypes = []string{catalog.EntityWebapp, catalog.EntityCollection}

// Config sizes the reindex pipeline and the indexes it creates.
type Config struct {
	// Indexes maps entity types to index names.
	Indexes   map[string]string
	Shards    int
	Replicas  int
	BatchSize int
	Workers   int
}

// Report summarizes one reindex run.
type Report struct {
	EntityType string
	Index      string
	Indexed    int
	// Skipped counts ids whose record vanished between listing and fetching.
	Skipped int
	Failed  []db.BulkFailure
}

// Service extracts entities and bulk-indexes them.
type Service struct {
	src       Source
	idx       Indexer
	extractor *extract.Extractor
	analyzers *analysis.Table
	cfg       Config
	logger    *zap.Logger
}

// New creates a reindex service.
func New(src Source, idx Indexer, analyzers *analysis.Table, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Service{
		src:       src,
		idx:       idx,
		extractor: extract.New(analyzers, logger),
		analyzers: analyzers,
		cfg:       cfg,
		logger:    logger,
	}
}

// IndexFor returns the index of an entity type.
func (s *Service) IndexFor(entityType string) string {
	if name, ok := s.cfg.Indexes[entityType]; ok {
		return name
	}
	return entityType
}

// Definition builds the index definition of an entity type.
func (s *Service) Definition(entityType string) (*db.IndexDefinition, error) {
	opts := mapping.Options{Name: s.IndexFor(entityType), Shards: s.cfg.Shards, Replicas: s.cfg.Replicas}
	switch entityType {
	case catalog.EntityWebapp:
		return mapping.Apps(s.analyzers, opts)
	case catalog.EntityCollection:
		return mapping.Collections(opts)
	default:
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}
}

// EnsureIndexes creates the indexes that do not exist yet and returns their names.
func (s *Service) EnsureIndexes(ctx context.Context) ([]string, error) {
	var created []string
	for _, et := range EntityTypes {
		def, err := s.Definition(et)
		if err != nil {
			return created, fmt.Errorf("build %s mapping: %w", et, err)
		}
		exists, err := s.idx.IndexExists(ctx, def.Name)
		if err != nil {
			return created, fmt.Errorf("check index %s: %w", def.Name, err)
		}
		if exists {
			continue
		}
		if err := s.idx.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
			return created, fmt.Errorf("create index %s: %w", def.Name, err)
		}
		s.logger.Info("index created", zap.String("index", def.Name))
		created = append(created, def.Name)
	}
	return created, nil
}

// Reindex extracts every record of entityType and writes it to its index.
// Batches run in parallel up to the configured worker count; the first
// failing batch cancels the rest.
func (s *Service) Reindex(ctx context.Context, entityType string) (Report, error) {
	index := s.IndexFor(entityType)
	report := Report{EntityType: entityType, Index: index}

	ids, err := s.src.ListIDs(ctx, entityType)
	if err != nil {
		return report, fmt.Errorf("list %s ids: %w", entityType, err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for _, batch := range lo.Chunk(ids, s.cfg.BatchSize) {
		batch := batch
		g.Go(func() error {
			res, skipped, err := s.indexBatch(gctx, entityType, index, batch)
			if err != nil {
				return err
			}
			mu.Lock()
			report.Indexed += res.Indexed
			report.Skipped += skipped
			report.Failed = append(report.Failed, res.Failed...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	s.logger.Info("reindex finished",
		zap.String("entity_type", entityType),
		zap.String("index", index),
		zap.Int("indexed", report.Indexed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

func (s *Service) indexBatch(ctx context.Context, entityType, index string, ids []int64) (db.BulkResult, int, error) {
	entities, err := s.src.FetchByIDs(ctx, entityType, ids)
	if err != nil {
		return db.BulkResult{}, 0, fmt.Errorf("fetch %s batch: %w", entityType, err)
	}

	docs := make([]db.IndexDoc, 0, len(entities))
	for _, e := range entities {
		doc, err := s.extract(e)
		if err != nil {
			return db.BulkResult{}, 0, err
		}
		docs = append(docs, db.IndexDoc{ID: doc.ID(), Body: doc})
	}

	res, err := s.idx.BulkIndex(ctx, index, docs)
	if err != nil {
		return db.BulkResult{}, 0, fmt.Errorf("bulk index %s: %w", index, err)
	}
	metrics.IndexDocumentsTotal.WithLabelValues(index, "indexed").Add(float64(res.Indexed))
	metrics.IndexDocumentsTotal.WithLabelValues(index, "failed").Add(float64(len(res.Failed)))
	for _, f := range res.Failed {
		s.logger.Warn("document rejected", zap.String("index", index), zap.String("id", f.ID), zap.String("reason", f.Reason))
	}
	return res, len(ids) - len(entities), nil
}

func (s *Service) extract(e result.Entity) (mapping.Document, error) {
	switch v := e.(type) {
	case *app.App:
		return s.extractor.App(v), nil
	case *collection.Collection:
		return s.extractor.Collection(v), nil
	default:
		return nil, fmt.Errorf("cannot index %T", e)
	}
}
