// Package result turns raw search hits into one of three result shapes.
package result

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/kailas-cloud/appsearch/internal/metrics"
	"github.com/kailas-cloud/appsearch/internal/search/engine"
)

// Shape selects how hits are materialized.
type Shape int

// Result shapes.
const (
	// ShapeEntity refetches full entities from the system of record.
	ShapeEntity Shape = iota
	// ShapeDict returns field maps.
	ShapeDict
	// ShapeTuple returns positional field values.
	ShapeTuple
)

func (s Shape) String() string {
	switch s {
	case ShapeEntity:
		return "entity"
	case ShapeDict:
		return "dict"
	case ShapeTuple:
		return "tuple"
	}
	return "unknown"
}

// Entity is anything search hits can be resolved to.
type Entity interface {
	SearchID() int64
}

// Fetcher loads entities by id from the system of record. Missing ids are
// left out of the returned slice; order is not significant.
type Fetcher interface {
	FetchByIDs(ctx context.Context, entityType string, ids []int64) ([]Entity, error)
}

// Result is one materialized page of hits.
type Result struct {
	Took      time.Duration
	Total     int64
	RawFacets map[string]json.RawMessage
	Shape     Shape

	Entities []Entity
	Dicts    []map[string]any
	Tuples   [][]any
}

// Len returns the number of materialized items.
func (r *Result) Len() int {
	switch r.Shape {
	case ShapeDict:
		return len(r.Dicts)
	case ShapeTuple:
		return len(r.Tuples)
	default:
		return len(r.Entities)
	}
}

// Item returns the i-th item in its shape-specific form.
func (r *Result) Item(i int) any {
	switch r.Shape {
	case ShapeDict:
		return r.Dicts[i]
	case ShapeTuple:
		return r.Tuples[i]
	default:
		return r.Entities[i]
	}
}

// Materialize builds a result of the given shape from resp. fields is the
// projection the query requested; empty means the full stored document.
// Entity hits missing from the system of record are dropped and logged.
func Materialize(
	ctx context.Context,
	resp *engine.Response,
	shape Shape,
	fields []string,
	fetcher Fetcher,
	entityType string,
	log *zap.Logger,
) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Result{
		Took:      resp.Took,
		Total:     resp.Total,
		RawFacets: resp.Facets,
		Shape:     shape,
	}

	var err error
	switch shape {
	case ShapeDict:
		r.Dicts, err = dicts(resp.Hits, fields)
	case ShapeTuple:
		r.Tuples, err = tuples(resp.Hits, fields)
	default:
		r.Entities, err = entities(ctx, resp.Hits, fetcher, entityType, log)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func dicts(hits []engine.Hit, fields []string) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(hits))
	for i := range hits {
		if len(fields) > 0 {
			out = append(out, hits[i].Fields)
			continue
		}
		src, err := decodeSource(&hits[i])
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func tuples(hits []engine.Hit, fields []string) ([][]any, error) {
	out := make([][]any, 0, len(hits))
	for i := range hits {
		if len(fields) > 0 {
			row := make([]any, len(fields))
			for j, f := range fields {
				row[j] = hits[i].Fields[f]
			}
			out = append(out, row)
			continue
		}
		src, err := decodeSource(&hits[i])
		if err != nil {
			return nil, err
		}
		keys := lo.Keys(src)
		sort.Strings(keys)
		out = append(out, lo.Map(keys, func(k string, _ int) any { return src[k] }))
	}
	return out, nil
}

func entities(
	ctx context.Context,
	hits []engine.Hit,
	fetcher Fetcher,
	entityType string,
	log *zap.Logger,
) ([]Entity, error) {
	ids := make([]int64, 0, len(hits))
	for i := range hits {
		id, err := strconv.ParseInt(hits[i].ID, 10, 64)
		if err != nil {
			log.Warn("dropping hit with non-numeric id",
				zap.String("entity_type", entityType),
				zap.String("id", hits[i].ID),
			)
			metrics.SearchStaleHitsTotal.WithLabelValues(entityType).Inc()
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return []Entity{}, nil
	}
	if fetcher == nil {
		return nil, fmt.Errorf("materialize %s: no entity fetcher", entityType)
	}

	found, err := fetcher.FetchByIDs(ctx, entityType, lo.Uniq(ids))
	if err != nil {
		return nil, fmt.Errorf("fetch %s by ids: %w", entityType, err)
	}
	byID := lo.KeyBy(found, func(e Entity) int64 { return e.SearchID() })

	out := make([]Entity, 0, len(ids))
	for _, id := range ids {
		e, ok := byID[id]
		if !ok {
			log.Warn("dropping stale search hit",
				zap.String("entity_type", entityType),
				zap.Int64("id", id),
			)
			metrics.SearchStaleHitsTotal.WithLabelValues(entityType).Inc()
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeSource(h *engine.Hit) (map[string]any, error) {
	src := map[string]any{}
	if len(h.Source) == 0 {
		return src, nil
	}
	if err := json.Unmarshal(h.Source, &src); err != nil {
		return nil, fmt.Errorf("decode source of hit %s: %w", h.ID, err)
	}
	return src, nil
}
