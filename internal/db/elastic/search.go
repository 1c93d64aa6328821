package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/olivere/elastic/v7"
	"github.com/tidwall/gjson"

	"github.com/kailas-cloud/appsearch/internal/db"
	"github.com/kailas-cloud/appsearch/internal/search/dsl"
	"github.com/kailas-cloud/appsearch/internal/search/engine"
)

// Search runs a compiled query against index. Indexes are typeless, so
// docType is not sent.
func (s *Store) Search(ctx context.Context, q *dsl.Compiled, index, _ string) (*engine.Response, error) {
	src, err := Source(q)
	if err != nil {
		return nil, engine.Classify(db.OpSearch, index, http.StatusBadRequest, err)
	}

	res, err := s.client.Search(index).SearchSource(src).Do(ctx)
	if err != nil {
		return nil, classify(db.OpSearch, index, err)
	}
	return convert(res, q)
}

func convert(res *elastic.SearchResult, q *dsl.Compiled) (*engine.Response, error) {
	out := &engine.Response{
		Took:  time.Duration(res.TookInMillis) * time.Millisecond,
		Total: res.TotalHits(),
	}

	if res.Hits != nil {
		out.Hits = make([]engine.Hit, 0, len(res.Hits.Hits))
		for _, h := range res.Hits.Hits {
			out.Hits = append(out.Hits, engine.Hit{
				ID:     h.Id,
				Source: h.Source,
				Fields: project(h.Source, q.Fields),
			})
		}
	}

	if len(q.Facets) > 0 {
		out.Facets = make(map[string]json.RawMessage, len(q.Facets))
		for name, f := range q.Facets {
			raw, err := legacyFacet(res.Aggregations, name, f)
			if err != nil {
				return nil, fmt.Errorf("facet %s: %w", name, err)
			}
			if raw != nil {
				out.Facets[name] = raw
			}
		}
	}
	return out, nil
}

// project reads the requested fields from the stored document. Dotted names
// address nested values.
func project(source json.RawMessage, fields []string) map[string]any {
	if fields == nil || len(source) == 0 {
		return nil
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v := gjson.GetBytes(source, f); v.Exists() {
			out[f] = v.Value()
		}
	}
	return out
}

type termEntry struct {
	Term  any   `json:"term"`
	Count int64 `json:"count"`
}

type rangeEntry struct {
	From  *float64 `json:"from,omitempty"`
	To    *float64 `json:"to,omitempty"`
	Count int64    `json:"count"`
}

// legacyFacet renders an aggregation in the facet format callers consume.
// It returns nil when the engine did not report the aggregation.
func legacyFacet(aggs elastic.Aggregations, name string, f dsl.Facet) (json.RawMessage, error) {
	switch f.(type) {
	case *dsl.TermsFacet:
		items, ok := aggs.Terms(name)
		if !ok || items == nil {
			return nil, nil
		}
		terms := make([]termEntry, 0, len(items.Buckets))
		var total int64
		for _, b := range items.Buckets {
			terms = append(terms, termEntry{Term: b.Key, Count: b.DocCount})
			total += b.DocCount
		}
		return json.Marshal(map[string]any{
			"_type": dsl.FacetTypeTerms,
			"terms": terms,
			"total": total + items.SumOfOtherDocCount,
			"other": items.SumOfOtherDocCount,
		})
	case *dsl.RangeFacet:
		items, ok := aggs.Range(name)
		if !ok || items == nil {
			return nil, nil
		}
		ranges := make([]rangeEntry, 0, len(items.Buckets))
		for _, b := range items.Buckets {
			ranges = append(ranges, rangeEntry{From: b.From, To: b.To, Count: b.DocCount})
		}
		return json.Marshal(map[string]any{
			"_type":  dsl.FacetTypeRange,
			"ranges": ranges,
		})
	default:
		return nil, fmt.Errorf("%w: unsupported facet %T", dsl.ErrInvalidClause, f)
	}
}
