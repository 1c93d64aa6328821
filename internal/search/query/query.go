// Package query is the immutable, chainable search query builder.
//
// Every chain method returns a new SearchQuery holding a copy of the prior
// steps plus one more; the receiver is never modified, so a query value can
// be shared between call sites and goroutines. Terminal methods compile the
// steps, execute once and memoize the result on that value only.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/kailas-cloud/appsearch/internal/search/dsl"
	"github.com/kailas-cloud/appsearch/internal/search/engine"
	"github.com/kailas-cloud/appsearch/internal/search/result"
)

// Executor runs compiled queries.
type Executor interface {
	Execute(ctx context.Context, q *dsl.Compiled, index, docType string) (*engine.Response, error)
}

// Backend is what terminal operations need to run.
type Backend struct {
	Executor Executor
	Fetcher  result.Fetcher
	Logger   *zap.Logger
}

// idField is always part of a projection.
const idField = "id"

// Step kinds, named after the chain methods.
const (
	actionValues     = "values"
	actionValuesDict = "values_dict"
	actionOrderBy    = "order_by"
	actionQuery      = "query"
	actionFilter     = "filter"
	actionFacet      = "facet"
)

type step struct {
	action  string
	fields  []string
	clauses []dsl.Clause
	facets  map[string]dsl.Facet
}

type memo struct {
	mu  sync.Mutex
	res *result.Result
}

// SearchQuery is an immutable query over one entity type.
type SearchQuery struct {
	entityType string
	index      string
	backend    *Backend
	steps      []step
	start      int
	stop       *int
	err        error
	memo       *memo
}

// New starts a query over entityType stored in index.
func New(entityType, index string, backend *Backend) SearchQuery {
	return SearchQuery{
		entityType: entityType,
		index:      index,
		backend:    backend,
		memo:       &memo{},
	}
}

// EntityType returns the queried entity type.
func (q SearchQuery) EntityType() string { return q.entityType }

// Index returns the target index.
func (q SearchQuery) Index() string { return q.index }

// Err returns the first validation error of the chain, if any.
func (q SearchQuery) Err() error { return q.err }

func (q SearchQuery) clone() SearchQuery {
	n := q
	n.steps = append([]step(nil), q.steps...)
	if q.stop != nil {
		stop := *q.stop
		n.stop = &stop
	}
	n.memo = &memo{}
	return n
}

func (q SearchQuery) with(s step) SearchQuery {
	n := q.clone()
	if n.err == nil {
		n.steps = append(n.steps, s)
	}
	return n
}

func (q SearchQuery) fail(err error) SearchQuery {
	n := q.clone()
	if n.err == nil {
		n.err = err
	}
	return n
}

// Values switches to tuple results and adds fields to the projection.
func (q SearchQuery) Values(fields ...string) SearchQuery {
	return q.with(step{action: actionValues, fields: append([]string(nil), fields...)})
}

// ValuesDict switches to dict results and adds fields to the projection.
// Called with no fields it drops the projection: hits carry the full document.
func (q SearchQuery) ValuesDict(fields ...string) SearchQuery {
	return q.with(step{action: actionValuesDict, fields: append([]string(nil), fields...)})
}

// OrderBy appends sort keys; a leading "-" sorts descending.
func (q SearchQuery) OrderBy(fields ...string) SearchQuery {
	for _, f := range fields {
		if f == "" || f == "-" {
			return q.fail(invalid(actionOrderBy, f, "empty sort field"))
		}
	}
	return q.with(step{action: actionOrderBy, fields: append([]string(nil), fields...)})
}

// Query adds relevance-scored clauses.
func (q SearchQuery) Query(c Criteria) SearchQuery {
	clauses, err := queryClauses(c)
	if err != nil {
		return q.fail(err)
	}
	return q.with(step{action: actionQuery, clauses: clauses})
}

// Filter adds unscored clauses.
func (q SearchQuery) Filter(c Criteria) SearchQuery {
	clauses, err := filterClauses(c)
	if err != nil {
		return q.fail(err)
	}
	return q.with(step{action: actionFilter, clauses: clauses})
}

// Where adds typed filter clauses.
func (q SearchQuery) Where(clauses ...dsl.Clause) SearchQuery {
	for _, c := range clauses {
		if c == nil {
			return q.fail(invalid(actionFilter, "", "nil clause"))
		}
	}
	return q.with(step{action: actionFilter, clauses: append([]dsl.Clause(nil), clauses...)})
}

// Must adds typed query clauses.
func (q SearchQuery) Must(clauses ...dsl.Clause) SearchQuery {
	for _, c := range clauses {
		if c == nil {
			return q.fail(invalid(actionQuery, "", "nil clause"))
		}
	}
	return q.with(step{action: actionQuery, clauses: append([]dsl.Clause(nil), clauses...)})
}

// Facet merges facet definitions; the last definition of a name wins.
func (q SearchQuery) Facet(facets map[string]dsl.Facet) SearchQuery {
	cp := make(map[string]dsl.Facet, len(facets))
	for name, f := range facets {
		if f == nil {
			return q.fail(invalid(actionFacet, name, "nil facet"))
		}
		cp[name] = f
	}
	return q.with(step{action: actionFacet, facets: cp})
}

// Extra applies chain actions by name: values, values_dict, order_by,
// query, filter and facet. Any other key is a validation error.
func (q SearchQuery) Extra(actions map[string]any) SearchQuery {
	keys := make([]string, 0, len(actions))
	for k := range actions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := q
	for _, k := range keys {
		v := actions[k]
		switch k {
		case actionValues, actionValuesDict, actionOrderBy:
			fields, ok := stringList(v)
			if !ok {
				return q.fail(invalid("extra", k, "expected a list of fields, got %T", v))
			}
			switch k {
			case actionValues:
				n = n.Values(fields...)
			case actionValuesDict:
				n = n.ValuesDict(fields...)
			default:
				n = n.OrderBy(fields...)
			}
		case actionQuery, actionFilter:
			c, ok := criteria(v)
			if !ok {
				return q.fail(invalid("extra", k, "expected criteria, got %T", v))
			}
			if k == actionQuery {
				n = n.Query(c)
			} else {
				n = n.Filter(c)
			}
		case actionFacet:
			f, ok := v.(map[string]dsl.Facet)
			if !ok {
				return q.fail(invalid("extra", k, "expected facets, got %T", v))
			}
			n = n.Facet(f)
		default:
			return q.fail(invalid("extra", k, "unknown action"))
		}
	}
	if len(keys) == 0 {
		n = q.clone()
	}
	return n
}

// Slice sets the half-open window [start, stop).
func (q SearchQuery) Slice(start, stop int) SearchQuery {
	if start < 0 || stop < start {
		return q.fail(invalid("slice", "", "invalid window [%d:%d]", start, stop))
	}
	n := q.clone()
	n.start = start
	n.stop = &stop
	return n
}

// From sets an open-ended window starting at start.
func (q SearchQuery) From(start int) SearchQuery {
	if start < 0 {
		return q.fail(invalid("slice", "", "negative start %d", start))
	}
	n := q.clone()
	n.start = start
	n.stop = nil
	return n
}

// plan is the compiled query plus how to materialize its hits.
type plan struct {
	compiled *dsl.Compiled
	shape    result.Shape
	fields   []string
}

func (q SearchQuery) plan() (*plan, error) {
	if q.err != nil {
		return nil, q.err
	}

	var filters, queries []dsl.Clause
	var sorts []dsl.SortField
	var facets map[string]dsl.Facet
	fields := []string{idField}
	shape := result.ShapeEntity

	for _, s := range q.steps {
		switch s.action {
		case actionOrderBy:
			for _, f := range s.fields {
				sorts = append(sorts, dsl.ParseSort(f))
			}
		case actionValues:
			fields = append(fields, s.fields...)
			shape = result.ShapeTuple
		case actionValuesDict:
			if len(s.fields) == 0 {
				fields = []string{}
			} else {
				fields = append(fields, s.fields...)
			}
			shape = result.ShapeDict
		case actionQuery:
			queries = append(queries, s.clauses...)
		case actionFilter:
			filters = append(filters, s.clauses...)
		case actionFacet:
			if facets == nil {
				facets = make(map[string]dsl.Facet, len(s.facets))
			}
			for name, f := range s.facets {
				facets[name] = f
			}
		}
	}

	c := &dsl.Compiled{Facets: facets, Sort: sorts, From: q.start}
	switch len(filters) {
	case 0:
	case 1:
		c.Filter = filters[0]
	default:
		c.Filter = &dsl.And{Clauses: filters}
	}
	switch len(queries) {
	case 0:
	case 1:
		c.Query = queries[0]
	default:
		c.Query = &dsl.BoolMust{Clauses: queries}
	}
	if len(fields) > 0 {
		if !lo.Contains(fields, idField) {
			fields = append(fields, idField)
		}
		c.Fields = fields
	}
	if q.stop != nil {
		size := *q.stop - q.start
		c.Size = &size
	}

	if _, err := c.Document(); err != nil {
		return nil, &ValidationError{Op: "compile", Reason: err.Error()}
	}
	return &plan{compiled: c, shape: shape, fields: c.Fields}, nil
}

// Compile returns the query document this value would execute.
func (q SearchQuery) Compile() (*dsl.Compiled, error) {
	p, err := q.plan()
	if err != nil {
		return nil, err
	}
	return p.compiled, nil
}

// Raw executes the query without materializing hits.
func (q SearchQuery) Raw(ctx context.Context) (*engine.Response, error) {
	p, err := q.plan()
	if err != nil {
		return nil, err
	}
	return q.execute(ctx, p)
}

func (q SearchQuery) execute(ctx context.Context, p *plan) (*engine.Response, error) {
	if q.backend == nil || q.backend.Executor == nil {
		return nil, errors.New("query: no executor configured")
	}
	return q.backend.Executor.Execute(ctx, p.compiled, q.index, q.entityType)
}

// Results executes the query once per value and returns the materialized page.
func (q SearchQuery) Results(ctx context.Context) (*result.Result, error) {
	if q.memo == nil {
		q.memo = &memo{}
	}
	q.memo.mu.Lock()
	defer q.memo.mu.Unlock()
	if q.memo.res != nil {
		return q.memo.res, nil
	}

	p, err := q.plan()
	if err != nil {
		return nil, err
	}
	resp, err := q.execute(ctx, p)
	if err != nil {
		return nil, err
	}

	var fetcher result.Fetcher
	var log *zap.Logger
	if q.backend != nil {
		fetcher, log = q.backend.Fetcher, q.backend.Logger
	}
	res, err := result.Materialize(ctx, resp, p.shape, p.fields, fetcher, q.entityType, log)
	if err != nil {
		return nil, fmt.Errorf("materialize %s: %w", q.entityType, err)
	}
	q.memo.res = res
	return res, nil
}

// All returns the materialized items: result.Entity, map[string]any or []any
// depending on the shape.
func (q SearchQuery) All(ctx context.Context) ([]any, error) {
	res, err := q.Results(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]any, res.Len())
	for i := range out {
		out[i] = res.Item(i)
	}
	return out, nil
}

// Len returns the number of materialized items.
func (q SearchQuery) Len(ctx context.Context) (int, error) {
	res, err := q.Results(ctx)
	if err != nil {
		return 0, err
	}
	return res.Len(), nil
}

// At executes the window [k, k+1) and returns its single item.
func (q SearchQuery) At(ctx context.Context, k int) (any, error) {
	if k < 0 {
		return nil, ErrIndexOutOfRange
	}
	res, err := q.Slice(k, k+1).Results(ctx)
	if err != nil {
		return nil, err
	}
	if res.Len() == 0 {
		return nil, ErrIndexOutOfRange
	}
	return res.Item(0), nil
}

// Count returns the total number of matches. A memoized result answers
// directly; otherwise a zero-size query reads the total without hits.
func (q SearchQuery) Count(ctx context.Context) (int64, error) {
	if q.memo != nil {
		q.memo.mu.Lock()
		res := q.memo.res
		q.memo.mu.Unlock()
		if res != nil {
			return res.Total, nil
		}
	}
	resp, err := q.Slice(0, 0).Raw(ctx)
	if err != nil {
		return 0, err
	}
	return resp.Total, nil
}

// RawFacets returns the facet documents as returned by the engine.
func (q SearchQuery) RawFacets(ctx context.Context) (map[string]json.RawMessage, error) {
	res, err := q.Results(ctx)
	if err != nil {
		return nil, err
	}
	if res.RawFacets == nil {
		return map[string]json.RawMessage{}, nil
	}
	return res.RawFacets, nil
}

// Facets returns the buckets of terms and range facets.
func (q SearchQuery) Facets(ctx context.Context) (map[string][]result.Bucket, error) {
	raw, err := q.RawFacets(ctx)
	if err != nil {
		return nil, err
	}
	return result.ProcessFacets(raw), nil
}

func stringList(v any) ([]string, bool) {
	switch vals := v.(type) {
	case []string:
		return vals, true
	case string:
		return []string{vals}, true
	case nil:
		return nil, true
	}
	items, ok := toSlice(v)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func criteria(v any) (Criteria, bool) {
	switch c := v.(type) {
	case Criteria:
		return c, true
	case map[string]any:
		return Criteria(c), true
	}
	return nil, false
}
