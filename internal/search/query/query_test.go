package query

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/appsearch/internal/domain"
	"github.com/kailas-cloud/appsearch/internal/search/dsl"
	"github.com/kailas-cloud/appsearch/internal/search/engine"
	"github.com/kailas-cloud/appsearch/internal/search/result"
)

type fakeExecutor struct {
	mu       sync.Mutex
	resp     *engine.Response
	err      error
	compiled []*dsl.Compiled
	index    string
	docType  string
}

func (f *fakeExecutor) Execute(_ context.Context, q *dsl.Compiled, index, docType string) (*engine.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.compiled = append(f.compiled, q)
	f.index, f.docType = index, docType
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeExecutor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.compiled)
}

type entity struct{ id int64 }

func (e *entity) SearchID() int64 { return e.id }

type fakeFetcher struct{ known map[int64]bool }

func (f *fakeFetcher) FetchByIDs(_ context.Context, _ string, ids []int64) ([]result.Entity, error) {
	var out []result.Entity
	for _, id := range ids {
		if f.known[id] {
			out = append(out, &entity{id: id})
		}
	}
	return out, nil
}

func response(ids ...string) *engine.Response {
	resp := &engine.Response{Total: 42, Facets: map[string]json.RawMessage{
		"tags": json.RawMessage(`{"_type":"terms","terms":[{"term":"css","count":3}]}`),
		"odd":  json.RawMessage(`{"_type":"statistical","count":3}`),
	}}
	for _, id := range ids {
		resp.Hits = append(resp.Hits, engine.Hit{
			ID:     id,
			Source: json.RawMessage(`{"id":` + id + `}`),
			Fields: map[string]any{"id": id, "slug": "s" + id},
		})
	}
	return resp
}

func newQuery(exec *fakeExecutor) SearchQuery {
	return New("webapp", "idx", &Backend{Executor: exec, Fetcher: &fakeFetcher{known: map[int64]bool{1: true, 3: true}}})
}

func compileJSON(t *testing.T, q SearchQuery) string {
	t.Helper()
	c, err := q.Compile()
	require.NoError(t, err)
	b, err := c.JSON()
	require.NoError(t, err)
	return string(b)
}

func TestCompile_Defaults(t *testing.T) {
	q := newQuery(&fakeExecutor{})
	assert.JSONEq(t, `{"fields":["id"],"from":0}`, compileJSON(t, q))
}

func TestCompile_EndToEndScenario(t *testing.T) {
	q := newQuery(&fakeExecutor{}).
		Filter(Criteria{"status__in": []int{4, 5}, "is_disabled": false}).
		OrderBy("-weekly_downloads").
		Slice(0, 20)

	assert.JSONEq(t, `{
		"filter": {"and": [{"term": {"is_disabled": false}}, {"in": {"status": [4, 5]}}]},
		"sort": [{"weekly_downloads": "desc"}],
		"from": 0,
		"size": 20,
		"fields": ["id"]
	}`, compileJSON(t, q))
}

func TestImmutability(t *testing.T) {
	base := newQuery(&fakeExecutor{}).Filter(Criteria{"a": 1})
	before := compileJSON(t, base)

	derived := base.Filter(Criteria{"b": 2}).OrderBy("name_sort").Values("slug").Slice(5, 10)
	_ = base.Extra(map[string]any{"filter": Criteria{"c": 3}})

	assert.Equal(t, before, compileJSON(t, base))
	assert.NotEqual(t, before, compileJSON(t, derived))
	assert.JSONEq(t, `{"filter":{"term":{"a":1}},"fields":["id"],"from":0}`, before)
}

func TestFilter_SingleUnwrapped(t *testing.T) {
	q := newQuery(&fakeExecutor{}).Filter(Criteria{"a": 1})
	c, err := q.Compile()
	require.NoError(t, err)
	assert.Equal(t, &dsl.Term{Field: "a", Value: 1}, c.Filter)
}

func TestFilter_TwoCallsCombinedWithAnd(t *testing.T) {
	q := newQuery(&fakeExecutor{}).Filter(Criteria{"a": 1}).Filter(Criteria{"b": 2})
	c, err := q.Compile()
	require.NoError(t, err)
	assert.Equal(t, &dsl.And{Clauses: []dsl.Clause{
		&dsl.Term{Field: "a", Value: 1},
		&dsl.Term{Field: "b", Value: 2},
	}}, c.Filter)
}

func TestFilter_OrGroup(t *testing.T) {
	q := newQuery(&fakeExecutor{}).Filter(Criteria{OrKey: Criteria{"a": 1, "b": 2}})
	c, err := q.Compile()
	require.NoError(t, err)
	assert.Equal(t, &dsl.Or{Clauses: []dsl.Clause{
		&dsl.Term{Field: "a", Value: 1},
		&dsl.Term{Field: "b", Value: 2},
	}}, c.Filter)
}

func TestFilter_Operators(t *testing.T) {
	q := newQuery(&fakeExecutor{}).Filter(Criteria{
		"price__gt":               0,
		"appversion.1.max__gte":   int64(10),
		"weekly_downloads__range": []int{1, 5},
		"created__lte":            "2013-01-01",
		"type__in":                []any{1, 2},
	})
	assert.JSONEq(t, `{
		"filter": {"and": [
			{"range": {"appversion.1.max": {"gte": 10}}},
			{"range": {"created": {"lte": "2013-01-01"}}},
			{"range": {"price": {"gt": 0}}},
			{"in": {"type": [1, 2]}},
			{"range": {"weekly_downloads": {"gte": 1, "lte": 5}}}
		]},
		"fields": ["id"],
		"from": 0
	}`, compileJSON(t, q))
}

func TestQuery_Operators(t *testing.T) {
	q := newQuery(&fakeExecutor{}).Query(Criteria{
		"name__text":       map[string]any{"query": "fire bug", "boost": 4, "type": "phrase"},
		"name__fuzzy":      map[string]any{"value": "firbug", "boost": 2, "prefix_length": 4},
		"slug__startswith": "fire",
		"summary__match":   "bug",
		"tags":             "css",
	})
	c, err := q.Compile()
	require.NoError(t, err)
	assert.Equal(t, &dsl.BoolMust{Clauses: []dsl.Clause{
		&dsl.Fuzzy{Field: "name", Value: "firbug", Boost: 2, PrefixLength: 4},
		&dsl.Match{Field: "name", Query: "fire bug", Boost: 4, Phrase: true},
		&dsl.Prefix{Field: "slug", Value: "fire"},
		&dsl.Match{Field: "summary", Query: "bug"},
		&dsl.Term{Field: "tags", Value: "css"},
	}}, c.Query)
}

func TestQuery_OrGroupIsShould(t *testing.T) {
	clauses := []dsl.Clause{&dsl.Match{Field: "name", Query: "x", Boost: 4, Phrase: true}, &dsl.Match{Field: "name", Query: "x", Boost: 3}}
	q := newQuery(&fakeExecutor{}).Query(Criteria{OrKey: clauses})
	c, err := q.Compile()
	require.NoError(t, err)
	assert.Equal(t, &dsl.BoolShould{Clauses: clauses}, c.Query)

	q = newQuery(&fakeExecutor{}).Query(Criteria{OrKey: map[string]any{"name__text": "x", "slug": "x"}})
	c, err = q.Compile()
	require.NoError(t, err)
	assert.Equal(t, &dsl.BoolShould{Clauses: []dsl.Clause{
		&dsl.Match{Field: "name", Query: "x"},
		&dsl.Term{Field: "slug", Value: "x"},
	}}, c.Query)
}

func TestValidation_FailsAtChainTime(t *testing.T) {
	tests := []struct {
		name string
		q    func(SearchQuery) SearchQuery
	}{
		{"unknown filter suffix", func(q SearchQuery) SearchQuery { return q.Filter(Criteria{"a__near": 1}) }},
		{"unknown query suffix", func(q SearchQuery) SearchQuery { return q.Query(Criteria{"a__in": []int{1}}) }},
		{"bad range", func(q SearchQuery) SearchQuery { return q.Filter(Criteria{"a__range": []int{1}}) }},
		{"in without list", func(q SearchQuery) SearchQuery { return q.Filter(Criteria{"a__in": 1}) }},
		{"unknown option", func(q SearchQuery) SearchQuery {
			return q.Query(Criteria{"a__text": map[string]any{"query": "x", "slop": 1}})
		}},
		{"missing field", func(q SearchQuery) SearchQuery { return q.Filter(Criteria{"__in": []int{1}}) }},
		{"unknown extra key", func(q SearchQuery) SearchQuery { return q.Extra(map[string]any{"limit": 5}) }},
		{"bad slice", func(q SearchQuery) SearchQuery { return q.Slice(5, 2) }},
		{"bad or group", func(q SearchQuery) SearchQuery { return q.Filter(Criteria{OrKey: 5}) }},
		{"empty sort", func(q SearchQuery) SearchQuery { return q.OrderBy("-") }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := &fakeExecutor{resp: response()}
			q := tc.q(newQuery(exec))

			var ve *ValidationError
			require.ErrorAs(t, q.Err(), &ve)
			assert.ErrorIs(t, q.Err(), domain.ErrInvalidRequest)

			later := q.Filter(Criteria{"ok": 1}).OrderBy("x")
			assert.Equal(t, q.Err(), later.Err(), "error is sticky")

			_, err := later.Compile()
			assert.ErrorAs(t, err, &ve)
			_, err = later.Results(context.Background())
			assert.ErrorAs(t, err, &ve)
			_, err = later.Count(context.Background())
			assert.ErrorAs(t, err, &ve)
			assert.Equal(t, 0, exec.calls())
		})
	}
}

func TestValidation_InvalidTypedClause(t *testing.T) {
	q := newQuery(&fakeExecutor{}).Where(&dsl.Range{Field: "price"})
	_, err := q.Compile()
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestValues_ShapeAndFields(t *testing.T) {
	q := newQuery(&fakeExecutor{}).Values("a").ValuesDict("b")
	p, err := q.plan()
	require.NoError(t, err)
	assert.Equal(t, result.ShapeDict, p.shape, "last shape wins")
	assert.Equal(t, []string{"id", "a", "b"}, p.compiled.Fields, "fields accumulate")

	p, err = newQuery(&fakeExecutor{}).ValuesDict("b").Values("a").plan()
	require.NoError(t, err)
	assert.Equal(t, result.ShapeTuple, p.shape)
}

func TestValuesDict_EmptyMeansFullDocument(t *testing.T) {
	q := newQuery(&fakeExecutor{})

	c, err := q.ValuesDict().Compile()
	require.NoError(t, err)
	assert.Nil(t, c.Fields)
	assert.JSONEq(t, `{"from":0}`, compileJSON(t, q.ValuesDict()))

	c, err = q.ValuesDict("x").Compile()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "x"}, c.Fields)

	c, err = q.ValuesDict().Values("x").Compile()
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "id"}, c.Fields, "id is restored after a cleared projection")
}

func TestOrderBy(t *testing.T) {
	c, err := newQuery(&fakeExecutor{}).OrderBy("-created", "name_sort").OrderBy("-hotness").Compile()
	require.NoError(t, err)
	assert.Equal(t, []dsl.SortField{
		{Field: "created", Desc: true},
		{Field: "name_sort"},
		{Field: "hotness", Desc: true},
	}, c.Sort)
}

func TestFacet_LastWins(t *testing.T) {
	q := newQuery(&fakeExecutor{}).
		Facet(map[string]dsl.Facet{"tags": &dsl.TermsFacet{Field: "tags"}}).
		Facet(map[string]dsl.Facet{"tags": &dsl.TermsFacet{Field: "tag", Size: 5}, "cat": &dsl.TermsFacet{Field: "category"}})
	c, err := q.Compile()
	require.NoError(t, err)
	assert.Equal(t, &dsl.TermsFacet{Field: "tag", Size: 5}, c.Facets["tags"])
	assert.Len(t, c.Facets, 2)
}

func TestExtra(t *testing.T) {
	q := newQuery(&fakeExecutor{}).Extra(map[string]any{
		"filter":   map[string]any{"a": 1},
		"order_by": []string{"-b"},
		"values":   []any{"c"},
	})
	require.NoError(t, q.Err())
	assert.JSONEq(t, `{"filter":{"term":{"a":1}},"sort":[{"b":"desc"}],"fields":["id","c"],"from":0}`, compileJSON(t, q))
}

func TestSlice(t *testing.T) {
	q := newQuery(&fakeExecutor{})

	c, err := q.Slice(10, 30).Compile()
	require.NoError(t, err)
	assert.Equal(t, 10, c.From)
	require.NotNil(t, c.Size)
	assert.Equal(t, 20, *c.Size)

	c, err = q.Slice(10, 30).From(40).Compile()
	require.NoError(t, err)
	assert.Equal(t, 40, c.From)
	assert.Nil(t, c.Size, "size only present with an upper bound")
}

func TestResults_EntityShape(t *testing.T) {
	exec := &fakeExecutor{resp: response("1", "2", "3")}
	q := newQuery(exec)

	items, err := q.All(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].(result.Entity).SearchID())
	assert.Equal(t, int64(3), items[1].(result.Entity).SearchID())
	assert.Equal(t, "idx", exec.index)
	assert.Equal(t, "webapp", exec.docType)
}

func TestResults_Memoized(t *testing.T) {
	exec := &fakeExecutor{resp: response("1")}
	q := newQuery(exec).ValuesDict("slug")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = q.Len(context.Background())
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, exec.calls())

	n, err := q.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.Equal(t, 1, exec.calls(), "count answered from the memo")

	_, err = q.OrderBy("slug").Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, exec.calls(), "derived query starts with an empty memo")
}

func TestCount_ZeroSizeQuery(t *testing.T) {
	exec := &fakeExecutor{resp: response()}
	q := newQuery(exec).Filter(Criteria{"a": 1}).Slice(20, 40)

	n, err := q.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	require.Equal(t, 1, exec.calls())
	c := exec.compiled[0]
	assert.Equal(t, 0, c.From)
	require.NotNil(t, c.Size)
	assert.Equal(t, 0, *c.Size)
}

func TestAt(t *testing.T) {
	exec := &fakeExecutor{resp: response("3")}
	q := newQuery(exec).Values("slug")

	item, err := q.At(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []any{"3", "s3"}, item)

	c := exec.compiled[0]
	assert.Equal(t, 7, c.From)
	assert.Equal(t, 1, *c.Size)

	exec.resp = response()
	_, err = q.At(context.Background(), 100)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = q.At(context.Background(), -1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestFacets(t *testing.T) {
	exec := &fakeExecutor{resp: response()}
	q := newQuery(exec)

	facets, err := q.Facets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string][]result.Bucket{"tags": {{Term: "css", Count: 3}}}, facets)

	raw, err := q.RawFacets(context.Background())
	require.NoError(t, err)
	assert.Len(t, raw, 2)
	assert.Equal(t, 1, exec.calls())
}

func TestResults_TransportErrorPropagates(t *testing.T) {
	cause := &engine.TransportError{Op: "search", Index: "idx", Kind: engine.KindTimeout}
	exec := &fakeExecutor{err: cause}

	_, err := newQuery(exec).Results(context.Background())
	assert.Same(t, cause, err)
	assert.True(t, errors.Is(err, domain.ErrSearchUnavailable))
}

func TestSearcher(t *testing.T) {
	exec := &fakeExecutor{resp: response()}
	s := NewSearcher(exec, nil, map[string]string{"webapp": "apps-v2"}, nil)

	assert.Equal(t, "apps-v2", s.Query("webapp").Index())
	assert.Equal(t, "collection", s.Query("collection").Index())
	assert.Equal(t, "webapp", s.Query("webapp").EntityType())
}
