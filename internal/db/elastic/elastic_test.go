package elastic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/kailas-cloud/appsearch/internal/db"
	"github.com/kailas-cloud/appsearch/internal/domain"
	"github.com/kailas-cloud/appsearch/internal/search/dsl"
	"github.com/kailas-cloud/appsearch/internal/search/engine"
)

type fakeEngine struct {
	mu       sync.Mutex
	bodies   map[string]string
	handlers map[string]func(w http.ResponseWriter, body string)
}

func newFakeEngine(t *testing.T) (*fakeEngine, *Store) {
	t.Helper()
	f := &fakeEngine{bodies: map[string]string{}, handlers: map[string]func(http.ResponseWriter, string){}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	s, err := NewStore(Config{URLs: []string{srv.URL}}, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return f, s
}

func (f *fakeEngine) on(method, path string, fn func(w http.ResponseWriter, body string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method+" "+path] = fn
}

func (f *fakeEngine) body(method, path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[method+" "+path]
}

func (f *fakeEngine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.Path

	f.mu.Lock()
	f.bodies[key] = string(b)
	fn := f.handlers[key]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fn == nil {
		_, _ = io.WriteString(w, `{"version":{"number":"7.10.2"},"tagline":"You Know, for Search"}`)
		return
	}
	fn(w, string(b))
}

func reply(status int, body string) func(http.ResponseWriter, string) {
	return func(w http.ResponseWriter, _ string) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func sourceJSON(t *testing.T, q *dsl.Compiled) string {
	t.Helper()
	src, err := Source(q)
	require.NoError(t, err)
	raw, err := src.Source()
	require.NoError(t, err)
	b, err := json.Marshal(raw)
	require.NoError(t, err)
	return string(b)
}

func TestNewStore_NoURLs(t *testing.T) {
	_, err := NewStore(Config{}, nil)
	require.Error(t, err)
}

func TestPing(t *testing.T) {
	_, s := newFakeEngine(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestSource_FiltersAndScoring(t *testing.T) {
	size := 20
	q := &dsl.Compiled{
		Filter: &dsl.And{Clauses: []dsl.Clause{
			&dsl.Term{Field: "is_disabled", Value: false},
			&dsl.Terms{Field: "status", Values: []any{4, 8}},
		}},
		Query:  &dsl.BoolShould{Clauses: []dsl.Clause{&dsl.Match{Field: "name", Query: "tab", Boost: 3, Analyzer: "standard"}}},
		Fields: []string{"id", "slug"},
		Sort:   []dsl.SortField{{Field: "weekly_downloads", Desc: true}},
		From:   10,
		Size:   &size,
	}
	body := sourceJSON(t, q)

	assert.EqualValues(t, 10, gjson.Get(body, "from").Int())
	assert.EqualValues(t, 20, gjson.Get(body, "size").Int())
	assert.True(t, gjson.Get(body, "track_total_hits").Bool())
	assert.Equal(t, int64(2), gjson.Get(body, "post_filter.bool.filter.#").Int())
	assert.JSONEq(t, `{"term":{"is_disabled":false}}`, gjson.Get(body, "post_filter.bool.filter.0").Raw)
	assert.JSONEq(t, `{"terms":{"status":[4,8]}}`, gjson.Get(body, "post_filter.bool.filter.1").Raw)
	assert.Contains(t, body, `"field_value_factor":{"field":"boost","missing":1}`)
	assert.Contains(t, body, `"match":{"name":{"analyzer":"standard","boost":3,"query":"tab"}}`)
	assert.Equal(t, []any{"id", "slug"}, gjson.Get(body, "_source.includes").Value())
	assert.Equal(t, "desc", gjson.Get(body, "sort.0.weekly_downloads.order").String())
}

func TestSource_NoQueryNoScoring(t *testing.T) {
	body := sourceJSON(t, &dsl.Compiled{})
	assert.NotContains(t, body, "function_score")
	assert.False(t, gjson.Get(body, "post_filter").Exists())
	assert.False(t, gjson.Get(body, "_source").Exists())
	assert.False(t, gjson.Get(body, "size").Exists())
}

func TestSource_Clauses(t *testing.T) {
	tests := []struct {
		name   string
		clause dsl.Clause
		want   []string
	}{
		{"phrase", &dsl.Match{Field: "name", Query: "tab", Boost: 4, Phrase: true}, []string{`"match_phrase"`, `"boost":4`}},
		{"fuzzy", &dsl.Fuzzy{Field: "name", Value: "tab", Boost: 2, PrefixLength: 4}, []string{`"fuzzy"`, `"prefix_length":4`}},
		{"prefix", &dsl.Prefix{Field: "name", Value: "ta", Boost: 1.5}, []string{`"prefix"`, `"boost":1.5`}},
		{"term boost", &dsl.Term{Field: "tags", Value: "tab", Boost: 0.1}, []string{`"term"`, `"boost":0.1`}},
		{"not", &dsl.Not{Clause: &dsl.Term{Field: "uses_flash", Value: true}}, []string{`"must_not"`, `{"term":{"uses_flash":true}}`}},
		{"or", &dsl.Or{Clauses: []dsl.Clause{&dsl.Term{Field: "a", Value: 1}, &dsl.Term{Field: "b", Value: 2}}}, []string{`"should"`, `"minimum_should_match"`}},
		{"range", &dsl.Range{Field: "price", GT: 0}, []string{`"range"`, `"include_lower":false`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := sourceJSON(t, &dsl.Compiled{Filter: tt.clause})
			for _, w := range tt.want {
				assert.Contains(t, body, w)
			}
		})
	}
}

func TestSource_Facets(t *testing.T) {
	from, to := 1.0, 5.0
	body := sourceJSON(t, &dsl.Compiled{Facets: map[string]dsl.Facet{
		"categories": &dsl.TermsFacet{Field: "category", Size: 200},
		"ratings":    &dsl.RangeFacet{Field: "bayesian_rating", Ranges: []dsl.RangeBucket{{From: &from, To: &to}, {From: &to}}},
	}})
	assert.Equal(t, "category", gjson.Get(body, "aggregations.categories.terms.field").String())
	assert.EqualValues(t, 200, gjson.Get(body, "aggregations.categories.terms.size").Int())
	assert.Equal(t, "bayesian_rating", gjson.Get(body, "aggregations.ratings.range.field").String())
	assert.EqualValues(t, 2, gjson.Get(body, "aggregations.ratings.range.ranges.#").Int())
}

func TestSearch(t *testing.T) {
	f, s := newFakeEngine(t)
	f.on(http.MethodPost, "/apps/_search", reply(http.StatusOK, `{
		"took": 7,
		"hits": {
			"total": {"value": 42, "relation": "eq"},
			"hits": [
				{"_index": "apps", "_id": "3", "_source": {"id": 3, "slug": "tabs", "appversion": {"1": {"max": 10}}}},
				{"_index": "apps", "_id": "5", "_source": {"id": 5, "slug": "mix"}}
			]
		},
		"aggregations": {
			"tags": {"doc_count_error_upper_bound": 0, "sum_other_doc_count": 2, "buckets": [{"key": "privacy", "doc_count": 4}]},
			"ratings": {"buckets": [{"key": "1.0-5.0", "from": 1.0, "to": 5.0, "doc_count": 3}]}
		}
	}`))

	from, to := 1.0, 5.0
	q := &dsl.Compiled{
		Fields: []string{"id", "slug", "appversion.1.max"},
		Facets: map[string]dsl.Facet{
			"tags":    &dsl.TermsFacet{Field: "tags"},
			"ratings": &dsl.RangeFacet{Field: "bayesian_rating", Ranges: []dsl.RangeBucket{{From: &from, To: &to}}},
		},
	}
	resp, err := s.Search(context.Background(), q, "apps", "webapp")
	require.NoError(t, err)

	assert.EqualValues(t, 42, resp.Total)
	assert.Equal(t, "7ms", resp.Took.String())
	require.Len(t, resp.Hits, 2)
	assert.Equal(t, "3", resp.Hits[0].ID)
	assert.Equal(t, map[string]any{"id": float64(3), "slug": "tabs", "appversion.1.max": float64(10)}, resp.Hits[0].Fields)
	assert.Equal(t, map[string]any{"id": float64(5), "slug": "mix"}, resp.Hits[1].Fields)

	assert.JSONEq(t, `{"_type":"terms","terms":[{"term":"privacy","count":4}],"total":6,"other":2}`, string(resp.Facets["tags"]))
	assert.JSONEq(t, `{"_type":"range","ranges":[{"from":1,"to":5,"count":3}]}`, string(resp.Facets["ratings"]))

	sent := f.body(http.MethodPost, "/apps/_search")
	assert.True(t, gjson.Get(sent, "aggregations.tags").Exists(), sent)
}

func TestSearch_FullDocumentHasNoFields(t *testing.T) {
	f, s := newFakeEngine(t)
	f.on(http.MethodPost, "/apps/_search", reply(http.StatusOK,
		`{"took":1,"hits":{"total":{"value":1},"hits":[{"_id":"1","_source":{"id":1}}]}}`))

	resp, err := s.Search(context.Background(), &dsl.Compiled{}, "apps", "webapp")
	require.NoError(t, err)
	require.Len(t, resp.Hits, 1)
	assert.Nil(t, resp.Hits[0].Fields)
	assert.JSONEq(t, `{"id":1}`, string(resp.Hits[0].Source))
}

func TestSearch_ErrorsAreClassified(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   engine.Kind
	}{
		{"bad request", http.StatusBadRequest, engine.KindMalformed},
		{"server error", http.StatusInternalServerError, engine.KindRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, s := newFakeEngine(t)
			f.on(http.MethodPost, "/apps/_search", reply(tt.status,
				`{"error":{"type":"search_phase_execution_exception","reason":"boom"},"status":`+strconv.Itoa(tt.status)+`}`))

			_, err := s.Search(context.Background(), &dsl.Compiled{}, "apps", "webapp")
			require.Error(t, err)
			var te *engine.TransportError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.kind, te.Kind)
			assert.Equal(t, tt.status, te.Status)
			assert.ErrorIs(t, err, domain.ErrSearchUnavailable)
		})
	}
}

func TestCreateIndex(t *testing.T) {
	f, s := newFakeEngine(t)
	f.on(http.MethodPut, "/apps", reply(http.StatusOK, `{"acknowledged":true,"index":"apps"}`))

	def := db.NewIndex("apps").Keyword("slug").Long("id").MustBuild()
	require.NoError(t, s.CreateIndex(context.Background(), def))

	sent := f.body(http.MethodPut, "/apps")
	assert.Equal(t, "keyword", gjson.Get(sent, "mappings.properties.slug.type").String())
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	f, s := newFakeEngine(t)
	f.on(http.MethodPut, "/apps", reply(http.StatusBadRequest,
		`{"error":{"type":"resource_already_exists_exception","reason":"index [apps] already exists"},"status":400}`))

	def := db.NewIndex("apps").Long("id").MustBuild()
	err := s.CreateIndex(context.Background(), def)
	assert.ErrorIs(t, err, db.ErrIndexExists)
}

func TestCreateIndex_InvalidDefinition(t *testing.T) {
	_, s := newFakeEngine(t)
	err := s.CreateIndex(context.Background(), &db.IndexDefinition{Name: "apps"})
	require.Error(t, err)
}

func TestIndexExists(t *testing.T) {
	f, s := newFakeEngine(t)
	f.on(http.MethodHead, "/apps", reply(http.StatusOK, ``))
	f.on(http.MethodHead, "/missing", reply(http.StatusNotFound, ``))

	ok, err := s.IndexExists(context.Background(), "apps")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IndexExists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteIndex_NotFound(t *testing.T) {
	f, s := newFakeEngine(t)
	f.on(http.MethodDelete, "/missing", reply(http.StatusNotFound,
		`{"error":{"type":"index_not_found_exception","reason":"no such index"},"status":404}`))

	err := s.DeleteIndex(context.Background(), "missing")
	assert.ErrorIs(t, err, db.ErrIndexNotFound)
}

func TestBulkIndex(t *testing.T) {
	f, s := newFakeEngine(t)
	f.on(http.MethodPost, "/apps/_bulk", reply(http.StatusOK, `{
		"took": 3, "errors": true,
		"items": [
			{"index": {"_index": "apps", "_id": "1", "status": 201}},
			{"index": {"_index": "apps", "_id": "2", "status": 400, "error": {"type": "mapper_parsing_exception", "reason": "bad field"}}}
		]
	}`))

	res, err := s.BulkIndex(context.Background(), "apps", []db.IndexDoc{
		{ID: "1", Body: map[string]any{"id": 1}},
		{ID: "2", Body: map[string]any{"id": "x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Indexed)
	assert.Equal(t, []db.BulkFailure{{ID: "2", Reason: "bad field"}}, res.Failed)

	sent := f.body(http.MethodPost, "/apps/_bulk")
	lines := strings.Split(strings.TrimSpace(sent), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "1", gjson.Get(lines[0], "index._id").String())
}

func TestBulkIndex_Empty(t *testing.T) {
	_, s := newFakeEngine(t)
	res, err := s.BulkIndex(context.Background(), "apps", nil)
	require.NoError(t, err)
	assert.Equal(t, db.BulkResult{}, res)
}
