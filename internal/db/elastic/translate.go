package elastic

import (
	"fmt"

	"github.com/olivere/elastic/v7"

	"github.com/kailas-cloud/appsearch/internal/search/dsl"
	"github.com/kailas-cloud/appsearch/internal/search/mapping"
)

// Source translates a compiled query into a search request body. Filters
// become the post filter so facet counts ignore them, and the text query is
// scored by each document's boost field.
func Source(q *dsl.Compiled) (*elastic.SearchSource, error) {
	src := elastic.NewSearchSource().From(q.From).TrackTotalHits(true)
	if q.Size != nil {
		src = src.Size(*q.Size)
	}

	if q.Query != nil {
		main, err := toQuery(q.Query)
		if err != nil {
			return nil, err
		}
		boost := elastic.NewFieldValueFactorFunction().
			Field(mapping.FieldBoost).
			Missing(mapping.DefaultBoost)
		src = src.Query(elastic.NewFunctionScoreQuery().Query(main).AddScoreFunc(boost))
	}

	if q.Filter != nil {
		filter, err := toQuery(q.Filter)
		if err != nil {
			return nil, err
		}
		src = src.PostFilter(filter)
	}

	if q.Fields != nil {
		src = src.FetchSourceContext(elastic.NewFetchSourceContext(true).Include(q.Fields...))
	}

	for name, f := range q.Facets {
		agg, err := toAggregation(f)
		if err != nil {
			return nil, fmt.Errorf("facet %s: %w", name, err)
		}
		src = src.Aggregation(name, agg)
	}

	for _, s := range q.Sort {
		src = src.SortBy(elastic.NewFieldSort(s.Field).Order(!s.Desc))
	}
	return src, nil
}

func toQuery(c dsl.Clause) (elastic.Query, error) {
	switch c := c.(type) {
	case *dsl.Term:
		q := elastic.NewTermQuery(c.Field, c.Value)
		if c.Boost > 0 {
			q = q.Boost(c.Boost)
		}
		return q, nil
	case *dsl.Terms:
		return elastic.NewTermsQuery(c.Field, c.Values...), nil
	case *dsl.Range:
		q := elastic.NewRangeQuery(c.Field)
		if c.GT != nil {
			q = q.Gt(c.GT)
		}
		if c.GTE != nil {
			q = q.Gte(c.GTE)
		}
		if c.LT != nil {
			q = q.Lt(c.LT)
		}
		if c.LTE != nil {
			q = q.Lte(c.LTE)
		}
		return q, nil
	case *dsl.Prefix:
		q := elastic.NewPrefixQuery(c.Field, c.Value)
		if c.Boost > 0 {
			q = q.Boost(c.Boost)
		}
		return q, nil
	case *dsl.Fuzzy:
		q := elastic.NewFuzzyQuery(c.Field, c.Value)
		if c.Boost > 0 {
			q = q.Boost(c.Boost)
		}
		if c.PrefixLength > 0 {
			q = q.PrefixLength(c.PrefixLength)
		}
		return q, nil
	case *dsl.Match:
		return matchQuery(c), nil
	case *dsl.And:
		qs, err := toQueries(c.Clauses)
		if err != nil {
			return nil, err
		}
		return elastic.NewBoolQuery().Filter(qs...), nil
	case *dsl.Or:
		qs, err := toQueries(c.Clauses)
		if err != nil {
			return nil, err
		}
		return elastic.NewBoolQuery().Should(qs...).MinimumNumberShouldMatch(1), nil
	case *dsl.Not:
		q, err := toQuery(c.Clause)
		if err != nil {
			return nil, err
		}
		return elastic.NewBoolQuery().MustNot(q), nil
	case *dsl.BoolMust:
		qs, err := toQueries(c.Clauses)
		if err != nil {
			return nil, err
		}
		return elastic.NewBoolQuery().Must(qs...), nil
	case *dsl.BoolShould:
		qs, err := toQueries(c.Clauses)
		if err != nil {
			return nil, err
		}
		return elastic.NewBoolQuery().Should(qs...), nil
	default:
		return nil, fmt.Errorf("%w: unsupported clause %T", dsl.ErrInvalidClause, c)
	}
}

func toQueries(cs []dsl.Clause) ([]elastic.Query, error) {
	out := make([]elastic.Query, 0, len(cs))
	for _, c := range cs {
		q, err := toQuery(c)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func matchQuery(c *dsl.Match) elastic.Query {
	if c.Phrase {
		q := elastic.NewMatchPhraseQuery(c.Field, c.Query)
		if c.Boost > 0 {
			q = q.Boost(c.Boost)
		}
		if c.Analyzer != "" {
			q = q.Analyzer(c.Analyzer)
		}
		return q
	}
	q := elastic.NewMatchQuery(c.Field, c.Query)
	if c.Boost > 0 {
		q = q.Boost(c.Boost)
	}
	if c.Analyzer != "" {
		q = q.Analyzer(c.Analyzer)
	}
	return q
}

func toAggregation(f dsl.Facet) (elastic.Aggregation, error) {
	switch f := f.(type) {
	case *dsl.TermsFacet:
		agg := elastic.NewTermsAggregation().Field(f.Field)
		if f.Size > 0 {
			agg = agg.Size(f.Size)
		}
		return agg, nil
	case *dsl.RangeFacet:
		agg := elastic.NewRangeAggregation().Field(f.Field)
		for _, r := range f.Ranges {
			switch {
			case r.From == nil && r.To == nil:
				return nil, fmt.Errorf("%w: range without bounds on %s", dsl.ErrInvalidClause, f.Field)
			case r.From == nil:
				agg = agg.AddUnboundedFrom(*r.To)
			case r.To == nil:
				agg = agg.AddUnboundedTo(*r.From)
			default:
				agg = agg.AddRange(*r.From, *r.To)
			}
		}
		return agg, nil
	default:
		return nil, fmt.Errorf("%w: unsupported facet %T", dsl.ErrInvalidClause, f)
	}
}
