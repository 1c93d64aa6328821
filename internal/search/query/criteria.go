package query

import (
	"reflect"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/kailas-cloud/appsearch/internal/search/dsl"
)

// Criteria maps "field[__op]" keys to values. The reserved key OrKey holds
// nested criteria (or typed clauses) combined with OR.
type Criteria map[string]any

// OrKey is the reserved key of a nested OR group.
const OrKey = "or_"

const opSep = "__"

// Operators.
const (
	opIn         = "in"
	opGT         = "gt"
	opGTE        = "gte"
	opLT         = "lt"
	opLTE        = "lte"
	opRange      = "range"
	opText       = "text"
	opMatch      = "match"
	opStartsWith = "startswith"
	opFuzzy      = "fuzzy"
)

// splitKey separates the field from the trailing operator.
func splitKey(key string) (field, op string) {
	if i := strings.LastIndex(key, opSep); i >= 0 {
		return key[:i], key[i+len(opSep):]
	}
	return key, ""
}

// sortedKeys returns the non-reserved keys in order so compiled output is stable.
func (c Criteria) sortedKeys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		if k != OrKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

type translator func(op, field, key string, val any) (dsl.Clause, error)

func filterClauses(c Criteria) ([]dsl.Clause, error) {
	out, err := translate("filter", c, filterClause)
	if err != nil {
		return nil, err
	}
	if group, ok := c[OrKey]; ok {
		children, err := nested("filter", group, filterClauses)
		if err != nil {
			return nil, err
		}
		if len(children) > 0 {
			out = append(out, &dsl.Or{Clauses: children})
		}
	}
	return out, nil
}

func queryClauses(c Criteria) ([]dsl.Clause, error) {
	out, err := translate("query", c, queryClause)
	if err != nil {
		return nil, err
	}
	if group, ok := c[OrKey]; ok {
		children, err := nested("query", group, queryClauses)
		if err != nil {
			return nil, err
		}
		if len(children) > 0 {
			out = append(out, &dsl.BoolShould{Clauses: children})
		}
	}
	return out, nil
}

func translate(op string, c Criteria, fn translator) ([]dsl.Clause, error) {
	out := make([]dsl.Clause, 0, len(c))
	for _, key := range c.sortedKeys() {
		field, fop := splitKey(key)
		if field == "" {
			return nil, invalid(op, key, "field is required")
		}
		clause, err := fn(fop, field, key, c[key])
		if err != nil {
			return nil, err
		}
		out = append(out, clause)
	}
	return out, nil
}

// nested resolves an or_ group: nested criteria or prebuilt clauses.
func nested(op string, group any, fn func(Criteria) ([]dsl.Clause, error)) ([]dsl.Clause, error) {
	switch g := group.(type) {
	case Criteria:
		return fn(g)
	case map[string]any:
		return fn(Criteria(g))
	case []dsl.Clause:
		for _, c := range g {
			if c == nil {
				return nil, invalid(op, OrKey, "nil clause")
			}
		}
		return append([]dsl.Clause(nil), g...), nil
	case nil:
		return nil, nil
	default:
		return nil, invalid(op, OrKey, "expected nested criteria, got %T", group)
	}
}

func filterClause(op, field, key string, val any) (dsl.Clause, error) {
	switch op {
	case "":
		return &dsl.Term{Field: field, Value: val}, nil
	case opIn:
		vals, ok := toSlice(val)
		if !ok {
			return nil, invalid("filter", key, "expected a list, got %T", val)
		}
		return &dsl.Terms{Field: field, Values: vals}, nil
	case opGT, opGTE, opLT, opLTE:
		return rangeClause(field, op, val), nil
	case opRange:
		vals, ok := toSlice(val)
		if !ok || len(vals) != 2 {
			return nil, invalid("filter", key, "expected a [from, to] pair")
		}
		return &dsl.Range{Field: field, GTE: vals[0], LTE: vals[1]}, nil
	default:
		return nil, invalid("filter", key, "unknown operator %q", op)
	}
}

func queryClause(op, field, key string, val any) (dsl.Clause, error) {
	switch op {
	case "":
		o, err := options(key, val, "value")
		if err != nil {
			return nil, err
		}
		return &dsl.Term{Field: field, Value: o.value, Boost: o.boost}, nil
	case opText, opMatch:
		o, err := options(key, val, "query")
		if err != nil {
			return nil, err
		}
		q, err := cast.ToStringE(o.value)
		if err != nil {
			return nil, invalid("query", key, "match query must be a string")
		}
		return &dsl.Match{Field: field, Query: q, Boost: o.boost, Analyzer: o.analyzer, Phrase: o.phrase}, nil
	case opStartsWith:
		o, err := options(key, val, "value")
		if err != nil {
			return nil, err
		}
		v, err := cast.ToStringE(o.value)
		if err != nil {
			return nil, invalid("query", key, "prefix must be a string")
		}
		return &dsl.Prefix{Field: field, Value: v, Boost: o.boost}, nil
	case opFuzzy:
		o, err := options(key, val, "value")
		if err != nil {
			return nil, err
		}
		v, err := cast.ToStringE(o.value)
		if err != nil {
			return nil, invalid("query", key, "fuzzy value must be a string")
		}
		return &dsl.Fuzzy{Field: field, Value: v, Boost: o.boost, PrefixLength: o.prefixLength}, nil
	case opGT, opGTE, opLT, opLTE:
		return rangeClause(field, op, val), nil
	default:
		return nil, invalid("query", key, "unknown operator %q", op)
	}
}

func rangeClause(field, op string, val any) *dsl.Range {
	r := &dsl.Range{Field: field}
	switch op {
	case opGT:
		r.GT = val
	case opGTE:
		r.GTE = val
	case opLT:
		r.LT = val
	case opLTE:
		r.LTE = val
	}
	return r
}

// queryOptions is the parsed form of an option map such as
// {"query": "fire", "boost": 4, "type": "phrase"}.
type queryOptions struct {
	value        any
	boost        float64
	analyzer     string
	phrase       bool
	prefixLength int
}

// options reads val as either a bare value or an option map whose value
// lives under valueKey.
func options(key string, val any, valueKey string) (queryOptions, error) {
	m, ok := val.(map[string]any)
	if !ok {
		return queryOptions{value: val}, nil
	}
	var o queryOptions
	var err error
	for k, v := range m {
		switch k {
		case valueKey:
			o.value = v
		case "boost":
			o.boost, err = cast.ToFloat64E(v)
		case "analyzer":
			o.analyzer, err = cast.ToStringE(v)
		case "type":
			var t string
			t, err = cast.ToStringE(v)
			if err == nil && t != "phrase" {
				return o, invalid("query", key, "unsupported match type %q", t)
			}
			o.phrase = true
		case "prefix_length":
			o.prefixLength, err = cast.ToIntE(v)
		default:
			return o, invalid("query", key, "unknown option %q", k)
		}
		if err != nil {
			return o, invalid("query", key, "option %q: %v", k, err)
		}
	}
	if o.value == nil {
		return o, invalid("query", key, "missing %q", valueKey)
	}
	return o, nil
}

// toSlice spreads any slice or array value into []any.
func toSlice(val any) ([]any, bool) {
	if vals, ok := val.([]any); ok {
		return vals, true
	}
	rv := reflect.ValueOf(val)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
