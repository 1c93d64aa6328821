// Package dsl is the typed expression tree of a search query and its
// encoding into the legacy query document.
package dsl

import "errors"

// ErrInvalidClause is returned when a clause cannot be encoded.
var ErrInvalidClause = errors.New("dsl: invalid clause")

// Clause is a filter or query predicate.
type Clause interface {
	isClause()
	encode() (any, error)
}

var _ Clause = (*Term)(nil)
var _ Clause = (*Terms)(nil)
var _ Clause = (*Range)(nil)
var _ Clause = (*Prefix)(nil)
var _ Clause = (*Fuzzy)(nil)
var _ Clause = (*Match)(nil)
var _ Clause = (*And)(nil)
var _ Clause = (*Or)(nil)
var _ Clause = (*Not)(nil)
var _ Clause = (*BoolMust)(nil)
var _ Clause = (*BoolShould)(nil)

// Term matches an exact value.
type Term struct {
	Field string
	Value any
	Boost float64
}

func (c *Term) isClause() {}

func (c *Term) encode() (any, error) {
	if c.Field == "" {
		return nil, invalid("term", "field is required")
	}
	var v any = c.Value
	if c.Boost > 0 {
		v = map[string]any{"value": c.Value, "boost": c.Boost}
	}
	return map[string]any{"term": map[string]any{c.Field: v}}, nil
}

// Terms matches any of a set of values.
type Terms struct {
	Field  string
	Values []any
}

func (c *Terms) isClause() {}

func (c *Terms) encode() (any, error) {
	if c.Field == "" {
		return nil, invalid("in", "field is required")
	}
	vals := c.Values
	if vals == nil {
		vals = []any{}
	}
	return map[string]any{"in": map[string]any{c.Field: vals}}, nil
}

// Range bounds a field. Nil bounds are open.
type Range struct {
	Field string
	GT    any
	GTE   any
	LT    any
	LTE   any
}

func (c *Range) isClause() {}

func (c *Range) encode() (any, error) {
	if c.Field == "" {
		return nil, invalid("range", "field is required")
	}
	bounds := map[string]any{}
	for op, v := range map[string]any{"gt": c.GT, "gte": c.GTE, "lt": c.LT, "lte": c.LTE} {
		if v != nil {
			bounds[op] = v
		}
	}
	if len(bounds) == 0 {
		return nil, invalid("range", "at least one bound is required on "+c.Field)
	}
	return map[string]any{"range": map[string]any{c.Field: bounds}}, nil
}

// Prefix matches values starting with Value.
type Prefix struct {
	Field string
	Value string
	Boost float64
}

func (c *Prefix) isClause() {}

func (c *Prefix) encode() (any, error) {
	if c.Field == "" {
		return nil, invalid("prefix", "field is required")
	}
	var v any = c.Value
	if c.Boost > 0 {
		v = map[string]any{"value": c.Value, "boost": c.Boost}
	}
	return map[string]any{"prefix": map[string]any{c.Field: v}}, nil
}

// Fuzzy matches values within an edit distance of Value.
type Fuzzy struct {
	Field        string
	Value        string
	Boost        float64
	PrefixLength int
}

func (c *Fuzzy) isClause() {}

func (c *Fuzzy) encode() (any, error) {
	if c.Field == "" {
		return nil, invalid("fuzzy", "field is required")
	}
	var v any = c.Value
	if c.Boost > 0 || c.PrefixLength > 0 {
		opts := map[string]any{"value": c.Value}
		if c.Boost > 0 {
			opts["boost"] = c.Boost
		}
		if c.PrefixLength > 0 {
			opts["prefix_length"] = c.PrefixLength
		}
		v = opts
	}
	return map[string]any{"fuzzy": map[string]any{c.Field: v}}, nil
}

// Match is an analyzed full-text match.
type Match struct {
	Field    string
	Query    string
	Boost    float64
	Analyzer string
	Phrase   bool
}

func (c *Match) isClause() {}

func (c *Match) encode() (any, error) {
	if c.Field == "" {
		return nil, invalid("match", "field is required")
	}
	var v any = c.Query
	if c.Boost > 0 || c.Analyzer != "" || c.Phrase {
		opts := map[string]any{"query": c.Query}
		if c.Boost > 0 {
			opts["boost"] = c.Boost
		}
		if c.Analyzer != "" {
			opts["analyzer"] = c.Analyzer
		}
		if c.Phrase {
			opts["type"] = "phrase"
		}
		v = opts
	}
	return map[string]any{"match": map[string]any{c.Field: v}}, nil
}

// And requires every child filter.
type And struct {
	Clauses []Clause
}

func (c *And) isClause() {}

func (c *And) encode() (any, error) {
	children, err := encodeAll(c.Clauses)
	if err != nil {
		return nil, err
	}
	return map[string]any{"and": children}, nil
}

// Or requires any child filter.
type Or struct {
	Clauses []Clause
}

func (c *Or) isClause() {}

func (c *Or) encode() (any, error) {
	children, err := encodeAll(c.Clauses)
	if err != nil {
		return nil, err
	}
	return map[string]any{"or": children}, nil
}

// Not negates a filter.
type Not struct {
	Clause Clause
}

func (c *Not) isClause() {}

func (c *Not) encode() (any, error) {
	if c.Clause == nil {
		return nil, invalid("not", "clause is required")
	}
	child, err := c.Clause.encode()
	if err != nil {
		return nil, err
	}
	return map[string]any{"not": map[string]any{"filter": child}}, nil
}

// BoolMust requires every child query; scores add up.
type BoolMust struct {
	Clauses []Clause
}

func (c *BoolMust) isClause() {}

func (c *BoolMust) encode() (any, error) {
	children, err := encodeAll(c.Clauses)
	if err != nil {
		return nil, err
	}
	return map[string]any{"bool": map[string]any{"must": children}}, nil
}

// BoolShould requires any child query; matching children add to the score.
type BoolShould struct {
	Clauses []Clause
}

func (c *BoolShould) isClause() {}

func (c *BoolShould) encode() (any, error) {
	children, err := encodeAll(c.Clauses)
	if err != nil {
		return nil, err
	}
	return map[string]any{"bool": map[string]any{"should": children}}, nil
}

// Encode returns the legacy document form of a single clause.
func Encode(c Clause) (any, error) {
	if c == nil {
		return nil, invalid("clause", "nil clause")
	}
	return c.encode()
}

func encodeAll(clauses []Clause) ([]any, error) {
	out := make([]any, 0, len(clauses))
	for _, c := range clauses {
		if c == nil {
			return nil, invalid("clause", "nil child")
		}
		v, err := c.encode()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func invalid(kind, reason string) error {
	return &ClauseError{Kind: kind, Reason: reason}
}

// ClauseError describes a clause that cannot be encoded.
type ClauseError struct {
	Kind   string
	Reason string
}

func (e *ClauseError) Error() string { return "dsl: " + e.Kind + ": " + e.Reason }

// Unwrap returns ErrInvalidClause.
func (e *ClauseError) Unwrap() error { return ErrInvalidClause }
