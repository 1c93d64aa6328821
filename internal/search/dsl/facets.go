package dsl

// Facet is an aggregation requested alongside the hits.
type Facet interface {
	isFacet()
	encode() (any, error)
}

var _ Facet = (*TermsFacet)(nil)
var _ Facet = (*RangeFacet)(nil)

// Facet result types as reported in the legacy response.
const (
	FacetTypeTerms = "terms"
	FacetTypeRange = "range"
)

// TermsFacet counts the most frequent values of a field.
type TermsFacet struct {
	Field string
	Size  int
}

func (f *TermsFacet) isFacet() {}

func (f *TermsFacet) encode() (any, error) {
	if f.Field == "" {
		return nil, invalid("terms facet", "field is required")
	}
	body := map[string]any{"field": f.Field}
	if f.Size > 0 {
		body["size"] = f.Size
	}
	return map[string]any{FacetTypeTerms: body}, nil
}

// RangeBucket is one requested range. Nil bounds are open.
type RangeBucket struct {
	From *float64
	To   *float64
}

// RangeFacet counts documents per numeric range.
type RangeFacet struct {
	Field  string
	Ranges []RangeBucket
}

func (f *RangeFacet) isFacet() {}

func (f *RangeFacet) encode() (any, error) {
	if f.Field == "" {
		return nil, invalid("range facet", "field is required")
	}
	if len(f.Ranges) == 0 {
		return nil, invalid("range facet", "at least one range is required on "+f.Field)
	}
	ranges := make([]map[string]any, 0, len(f.Ranges))
	for _, r := range f.Ranges {
		m := map[string]any{}
		if r.From != nil {
			m["from"] = *r.From
		}
		if r.To != nil {
			m["to"] = *r.To
		}
		ranges = append(ranges, m)
	}
	return map[string]any{FacetTypeRange: map[string]any{"field": f.Field, "ranges": ranges}}, nil
}
