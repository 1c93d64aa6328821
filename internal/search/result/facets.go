package result

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/kailas-cloud/appsearch/internal/search/dsl"
)

// Bucket is one facet bucket. Term is set for terms facets, From/To for
// range facets.
type Bucket struct {
	Term  any      `json:"term,omitempty"`
	From  *float64 `json:"from,omitempty"`
	To    *float64 `json:"to,omitempty"`
	Count int64    `json:"count"`
}

// ProcessFacets keeps the buckets of terms and range facets. Facets of any
// other type are omitted.
func ProcessFacets(raw map[string]json.RawMessage) map[string][]Bucket {
	out := make(map[string][]Bucket, len(raw))
	for name, body := range raw {
		doc := gjson.ParseBytes(body)
		switch doc.Get("_type").String() {
		case dsl.FacetTypeTerms:
			out[name] = termBuckets(doc.Get("terms"))
		case dsl.FacetTypeRange:
			out[name] = rangeBuckets(doc.Get("ranges"))
		}
	}
	return out
}

func termBuckets(arr gjson.Result) []Bucket {
	buckets := []Bucket{}
	arr.ForEach(func(_, v gjson.Result) bool {
		buckets = append(buckets, Bucket{
			Term:  termValue(v.Get("term")),
			Count: v.Get("count").Int(),
		})
		return true
	})
	return buckets
}

func rangeBuckets(arr gjson.Result) []Bucket {
	buckets := []Bucket{}
	arr.ForEach(func(_, v gjson.Result) bool {
		b := Bucket{Count: v.Get("count").Int()}
		if f := v.Get("from"); f.Exists() {
			n := f.Float()
			b.From = &n
		}
		if t := v.Get("to"); t.Exists() {
			n := t.Float()
			b.To = &n
		}
		buckets = append(buckets, b)
		return true
	})
	return buckets
}

// termValue keeps integral numbers as int64 so numeric terms compare with ids.
func termValue(v gjson.Result) any {
	if v.Type == gjson.Number && v.Float() == float64(v.Int()) {
		return v.Int()
	}
	return v.Value()
}
