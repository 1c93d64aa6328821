// Package engine runs compiled queries against the search engine.
package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kailas-cloud/appsearch/internal/search/dsl"
)

// Client is the search engine boundary.
type Client interface {
	Search(ctx context.Context, q *dsl.Compiled, index, docType string) (*Response, error)
}

// Hit is one matched document.
type Hit struct {
	ID     string
	Source json.RawMessage
	// Fields holds the projected values, keyed by requested field name.
	Fields map[string]any
}

// Response is the raw result of a search.
type Response struct {
	// Took is the engine-reported processing time.
	Took  time.Duration
	Total int64
	Hits  []Hit
	// Facets holds one legacy facet document per requested facet.
	Facets map[string]json.RawMessage
}
