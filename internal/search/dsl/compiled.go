package dsl

import "encoding/json"

// Compiled is a query ready for execution.
type Compiled struct {
	Filter Clause
	Query  Clause
	// Fields is the projection; nil requests the full stored document.
	Fields []string
	Facets map[string]Facet
	Sort   []SortField
	From   int
	// Size is nil when no upper bound was set.
	Size *int
}

// Document returns the legacy query document.
func (c *Compiled) Document() (map[string]any, error) {
	doc := map[string]any{"from": c.From}
	if c.Size != nil {
		doc["size"] = *c.Size
	}
	if c.Filter != nil {
		f, err := c.Filter.encode()
		if err != nil {
			return nil, err
		}
		doc["filter"] = f
	}
	if c.Query != nil {
		q, err := c.Query.encode()
		if err != nil {
			return nil, err
		}
		doc["query"] = q
	}
	if c.Fields != nil {
		doc["fields"] = c.Fields
	}
	if len(c.Facets) > 0 {
		facets := make(map[string]any, len(c.Facets))
		for name, f := range c.Facets {
			if f == nil {
				return nil, invalid("facet", "nil facet "+name)
			}
			v, err := f.encode()
			if err != nil {
				return nil, err
			}
			facets[name] = v
		}
		doc["facets"] = facets
	}
	if len(c.Sort) > 0 {
		sorts := make([]any, 0, len(c.Sort))
		for _, s := range c.Sort {
			sorts = append(sorts, s.encode())
		}
		doc["sort"] = sorts
	}
	return doc, nil
}

// JSON returns the legacy query document as JSON.
func (c *Compiled) JSON() ([]byte, error) {
	doc, err := c.Document()
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
