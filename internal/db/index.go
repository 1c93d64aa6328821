package db

import (
	"errors"
	"strconv"
)

// FieldType is a search-engine mapping type.
type FieldType string

const (
	// FieldKeyword is an unanalyzed string, usable for sorting and exact filters.
	FieldKeyword FieldType = "keyword"
	// FieldText is an analyzed string.
	FieldText FieldType = "text"
	// FieldLong is a 64-bit integer.
	FieldLong FieldType = "long"
	// FieldInteger is a 32-bit integer.
	FieldInteger FieldType = "integer"
	// FieldFloat is a single precision float.
	FieldFloat FieldType = "float"
	// FieldBoolean is a boolean.
	FieldBoolean FieldType = "boolean"
	// FieldDate is a date.
	FieldDate FieldType = "date"
	// FieldObject groups sub-properties.
	FieldObject FieldType = "object"
)

// IndexField describes one property of an index mapping.
type IndexField struct {
	Name     string
	Type     FieldType
	Analyzer string // text fields only

	// NullValue is indexed in place of an explicit null.
	NullValue any

	// Object options
	Properties []IndexField
	Strict     bool // dynamic: false
}

// AnalyzerDef is a custom analyzer declared in the index settings.
type AnalyzerDef struct {
	Name      string
	Tokenizer string
	Filters   []string
}

// IndexDefinition is a complete index: settings plus mapping.
type IndexDefinition struct {
	Name      string
	Shards    int
	Replicas  int
	Analyzers []AnalyzerDef
	Fields    []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}
	return validateFields(idx.Fields, "")
}

func validateFields(fields []IndexField, parent string) error {
	seen := make(map[string]bool)
	for i := range fields {
		f := &fields[i]
		if f.Name == "" {
			return errors.New("field name is required at index " + strconv.Itoa(i) + parentSuffix(parent))
		}
		if seen[f.Name] {
			return errors.New("duplicate field name: " + parent + f.Name)
		}
		seen[f.Name] = true

		switch f.Type {
		case FieldObject:
			if len(f.Properties) == 0 {
				return errors.New("object field requires properties: " + parent + f.Name)
			}
			if err := validateFields(f.Properties, parent+f.Name+"."); err != nil {
				return err
			}
		case FieldText:
		default:
			if f.Analyzer != "" {
				return errors.New("analyzer is only valid on text fields: " + parent + f.Name)
			}
		}
	}
	return nil
}

func parentSuffix(parent string) string {
	if parent == "" {
		return ""
	}
	return " in " + parent[:len(parent)-1]
}

// IsValidIdentifier returns true if s matches [a-z0-9_.-]+ and does not start with _ - or +.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case '_', '-', '+':
		return false
	}
	for _, r := range s {
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == '.' || r == '-'
		if !isLower && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}

// Body returns the create-index request body: settings and mappings.
func (idx *IndexDefinition) Body() map[string]any {
	settings := map[string]any{}
	if idx.Shards > 0 {
		settings["number_of_shards"] = idx.Shards
	}
	if idx.Replicas >= 0 {
		settings["number_of_replicas"] = idx.Replicas
	}
	if len(idx.Analyzers) > 0 {
		analyzers := make(map[string]any, len(idx.Analyzers))
		for _, a := range idx.Analyzers {
			analyzers[a.Name] = map[string]any{
				"type":      "custom",
				"tokenizer": a.Tokenizer,
				"filter":    a.Filters,
			}
		}
		settings["analysis"] = map[string]any{"analyzer": analyzers}
	}
	return map[string]any{
		"settings": settings,
		"mappings": map[string]any{"properties": properties(idx.Fields)},
	}
}

// FieldPaths returns every leaf path of the mapping, e.g. "appversion.1.max".
func (idx *IndexDefinition) FieldPaths() []string {
	return fieldPaths(idx.Fields, "")
}

func fieldPaths(fields []IndexField, prefix string) []string {
	var out []string
	for i := range fields {
		f := &fields[i]
		if f.Type == FieldObject {
			out = append(out, prefix+f.Name)
			out = append(out, fieldPaths(f.Properties, prefix+f.Name+".")...)
			continue
		}
		out = append(out, prefix+f.Name)
	}
	return out
}

func properties(fields []IndexField) map[string]any {
	props := make(map[string]any, len(fields))
	for i := range fields {
		f := &fields[i]
		p := map[string]any{}
		if f.Type == FieldObject {
			if f.Strict {
				p["dynamic"] = false
			}
			p["properties"] = properties(f.Properties)
		} else {
			p["type"] = string(f.Type)
		}
		if f.Analyzer != "" {
			p["analyzer"] = f.Analyzer
		}
		if f.NullValue != nil {
			p["null_value"] = f.NullValue
		}
		props[f.Name] = p
	}
	return props
}
