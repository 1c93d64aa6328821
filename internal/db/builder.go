package db

import (
	"sort"
	"strings"
)

// IndexBuilder is a fluent builder for index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building an index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{
		def: IndexDefinition{
			Name:     name,
			Shards:   1,
			Replicas: 0,
		},
	}
}

// Shards sets the number of primary shards.
func (b *IndexBuilder) Shards(n int) *IndexBuilder {
	b.def.Shards = n
	return b
}

// Replicas sets the number of replicas.
func (b *IndexBuilder) Replicas(n int) *IndexBuilder {
	b.def.Replicas = n
	return b
}

// Analyzer declares a custom analyzer in the index settings.
func (b *IndexBuilder) Analyzer(name, tokenizer string, filters ...string) *IndexBuilder {
	b.def.Analyzers = append(b.def.Analyzers, AnalyzerDef{
		Name:      name,
		Tokenizer: tokenizer,
		Filters:   filters,
	})
	return b
}

// Field adds a prebuilt field.
func (b *IndexBuilder) Field(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// Keyword adds unanalyzed string fields.
func (b *IndexBuilder) Keyword(names ...string) *IndexBuilder {
	return b.simple(FieldKeyword, names)
}

// Text adds an analyzed string field. An empty analyzer uses the engine default.
func (b *IndexBuilder) Text(name, analyzer string) *IndexBuilder {
	return b.Field(IndexField{Name: name, Type: FieldText, Analyzer: analyzer})
}

// Long adds 64-bit integer fields.
func (b *IndexBuilder) Long(names ...string) *IndexBuilder {
	return b.simple(FieldLong, names)
}

// Integer adds 32-bit integer fields.
func (b *IndexBuilder) Integer(names ...string) *IndexBuilder {
	return b.simple(FieldInteger, names)
}

// Float adds float fields.
func (b *IndexBuilder) Float(names ...string) *IndexBuilder {
	return b.simple(FieldFloat, names)
}

// FloatWithDefault adds a float field indexed as nullValue when null.
func (b *IndexBuilder) FloatWithDefault(name string, nullValue float64) *IndexBuilder {
	return b.Field(IndexField{Name: name, Type: FieldFloat, NullValue: nullValue})
}

// Boolean adds boolean fields.
func (b *IndexBuilder) Boolean(names ...string) *IndexBuilder {
	return b.simple(FieldBoolean, names)
}

// Date adds date fields.
func (b *IndexBuilder) Date(names ...string) *IndexBuilder {
	return b.simple(FieldDate, names)
}

// Object adds an object field with the given properties.
func (b *IndexBuilder) Object(name string, strict bool, props ...IndexField) *IndexBuilder {
	return b.Field(IndexField{Name: name, Type: FieldObject, Strict: strict, Properties: props})
}

func (b *IndexBuilder) simple(t FieldType, names []string) *IndexBuilder {
	for _, n := range names {
		b.def.Fields = append(b.def.Fields, IndexField{Name: n, Type: t})
	}
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

// MustBuild calls Build and panics on error.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// String returns a compact debug representation: name, shards and typed field paths.
func (idx *IndexDefinition) String() string {
	parts := []string{idx.Name}
	var fields []string
	var walk func(fs []IndexField, prefix string)
	walk = func(fs []IndexField, prefix string) {
		for i := range fs {
			f := &fs[i]
			if f.Type == FieldObject {
				walk(f.Properties, prefix+f.Name+".")
				continue
			}
			s := prefix + f.Name + ":" + string(f.Type)
			if f.Analyzer != "" {
				s += "(" + f.Analyzer + ")"
			}
			fields = append(fields, s)
		}
	}
	walk(idx.Fields, "")
	sort.Strings(fields)
	parts = append(parts, fields...)
	return strings.Join(parts, " ")
}
