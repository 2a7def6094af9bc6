package db

import (
	"strconv"
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
			Name:        name,
			StorageType: StorageHash,
		},
	}
}

// OnJSON sets the index storage type to JSON.
func (b *IndexBuilder) OnJSON() *IndexBuilder {
	b.def.StorageType = StorageJSON
	return b
}

// OnHash sets the index storage type to HASH.
func (b *IndexBuilder) OnHash() *IndexBuilder {
	b.def.StorageType = StorageHash
	return b
}

// Prefix adds key prefixes to the index.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Numeric adds a NUMERIC field to the index.
func (b *IndexBuilder) Numeric(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Type: IndexFieldNumeric})
}

// Tag adds a TAG field to the index.
func (b *IndexBuilder) Tag(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Type: IndexFieldTag})
}

// TagWithOpts adds a TAG field with custom separator and case sensitivity.
func (b *IndexBuilder) TagWithOpts(name, separator string, caseSensitive bool) *IndexBuilder {
	return b.add(IndexField{
		Name:             name,
		Type:             IndexFieldTag,
		TagSeparator:     separator,
		TagCaseSensitive: caseSensitive,
	})
}

// Text adds a TEXT field to the index.
func (b *IndexBuilder) Text(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Type: IndexFieldText})
}

// As sets the alias of the last added field.
func (b *IndexBuilder) As(alias string) *IndexBuilder {
	if f := b.last(); f != nil {
		f.Alias = alias
	}
	return b
}

// Sortable marks the last added field as sortable.
func (b *IndexBuilder) Sortable() *IndexBuilder {
	if f := b.last(); f != nil {
		f.Sortable = true
	}
	return b
}

// Weight sets the relevance weight of the last added TEXT field.
func (b *IndexBuilder) Weight(w float64) *IndexBuilder {
	if f := b.last(); f != nil {
		f.Weight = w
	}
	return b
}

// CaseSensitive marks the last added TAG field as case sensitive.
func (b *IndexBuilder) CaseSensitive() *IndexBuilder {
	if f := b.last(); f != nil {
		f.TagCaseSensitive = true
	}
	return b
}

func (b *IndexBuilder) add(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

func (b *IndexBuilder) last() *IndexField {
	if len(b.def.Fields) == 0 {
		return nil
	}
	return &b.def.Fields[len(b.def.Fields)-1]
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

// String returns a debug representation resembling the FT.CREATE command.
func (idx *IndexDefinition) String() string {
	parts := []string{"FT.CREATE", idx.Name}
	if idx.StorageType != "" {
		parts = append(parts, "ON", string(idx.StorageType))
	}
	if len(idx.Prefixes) > 0 {
		parts = append(parts, "PREFIX")
		parts = append(parts, idx.Prefixes...)
	}
	parts = append(parts, "SCHEMA")
	for i := range idx.Fields {
		f := &idx.Fields[i]
		parts = append(parts, f.Name)
		if f.Alias != "" {
			parts = append(parts, "AS", f.Alias)
		}
		switch f.Type {
		case IndexFieldTag:
			parts = append(parts, "TAG")
		case IndexFieldNumeric:
			parts = append(parts, "NUMERIC")
		case IndexFieldText:
			parts = append(parts, "TEXT")
			if f.Weight > 0 {
				parts = append(parts, "WEIGHT", strconv.FormatFloat(f.Weight, 'f', -1, 64))
			}
		}
		if f.Sortable {
			parts = append(parts, "SORTABLE")
		}
	}
	return strings.Join(parts, " ")
}
