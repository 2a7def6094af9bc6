package db

import (
	"errors"
	"strconv"
)

// StorageType defines the document storage backend for FT indexes (HASH or JSON).
type StorageType string

const (
	// StorageHash stores documents as Redis hashes.
	StorageHash StorageType = "HASH"
	// StorageJSON stores documents as JSON.
	StorageJSON StorageType = "JSON"
)

// IndexFieldType enumerates supported index field types.
type IndexFieldType int

const (
	// IndexFieldNumeric is a numeric field.
	IndexFieldNumeric IndexFieldType = iota
	// IndexFieldTag is an exact-match field.
	IndexFieldTag
	// IndexFieldText is a full-text field.
	IndexFieldText
)

// IndexField describes a single field in an index schema.
type IndexField struct {
	// Name is the source path (a JSONPath for Redis JSON indexes).
	Name string
	// Alias is the queryable name. Backends that address fields by name
	// rather than path use it directly.
	Alias string
	Type  IndexFieldType

	Sortable bool
	// Weight boosts TEXT relevance; zero means backend default.
	Weight float64

	// TAG options
	TagSeparator     string
	TagCaseSensitive bool
}

// QueryName returns the name used to reference the field in queries.
func (f *IndexField) QueryName() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// IndexDefinition is a complete index definition.
type IndexDefinition struct {
	Name        string
	StorageType StorageType
	Prefixes    []string
	Fields      []IndexField
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

	seen := make(map[string]bool)
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return errors.New("field name is required at index " + strconv.Itoa(i))
		}
		key := f.QueryName()
		if seen[key] {
			return errors.New("duplicate field name: " + key)
		}
		seen[key] = true

		if f.Weight < 0 {
			return errors.New("negative weight on field " + key)
		}
	}

	return nil
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
