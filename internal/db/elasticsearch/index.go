package elasticsearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/facetdex/internal/db"
)

const (
	// rawSubfield is the keyword sub-field added to sortable text fields.
	rawSubfield = "raw"
	// tagNormalizer folds case for case-insensitive keyword fields.
	tagNormalizer = "lowercase_keyword"
)

type obj = map[string]any

// CreateIndex creates an index whose mapping mirrors the definition.
// Fields are addressed by their query name; storage and prefixes do not apply.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	body, err := buildIndexBody(def)
	if err != nil {
		return err
	}
	reader, err := encodeJSON(body)
	if err != nil {
		return fmt.Errorf("encode index body: %w", err)
	}

	res, err := s.client.Indices.Create(
		def.Name,
		s.client.Indices.Create.WithBody(reader),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return &db.Error{Op: opCreateIndex, Err: err}
	}
	defer drainBody(res)
	if res.IsError() {
		errType, err := responseError(res)
		if errType == "resource_already_exists_exception" {
			return db.ErrIndexExists
		}
		return &db.Error{Op: opCreateIndex, Err: err}
	}
	return nil
}

// DropIndex deletes an index together with its documents.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	res, err := s.client.Indices.Delete(
		[]string{name},
		s.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return &db.Error{Op: opDeleteIndex, Err: err}
	}
	defer drainBody(res)
	if res.IsError() {
		errType, err := responseError(res)
		if isIndexNotFound(res, errType) {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: opDeleteIndex, Err: err}
	}
	return nil
}

// IndexExists reports whether the index is present.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := s.client.Indices.Exists(
		[]string{name},
		s.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, &db.Error{Op: opIndexExists, Err: err}
	}
	defer drainBody(res)

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, &db.Error{Op: opIndexExists, Err: fmt.Errorf("status %s", res.Status())}
	}
}

func buildIndexBody(def *db.IndexDefinition) (obj, error) {
	if def.Name == "" {
		return nil, errors.New("index name is required")
	}
	if len(def.Fields) == 0 {
		return nil, errors.New("at least one field is required")
	}

	properties := make(obj, len(def.Fields))
	for i := range def.Fields {
		f := &def.Fields[i]
		mapping, err := fieldMapping(f)
		if err != nil {
			return nil, err
		}
		properties[f.QueryName()] = mapping
	}

	return obj{
		"settings": obj{
			"analysis": obj{
				"normalizer": obj{
					tagNormalizer: obj{
						"type":   "custom",
						"filter": []string{"lowercase"},
					},
				},
			},
		},
		"mappings": obj{
			"dynamic":    false,
			"properties": properties,
		},
	}, nil
}

func fieldMapping(f *db.IndexField) (obj, error) {
	if f.Name == "" {
		return nil, errors.New("field name is required")
	}

	switch f.Type {
	case db.IndexFieldNumeric:
		return obj{"type": "double"}, nil

	case db.IndexFieldText:
		m := obj{"type": "text"}
		if f.Sortable {
			m["fields"] = obj{
				rawSubfield: obj{"type": "keyword", "ignore_above": 256},
			}
		}
		return m, nil

	case db.IndexFieldTag:
		m := obj{"type": "keyword"}
		if !f.TagCaseSensitive {
			m["normalizer"] = tagNormalizer
		}
		return m, nil

	default:
		return nil, errors.New("unknown field type")
	}
}
