package schema

import (
	"context"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn   func(ctx context.Context, name string) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func fieldsByName(def *db.IndexDefinition) map[string]db.IndexField {
	m := make(map[string]db.IndexField, len(def.Fields))
	for _, f := range def.Fields {
		m[f.QueryName()] = f
	}
	return m
}
