package document

import (
	"context"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	putDocumentsFn    func(ctx context.Context, index string, docs []db.Document) ([]error, error)
	deleteDocumentsFn func(ctx context.Context, index string, ids []string) error
	searchIDsFn       func(ctx context.Context, index string, filter db.Expr, batch int) ([]string, error)
}

func (m *mockStore) PutDocuments(ctx context.Context, index string, docs []db.Document) ([]error, error) {
	if m.putDocumentsFn != nil {
		return m.putDocumentsFn(ctx, index, docs)
	}
	return make([]error, len(docs)), nil
}

func (m *mockStore) DeleteDocuments(ctx context.Context, index string, ids []string) error {
	if m.deleteDocumentsFn != nil {
		return m.deleteDocumentsFn(ctx, index, ids)
	}
	return nil
}

func (m *mockStore) SearchIDs(ctx context.Context, index string, filter db.Expr, batch int) ([]string, error) {
	if m.searchIDsFn != nil {
		return m.searchIDsFn(ctx, index, filter, batch)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}
