package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn func(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
}

func (m *mockStore) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, 0), ms
}

func mustRequest(t *testing.T, p request.Params) request.Request {
	t.Helper()
	req, err := request.New(p)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return req
}

func ptr[T any](v T) *T { return &v }
