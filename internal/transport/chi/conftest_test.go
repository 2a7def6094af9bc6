package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/facetdex/internal/usecase/indexing"
	presetuc "github.com/kailas-cloud/facetdex/internal/usecase/preset"
)

type mockSearcher struct {
	searchFn func(ctx context.Context, alias string, req request.Request) (result.Result, error)
}

func (m *mockSearcher) Search(ctx context.Context, alias string, req request.Request) (result.Result, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, alias, req)
	}
	return result.Empty(), nil
}

type mockIndexer struct {
	addFn    func(ctx context.Context, alias string, item indexinguc.Item) (indexinguc.Report, error)
	deleteFn func(ctx context.Context, alias string, ids []uuid.UUID) (int, error)
}

func (m *mockIndexer) AddOrUpdate(ctx context.Context, alias string, item indexinguc.Item) (indexinguc.Report, error) {
	if m.addFn != nil {
		return m.addFn(ctx, alias, item)
	}
	return indexinguc.Report{}, nil
}

func (m *mockIndexer) Delete(ctx context.Context, alias string, ids []uuid.UUID) (int, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, alias, ids)
	}
	return 0, nil
}

type mockSchema struct {
	ensureFn func(ctx context.Context, alias string) error
	resetFn  func(ctx context.Context, alias string) error
}

func (m *mockSchema) Ensure(ctx context.Context, alias string) error {
	if m.ensureFn != nil {
		return m.ensureFn(ctx, alias)
	}
	return nil
}

func (m *mockSchema) Reset(ctx context.Context, alias string) error {
	if m.resetFn != nil {
		return m.resetFn(ctx, alias)
	}
	return nil
}

type mockPresets struct {
	articlesFn func(ctx context.Context, q presetuc.ArticlesQuery) (result.Result, error)
	booksFn    func(ctx context.Context, q presetuc.BooksQuery) (result.Result, error)
}

func (m *mockPresets) Articles(ctx context.Context, q presetuc.ArticlesQuery) (result.Result, error) {
	if m.articlesFn != nil {
		return m.articlesFn(ctx, q)
	}
	return result.Empty(), nil
}

func (m *mockPresets) Books(ctx context.Context, q presetuc.BooksQuery) (result.Result, error) {
	if m.booksFn != nil {
		return m.booksFn(ctx, q)
	}
	return result.Empty(), nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type testServer struct {
	handler  http.Handler
	searcher *mockSearcher
	indexer  *mockIndexer
	schema   *mockSchema
	presets  *mockPresets
	health   *mockHealth
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		searcher: &mockSearcher{},
		indexer:  &mockIndexer{},
		schema:   &mockSchema{},
		presets:  &mockPresets{},
		health:   &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}},
	}
	s := NewServer(ts.searcher, ts.indexer, ts.schema, ts.presets, ts.health, []string{"articles"}, zap.NewNop())
	ts.handler = NewRouter(s, nil, zap.NewNop())
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}
